package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mithrel/msgbus/internal/catalogue"
	"github.com/mithrel/msgbus/internal/config"
	"github.com/mithrel/msgbus/internal/db"
	"github.com/mithrel/msgbus/internal/util"
	"github.com/mithrel/msgbus/pkg/api"
	"github.com/mithrel/msgbus/pkg/bus"
)

var ErrConfigKeyNotFound = errors.New("config key not found")

// Service answers the catalogue operations from the item store and config.
// One Service may serve several channels; broadcasts reach all of them.
type Service struct {
	cfg   *viper.Viper
	store db.Store
	log   zerolog.Logger

	autoUpdate atomic.Bool

	mu       sync.Mutex
	channels []*bus.Channel
	lastSha  string // last announced list hash
}

func NewService(cfg *viper.Viper, store db.Store, log zerolog.Logger) *Service {
	s := &Service{cfg: cfg, store: store, log: log}
	s.autoUpdate.Store(cfg.GetBool("features.auto_update"))
	return s
}

// Attach registers every request handler on ch.
func (s *Service) Attach(ch *bus.Channel) error {
	regs := []error{
		bus.OnRequest(ch, catalogue.GetItems, s.getItems),
		bus.OnRequest(ch, catalogue.GetConfig, s.getConfig),
		bus.OnRequest(ch, catalogue.ToggleFeature, s.toggleFeature),
		bus.OnRequest(ch, catalogue.Search, s.search),
		bus.OnRequest(ch, catalogue.Ping, s.ping),
		bus.OnRequest(ch, catalogue.UpdateItems, s.updateItems),
		bus.OnRequest(ch, catalogue.ListNamespaces, s.listNamespaces),
	}
	if err := errors.Join(regs...); err != nil {
		return err
	}
	s.mu.Lock()
	s.channels = append(s.channels, ch)
	s.mu.Unlock()
	return nil
}

// AutoUpdate reports the current feature state.
func (s *Service) AutoUpdate() bool { return s.autoUpdate.Load() }

func (s *Service) getItems(ctx context.Context, filter *string) (catalogue.ItemsResult, error) {
	if filter != nil {
		f := strings.ToLower(strings.TrimSpace(*filter))
		if it, err := s.store.LookupItem(ctx, f); err == nil {
			return catalogue.ItemsResult{Item: &it}, nil
		} else if !errors.Is(err, db.ErrNotFound) {
			return catalogue.ItemsResult{}, err
		}
		items, err := s.store.ListItems(ctx, f)
		if err != nil {
			return catalogue.ItemsResult{}, err
		}
		l := api.NewItemList(items)
		return catalogue.ItemsResult{List: &l}, nil
	}
	l, err := s.list(ctx)
	if err != nil {
		return catalogue.ItemsResult{}, err
	}
	return catalogue.ItemsResult{List: &l}, nil
}

func (s *Service) getConfig(_ context.Context, key *string) (catalogue.ConfigResult, error) {
	table := config.Replacements(s.cfg)
	if key == nil {
		return catalogue.ConfigResult{Values: table}, nil
	}
	v, ok := table[*key]
	if !ok {
		return catalogue.ConfigResult{}, fmt.Errorf("%w: %s", ErrConfigKeyNotFound, *key)
	}
	return catalogue.ConfigResult{Value: &v}, nil
}

func (s *Service) toggleFeature(ctx context.Context, on bool) (bool, error) {
	was := s.autoUpdate.Swap(on)
	s.log.Info().Bool("auto_update", on).Msg("feature toggled")
	if on && !was {
		if err := s.announce(ctx); err != nil {
			s.log.Warn().Err(err).Msg("announce items")
		}
	}
	return on, nil
}

func (s *Service) search(ctx context.Context, q catalogue.SearchQuery) ([]api.Suggestion, error) {
	term := strings.TrimSpace(q.Term)
	if term == "" {
		return nil, errors.New("search term is empty")
	}
	limit := s.cfg.GetInt("search.default_limit")
	if q.Limit != nil {
		limit = *q.Limit
	}
	if limit > catalogue.MaxSearchLimit || limit <= 0 {
		limit = catalogue.MaxSearchLimit
	}
	items, err := s.store.ListItems(ctx, "")
	if err != nil {
		return nil, err
	}
	out := util.ScoreSuggestions(term, items, limit)
	if out == nil {
		out = []api.Suggestion{}
	}
	return out, nil
}

func (s *Service) ping(context.Context, struct{}) (bool, error) { return true, nil }

func (s *Service) updateItems(ctx context.Context, items []api.Item) (api.ItemListInfo, error) {
	if err := s.store.PutItems(ctx, items); err != nil {
		return api.ItemListInfo{}, err
	}
	l, err := s.list(ctx)
	if err != nil {
		return api.ItemListInfo{}, err
	}
	info := l.Info()
	s.log.Info().Int("count", info.Count).Str("sha", info.Sha).Msg("items updated")
	s.broadcast(info)
	return info, nil
}

func (s *Service) listNamespaces(ctx context.Context, _ struct{}) ([]string, error) {
	nss, err := s.store.Namespaces(ctx)
	if err != nil {
		return nil, err
	}
	if nss == nil {
		nss = []string{}
	}
	return nss, nil
}

func (s *Service) list(ctx context.Context) (api.ItemList, error) {
	items, err := s.store.ListItems(ctx, "")
	if err != nil {
		return api.ItemList{}, err
	}
	return api.NewItemList(items), nil
}

// announce broadcasts the current list summary.
func (s *Service) announce(ctx context.Context) error {
	l, err := s.list(ctx)
	if err != nil {
		return err
	}
	s.broadcast(l.Info())
	return nil
}

// Refresh announces the list when auto-update is on and the store changed
// since the last announcement. The first call only records the hash.
func (s *Service) Refresh(ctx context.Context) {
	if !s.autoUpdate.Load() {
		return
	}
	l, err := s.list(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("refresh items")
		return
	}
	s.mu.Lock()
	prev := s.lastSha
	if prev == "" {
		s.lastSha = l.Sha
	}
	s.mu.Unlock()
	if prev == "" || prev == l.Sha {
		return
	}
	s.log.Debug().Str("sha", l.Sha).Msg("store changed outside the bus")
	s.broadcast(l.Info())
}

func (s *Service) broadcast(info api.ItemListInfo) {
	s.mu.Lock()
	s.lastSha = info.Sha
	chans := append([]*bus.Channel(nil), s.channels...)
	s.mu.Unlock()
	for _, ch := range chans {
		if err := bus.Broadcast(ch, catalogue.ItemsChanged, info); err != nil {
			s.log.Warn().Err(err).Msg("broadcast items-changed")
		}
	}
}
