package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/msgbus/internal/catalogue"
	"github.com/mithrel/msgbus/internal/db"
	"github.com/mithrel/msgbus/internal/ipc/transport"
	"github.com/mithrel/msgbus/pkg/api"
	"github.com/mithrel/msgbus/pkg/bus"
)

var seed = []api.Item{
	{Namespace: "fruit", Name: "apple", Translation: "jablko"},
	{Namespace: "fruit", Name: "apricot", Translation: "merunka"},
	{Namespace: "fruit", Name: "banana", Translation: "banan"},
	{Namespace: "tool", Name: "hammer", Translation: "kladivo"},
}

// newPair hosts a Service on one local endpoint and returns a client
// channel on another.
func newPair(t *testing.T, cfg *viper.Viper) (*Service, *bus.Channel) {
	t.Helper()
	if cfg == nil {
		cfg = viper.New()
	}
	cfg.SetDefault("search.default_limit", 10)
	store, err := db.Open(context.Background(), "memory")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	local := transport.NewLocal()
	host, client := local.Endpoint(), local.Endpoint()
	t.Cleanup(func() { _ = host.Close(); _ = client.Close() })

	svc := NewService(cfg, store, zerolog.Nop())
	require.NoError(t, svc.Attach(bus.New(host, catalogue.Default)))
	return svc, bus.New(client, catalogue.Default)
}

func TestServicePing(t *testing.T) {
	_, ch := newPair(t, nil)
	ok, err := bus.Request(context.Background(), ch, catalogue.Ping, struct{}{})
	require.NoError(t, err)
	assert.True(t, ok)

	nss, err := bus.Request(context.Background(), ch, catalogue.ListNamespaces, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []string{}, nss)
}

func TestServiceItems(t *testing.T) {
	_, ch := newPair(t, nil)
	ctx := context.Background()

	info, err := bus.Request(ctx, ch, catalogue.UpdateItems, seed)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Count)
	assert.Equal(t, api.HashItems(seed), info.Sha)

	all, err := bus.Request(ctx, ch, catalogue.GetItems, nil)
	require.NoError(t, err)
	require.NotNil(t, all.List)
	assert.Len(t, all.List.Items, 4)
	assert.Equal(t, info.Sha, all.List.Sha)

	one, err := bus.Request(ctx, ch, catalogue.GetItems, catalogue.Str("Hammer"))
	require.NoError(t, err)
	require.NotNil(t, one.Item)
	assert.Equal(t, "kladivo", one.Item.Translation)

	ns, err := bus.Request(ctx, ch, catalogue.GetItems, catalogue.Str("fruit"))
	require.NoError(t, err)
	require.NotNil(t, ns.List)
	assert.Len(t, ns.List.Items, 3)

	nss, err := bus.Request(ctx, ch, catalogue.ListNamespaces, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []string{"fruit", "tool"}, nss)

	none, err := bus.Request(ctx, ch, catalogue.GetItems, catalogue.Str("nothing"))
	require.NoError(t, err)
	require.NotNil(t, none.List)
	assert.Empty(t, none.List.Items)
}

func TestServiceUpdateRejectsInvalidItem(t *testing.T) {
	_, ch := newPair(t, nil)
	_, err := bus.Request(context.Background(), ch, catalogue.UpdateItems, []api.Item{{Name: "orphan"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrInvalidItem)
}

func TestServiceConfig(t *testing.T) {
	cfg := viper.New()
	cfg.Set("replace", map[string]string{"colour": "color"})
	_, ch := newPair(t, cfg)
	ctx := context.Background()

	all, err := bus.Request(ctx, ch, catalogue.GetConfig, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"colour": "color"}, all.Values)

	one, err := bus.Request(ctx, ch, catalogue.GetConfig, catalogue.Str("colour"))
	require.NoError(t, err)
	require.NotNil(t, one.Value)
	assert.Equal(t, "color", *one.Value)

	_, err = bus.Request(ctx, ch, catalogue.GetConfig, catalogue.Str("missing"))
	assert.ErrorIs(t, err, ErrConfigKeyNotFound)
}

func TestServiceSearchLimit(t *testing.T) {
	_, ch := newPair(t, nil)
	ctx := context.Background()
	_, err := bus.Request(ctx, ch, catalogue.UpdateItems, seed)
	require.NoError(t, err)

	got, err := bus.Request(ctx, ch, catalogue.Search, catalogue.SearchQuery{Term: "ap", Limit: catalogue.Int(2)})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 2)
	require.NotEmpty(t, got)
	assert.Contains(t, []string{"apple", "apricot"}, got[0].Item.Name)

	_, err = bus.Request(ctx, ch, catalogue.Search, catalogue.SearchQuery{Term: ""})
	assert.ErrorIs(t, err, bus.ErrCatalogueMismatch)
}

func TestServiceToggleBroadcasts(t *testing.T) {
	svc, ch := newPair(t, nil)
	ctx := context.Background()

	changed := make(chan api.ItemListInfo, 4)
	require.NoError(t, bus.OnRequest(ch, catalogue.ItemsChanged, func(_ context.Context, info api.ItemListInfo) (struct{}, error) {
		changed <- info
		return struct{}{}, nil
	}))

	on, err := bus.Request(ctx, ch, catalogue.ToggleFeature, true)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, svc.AutoUpdate())

	select {
	case info := <-changed:
		assert.Equal(t, 0, info.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("no items-changed broadcast")
	}

	off, err := bus.Request(ctx, ch, catalogue.ToggleFeature, false)
	require.NoError(t, err)
	assert.False(t, off)
	assert.False(t, svc.AutoUpdate())
}

func TestServiceAttachTwiceFails(t *testing.T) {
	svc, _ := newPair(t, nil)
	ep := transport.NewLocal().Endpoint()
	ch := bus.New(ep, catalogue.Default)
	require.NoError(t, svc.Attach(ch))
	assert.ErrorIs(t, svc.Attach(ch), bus.ErrDuplicateHandler)
}

func TestServiceRefreshAnnouncesOutsideWrites(t *testing.T) {
	cfg := viper.New()
	cfg.Set("features.auto_update", true)
	store, err := db.Open(context.Background(), "memory")
	require.NoError(t, err)
	local := transport.NewLocal()
	host, client := local.Endpoint(), local.Endpoint()
	t.Cleanup(func() { _ = host.Close(); _ = client.Close() })
	svc := NewService(cfg, store, zerolog.Nop())
	require.NoError(t, svc.Attach(bus.New(host, catalogue.Default)))
	ch := bus.New(client, catalogue.Default)

	changed := make(chan api.ItemListInfo, 4)
	require.NoError(t, bus.OnRequest(ch, catalogue.ItemsChanged, func(_ context.Context, info api.ItemListInfo) (struct{}, error) {
		changed <- info
		return struct{}{}, nil
	}))

	ctx := context.Background()
	svc.Refresh(ctx) // records the initial hash
	svc.Refresh(ctx) // unchanged
	require.NoError(t, store.PutItems(ctx, seed[:1]))
	svc.Refresh(ctx)

	select {
	case info := <-changed:
		assert.Equal(t, 1, info.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not announce")
	}
	select {
	case info := <-changed:
		t.Fatalf("unexpected extra announcement %+v", info)
	case <-time.After(50 * time.Millisecond):
	}
}
