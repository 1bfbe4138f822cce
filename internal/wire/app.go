package wire

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mithrel/msgbus/internal/catalogue"
	"github.com/mithrel/msgbus/internal/config"
	"github.com/mithrel/msgbus/internal/db"
	"github.com/mithrel/msgbus/internal/logging"
	"github.com/mithrel/msgbus/pkg/bus"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg       *viper.Viper
	Log       zerolog.Logger
	Catalogue *bus.Catalogue
	Store     db.Store
}

// BuildApp wires dependencies with the provided config. The store is only
// opened by OpenStore since foreground commands never touch it.
func BuildApp(ctx context.Context, cfg *viper.Viper) (*App, error) {
	return &App{
		Cfg:       cfg,
		Log:       logging.Stderr("msgbus", cfg.GetString("log.level")),
		Catalogue: catalogue.Default,
	}, nil
}

// OpenStore opens the item store named by db_url.
func (a *App) OpenStore(ctx context.Context) (db.Store, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	st, err := db.Open(ctx, config.ResolveDBURL(a.Cfg))
	if err != nil {
		return nil, err
	}
	a.Store = st
	return st, nil
}
