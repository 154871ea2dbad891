package main

import (
	"context"
	"fmt"

	"github.com/joshsymonds/budget-sentinel/internal/common"
	"github.com/joshsymonds/budget-sentinel/internal/config"
	"github.com/joshsymonds/budget-sentinel/internal/notify"
	"github.com/joshsymonds/budget-sentinel/internal/service"
	"github.com/joshsymonds/budget-sentinel/internal/storage"
	"github.com/spf13/viper"
)

// loadConfig builds the validated runtime configuration from the viper
// instance populated by initConfig.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("invalid configuration", err)
	}
	return cfg, nil
}

// openStore opens the SQLite state database and applies pending migrations.
// Callers own the returned store and must Close it.
func openStore(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return store, nil
}

// buildNotifiers assembles the enabled delivery channels. The log notifier is
// always present so every alert leaves at least a local trace.
func buildNotifiers(cfg *config.Config) []service.Notifier {
	notifiers := []service.Notifier{notify.NewLogNotifier()}
	if cfg.Channels.Email.Enabled {
		notifiers = append(notifiers, notify.NewEmailNotifier(cfg.Channels.Email))
	}
	if cfg.Channels.Telegram.Enabled {
		notifiers = append(notifiers, notify.NewTelegramNotifier(cfg.Channels.Telegram))
	}
	return notifiers
}
