package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"worktally/aggregator"
	"worktally/config"
	"worktally/docstore"
	"worktally/internal/logging"
	"worktally/notify"
	"worktally/report"
	"worktally/settings"
)

// app holds the long-lived collaborators every command builds from config.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    docstore.Store
	notifier notify.Notifier
	closers  []io.Closer
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, err
	}
	return openAppWithConfig(ctx, cfg)
}

func openAppWithConfig(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	store, err := docstore.Open(ctx, docstore.Options{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		DSN:    cfg.Store.DSN,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: store}
	a.closers = append(a.closers, store)

	notifier, err := a.openNotifier()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.notifier = notifier

	logger.Debug("store opened",
		zap.String("driver", cfg.Store.Driver),
		zap.String("notify", cfg.Notify.Driver),
		zap.String("notify_fallback", cfg.Notify.Fallback),
	)
	return a, nil
}

// openNotifier builds the configured channel. With a fallback set, events go
// to both and subscribers hear from both.
func (a *app) openNotifier() (notify.Notifier, error) {
	primary, err := a.openNotifyDriver(a.cfg.Notify.Driver)
	if err != nil {
		return nil, err
	}
	if a.cfg.Notify.Fallback == "" {
		return primary, nil
	}
	fallback, err := a.openNotifyDriver(a.cfg.Notify.Fallback)
	if err != nil {
		return nil, fmt.Errorf("notify fallback: %w", err)
	}
	return notify.Fanout{primary, fallback}, nil
}

func (a *app) openNotifyDriver(driver string) (notify.Notifier, error) {
	switch driver {
	case config.NotifyFile:
		signal, err := notify.NewFileSignal(a.cfg.Notify.File, a.logger)
		if err != nil {
			return nil, err
		}
		return signal, nil
	case config.NotifyRedis:
		redis, err := notify.NewRedisNotifier(notify.RedisOptions{
			Addr:     a.cfg.Notify.RedisAddr,
			Password: a.cfg.Notify.RedisPass,
			DB:       a.cfg.Notify.RedisDB,
			Channel:  a.cfg.Notify.RedisChannel,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redis)
		return redis, nil
	case config.NotifyLocal, "":
		return notify.NewBroadcaster(0), nil
	default:
		return nil, fmt.Errorf("unsupported notify driver %q (valid: local, file, redis)", driver)
	}
}

func (a *app) entries() *aggregator.Service {
	return aggregator.New(a.store,
		aggregator.WithLogger(a.logger.Named("aggregator")),
		aggregator.WithNotifier(a.notifier),
	)
}

func (a *app) reports() *report.Engine {
	return report.NewEngine(a.store, report.WithLogger(a.logger.Named("report")))
}

func (a *app) settings() *settings.Store {
	return settings.NewStore(a.store, a.notifier, settings.WithLogger(a.logger.Named("settings")))
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// resolveUser picks the flag value over the configured identity.
func resolveUser(flagValue, configured string) (string, error) {
	if user := strings.TrimSpace(flagValue); user != "" {
		return user, nil
	}
	if user := strings.TrimSpace(configured); user != "" {
		return user, nil
	}
	return "", fmt.Errorf("user is required: pass --user or set user.id in the config")
}
