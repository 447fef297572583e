package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/RRZE-Webteam/rrze-updater/internal/apiclient"
	"github.com/RRZE-Webteam/rrze-updater/internal/config"
	"github.com/RRZE-Webteam/rrze-updater/internal/connector"
	"github.com/RRZE-Webteam/rrze-updater/internal/inspector"
	"github.com/RRZE-Webteam/rrze-updater/internal/installer"
	"github.com/RRZE-Webteam/rrze-updater/internal/scheduler"
	"github.com/RRZE-Webteam/rrze-updater/internal/settings"
	"github.com/RRZE-Webteam/rrze-updater/internal/store"
	"github.com/RRZE-Webteam/rrze-updater/internal/updater"
)

// app is everything a command needs, built from the loaded configuration
type app struct {
	cfg       *config.Config
	settings  *settings.Settings
	inspector *inspector.FS
	service   *updater.Service
}

// openApp loads the configuration and the registry. Callers must Close it.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if !cfg.Paths.IsInitialized() {
		return nil, fmt.Errorf("rrze-updater not initialized: run 'rrze-updater init' first")
	}

	st, err := store.Open(cfg.SettingsBackend, cfg.SettingsPath())
	if err != nil {
		return nil, err
	}
	codec, err := settings.CodecFor(cfg.SettingsFormat)
	if err != nil {
		st.Close()
		return nil, err
	}

	logger := slog.Default()
	client := apiclient.New(apiclient.WithTimeout(cfg.HTTPTimeout), apiclient.WithLogger(logger))
	env := connector.Env{
		Client: client,
		Endpoints: connector.Endpoints{
			GitHubAPI: cfg.GitHubAPIURL,
			GitHubWeb: cfg.GitHubWebURL,
			GitLab:    cfg.GitLabURL,
		},
		Now:    time.Now,
		Logger: logger,
	}

	s := settings.Open(st, codec, env)
	if err := s.Load(ctx); err != nil {
		s.Close()
		return nil, err
	}

	insp := inspector.NewFS(cfg.Paths.PluginsDir, cfg.Paths.ThemesDir)
	inst := installer.NewZip(cfg.Paths.PluginsDir, cfg.Paths.ThemesDir, client, cfg.DownloadTimeout, logger)

	return &app{
		cfg:       cfg,
		settings:  s,
		inspector: insp,
		service:   updater.New(s, insp, inst, logger),
	}, nil
}

// newScheduler builds a scheduler over the app's registry
func (a *app) newScheduler() *scheduler.Scheduler {
	return scheduler.New(a.settings, a.inspector, scheduler.Options{
		Interval:     a.cfg.ScheduleInterval,
		RecheckAfter: a.cfg.RecheckAfter,
		Tenant:       scheduler.Tenant{ID: a.cfg.TenantID, PrimaryID: a.cfg.PrimaryTenantID},
	})
}

func (a *app) Close() error {
	return a.settings.Close()
}
