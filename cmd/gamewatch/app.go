package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/gamewatch/internal/credential"
	"github.com/nhle/gamewatch/internal/logging"
	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/notify"
	"github.com/nhle/gamewatch/internal/source/nbastats"
	"github.com/nhle/gamewatch/internal/store"
	"github.com/nhle/gamewatch/internal/transport/telegram"
)

// app carries what every command shares: configuration and the logger.
type app struct {
	configPath string
	cfg        *model.AppConfig
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "gamewatch",
		Short:         "Game notifications for followed NBA players",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", model.DefaultConfigPath(), "path to the config file")

	root.AddCommand(
		newRunCmd(a),
		newPassCmd(a),
		newFollowCmd(a),
		newUnfollowCmd(a),
		newFollowingCmd(a),
		newStatusCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newInitCmd(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := model.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) location() *time.Location {
	// Validated by LoadConfig.
	loc, _ := a.cfg.Schedule.Location()
	return loc
}

func (a *app) openStore() (*store.SQLiteStore, error) {
	path := a.cfg.Database.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	return store.NewSQLiteStore(path)
}

func (a *app) stats() *nbastats.Adapter {
	return nbastats.NewAdapter(nbastats.Config{
		BaseURL:           a.cfg.Stats.BaseURL,
		Season:            a.cfg.Stats.Season,
		Timeout:           a.cfg.Stats.Timeout,
		RequestsPerSecond: a.cfg.Stats.RequestsPerSecond,
		AffiliationTTL:    a.cfg.Stats.AffiliationTTL,
	})
}

// credentials opens the keyring. A host without a usable keyring gets a
// nil store, leaving the environment as the only token source.
func (a *app) credentials() *credential.Store {
	ks, err := credential.Open("")
	if err != nil {
		a.logger.Warn("keyring unavailable", "error", err)
		return nil
	}
	return ks
}

func (a *app) sender() (*telegram.Client, error) {
	token, err := credential.BotToken(a.cfg.Telegram.Token, a.credentials())
	if err != nil {
		return nil, err
	}
	return telegram.NewClient(a.cfg.Telegram.BaseURL, token, a.cfg.Telegram.Timeout, a.cfg.Telegram.MaxRetries), nil
}

func (a *app) pipeline(st *store.SQLiteStore, metrics *notify.Metrics) (*notify.Pipeline, error) {
	sender, err := a.sender()
	if err != nil {
		return nil, err
	}
	stats := a.stats()

	return notify.NewPipeline(notify.Config{
		Store:         st,
		Feed:          stats,
		Affiliations:  stats,
		Sender:        sender,
		Location:      a.location(),
		PassTimeout:   a.cfg.Schedule.PassTimeout,
		LookupTimeout: a.cfg.Schedule.LookupTimeout,
		SendTimeout:   a.cfg.Dispatch.SendTimeout,
		Workers:       a.cfg.Schedule.Workers,
		Metrics:       metrics,
		Logger:        a.logger,
	}), nil
}
