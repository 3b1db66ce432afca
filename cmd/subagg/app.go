package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/subagg-go/internal/aggregate"
	"github.com/John-Robertt/subagg-go/internal/config"
	"github.com/John-Robertt/subagg-go/internal/fetch"
	"github.com/John-Robertt/subagg-go/internal/kv"
	"github.com/John-Robertt/subagg-go/internal/kv/memory"
	"github.com/John-Robertt/subagg-go/internal/kv/redis"
	"github.com/John-Robertt/subagg-go/internal/kv/sqlstore"
	"github.com/John-Robertt/subagg-go/internal/notify"
	"github.com/John-Robertt/subagg-go/internal/snapshot"
)

// app holds what every subcommand needs after configuration is loaded.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	rules []string // nil selects aggregate.DefaultRules
}

func loadApp(cmd *cobra.Command) (*app, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	rules, err := cfg.Template.RuleList()
	if err != nil {
		return nil, err
	}
	log := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(log)
	return &app{cfg: cfg, log: log, rules: rules}, nil
}

// openStore connects the configured backend. The memory driver keeps state
// for the life of the process only.
func (a *app) openStore(ctx context.Context) (kv.Store, error) {
	sc := a.cfg.Store
	switch sc.Driver {
	case "memory":
		return memory.New(), nil
	case "redis":
		return redis.New(ctx, redis.Options{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
		})
	case "sqlite3", "postgres":
		return sqlstore.New(sc.Driver, sc.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
	}
}

func (a *app) newAggregator(observe func(string)) *aggregate.Aggregator {
	sc := a.cfg.Sources
	fetcher := fetch.New(fetch.Options{
		Timeout:    sc.Timeout,
		MaxBytes:   sc.MaxBytes,
		RatePerSec: sc.RatePerSec,
		Burst:      sc.Concurrency,
	})
	return aggregate.New(fetcher, aggregate.Options{
		Concurrency:   sc.Concurrency,
		SelectGroup:   a.cfg.Template.SelectGroup,
		FallbackGroup: a.cfg.Template.FallbackGroup,
		Rules:         a.rules,
		Logger:        a.log,
		Observe:       observe,
	})
}

func (a *app) newNotifier(snaps *snapshot.Store) *notify.DiffNotifier {
	nc := a.cfg.Notify
	var sender notify.Sender
	if nc.TelegramEnabled() {
		sender = &notify.Telegram{
			BotToken: nc.TelegramBotToken,
			ChatID:   nc.TelegramChatID,
			APIBase:  nc.TelegramAPIBase,
		}
	}
	return notify.NewDiffNotifier(snaps, sender, notify.Options{Title: nc.Title, Logger: a.log})
}
