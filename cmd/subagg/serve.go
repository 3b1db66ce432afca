package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/subagg-go/internal/auth"
	"github.com/John-Robertt/subagg-go/internal/httpapi"
	"github.com/John-Robertt/subagg-go/internal/kv"
	"github.com/John-Robertt/subagg-go/internal/ratelimit"
	"github.com/John-Robertt/subagg-go/internal/snapshot"
)

const sweepInterval = time.Minute

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务（/sub, /healthz, /metrics）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if listen == "" {
				listen = a.cfg.Server.Addr()
			}
			return a.serve(cmd.Context(), listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP 监听地址（默认 SERVER_HOST:SERVER_PORT）")
	return cmd
}

func (a *app) serve(parent context.Context, listen string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	defaults, err := a.cfg.Sources.List()
	if err != nil {
		return err
	}

	tokens := auth.NewTokens(a.cfg.Auth.MainToken, a.cfg.Auth.GuestToken)
	if !tokens.Configured() {
		a.log.Warn("no MAIN_TOKEN or GUEST_TOKEN configured, every /sub request will be rejected")
	}

	metrics := httpapi.NewMetrics()
	snaps := snapshot.New(store)
	handler := httpapi.NewHandler(httpapi.Deps{
		Tokens:     tokens,
		Limiter:    ratelimit.New(store, a.cfg.RateLimit.PerMinute),
		Aggregator: a.newAggregator(metrics.ObserveSource),
		Snapshots:  snaps,
		Metrics:    metrics,
		Logger:     a.log,
	}, httpapi.Options{
		ConvertTimeout: a.cfg.Server.ConvertTimeout,
		DefaultSources: defaults,
	})

	srv := &http.Server{
		Addr:              listen,
		Handler:           handler,
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
	}

	if iv := a.cfg.Notify.Interval; iv > 0 {
		notifier := a.newNotifier(snaps)
		go every(ctx, iv, func(ctx context.Context) {
			r := notifier.Run(ctx)
			a.log.Debug("scheduled notify pass", "ran", r.Ran, "changed", r.Changed, "total", r.Total)
		})
	}
	if sw, ok := store.(kv.Sweeper); ok {
		go every(ctx, sweepInterval, func(ctx context.Context) {
			if n, err := sw.Sweep(ctx); err != nil {
				a.log.Warn("store sweep failed", "error", err)
			} else if n > 0 {
				a.log.Debug("store sweep", "removed", n)
			}
		})
	}

	a.log.Info("listening", "addr", "http://"+listen, "store", a.cfg.Store.Driver)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			a.log.Warn("graceful shutdown failed", "error", err)
			_ = srv.Close()
		}

		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// every calls fn each interval until ctx is done. Runs never overlap.
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(ctx)
		}
	}
}
