package httpapi

import (
	"log/slog"
	"time"

	"github.com/John-Robertt/subagg-go/internal/aggregate"
	"github.com/John-Robertt/subagg-go/internal/auth"
	"github.com/John-Robertt/subagg-go/internal/ratelimit"
	"github.com/John-Robertt/subagg-go/internal/snapshot"
)

// Options controls HTTP API runtime behavior.
type Options struct {
	// ConvertTimeout bounds one /sub request (all fetches, parse, render).
	ConvertTimeout time.Duration

	// DefaultSources are used when a request names no sources. When both are
	// empty the built-in sample document is served.
	DefaultSources []string
}

func (o Options) withDefaults() Options {
	if o.ConvertTimeout <= 0 {
		o.ConvertTimeout = 60 * time.Second
	}
	return o
}

// Deps are the collaborators of the HTTP layer. Snapshots may be nil to
// disable persistence; Limiter may be nil to disable rate limiting.
type Deps struct {
	Tokens     auth.Tokens
	Limiter    *ratelimit.Limiter
	Aggregator *aggregate.Aggregator
	Snapshots  *snapshot.Store
	Metrics    *Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
