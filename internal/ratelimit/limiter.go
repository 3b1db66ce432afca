// Package ratelimit is an advisory per-identity request ceiling over a
// kv.Store, bucketed by UTC minute.
//
// The read-then-write is not atomic: concurrent requests may both read the
// same count and admit one request too many. A store failure admits the
// request.
package ratelimit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/subagg-go/internal/kv"
)

const (
	DefaultLimit = 100
	BucketTTL    = 70 * time.Second
)

type Decision struct {
	Allowed bool
	Count   int // requests seen in this bucket before this one
	Limit   int
	// Err is set when the store failed and the request was admitted anyway.
	Err error
}

type Limiter struct {
	store kv.Store
	limit int
	now   func() time.Time
}

// New returns a limiter admitting limit requests per identity per minute.
// limit <= 0 selects DefaultLimit. A nil store admits everything.
func New(store kv.Store, limit int) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Limiter{store: store, limit: limit, now: time.Now}
}

func (l *Limiter) Limit() int { return l.limit }

// Key is the counter key for identity at t.
func Key(identity string, t time.Time) string {
	return "rate:" + identity + ":" + strconv.FormatInt(t.UTC().Unix()/60, 10)
}

func (l *Limiter) Check(ctx context.Context, identity string) Decision {
	d := Decision{Allowed: true, Limit: l.limit}
	if l.store == nil {
		return d
	}

	key := Key(identity, l.now())
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		d.Err = err
		return d
	}
	if ok {
		// Unparsable counters count as zero.
		if n, perr := strconv.Atoi(strings.TrimSpace(raw)); perr == nil && n > 0 {
			d.Count = n
		}
	}
	if d.Count >= l.limit {
		d.Allowed = false
		return d
	}
	if err := l.store.Put(ctx, key, strconv.Itoa(d.Count+1), BucketTTL); err != nil {
		d.Err = err
	}
	return d
}
