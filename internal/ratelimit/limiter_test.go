package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/subagg-go/internal/kv/memory"
)

func TestKey(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 59, 0, time.FixedZone("x", 8*3600))
	assert.Equal(t, "rate:tok:28402264", Key("tok", ts))
}

func TestCheck_CeilingWithinOneMinute(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)
	l := New(memory.NewWithClock(func() time.Time { return now }), 100)
	l.now = func() time.Time { return now }

	for i := 1; i <= 100; i++ {
		d := l.Check(ctx, "tok")
		require.True(t, d.Allowed, "request %d", i)
		require.NoError(t, d.Err)
	}
	d := l.Check(ctx, "tok")
	assert.False(t, d.Allowed)
	assert.Equal(t, 100, d.Count)

	assert.True(t, l.Check(ctx, "other").Allowed, "identities are independent")

	now = now.Add(time.Minute)
	assert.True(t, l.Check(ctx, "tok").Allowed, "new minute, new bucket")
}

func TestCheck_UnparsableCounterIsZero(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	l := New(mem, 1)
	now := time.Now()
	l.now = func() time.Time { return now }
	require.NoError(t, mem.Put(ctx, Key("tok", now), "garbage", time.Minute))

	d := l.Check(ctx, "tok")
	assert.True(t, d.Allowed)
	v, _, _ := mem.Get(ctx, Key("tok", now))
	assert.Equal(t, "1", v)
}

func TestNew_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, New(nil, 0).Limit())
	assert.Equal(t, DefaultLimit, New(nil, -5).Limit())
}

type failingStore struct {
	getErr, putErr error
	value          string
}

func (f failingStore) Get(context.Context, string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.value, true, nil
}
func (f failingStore) Put(context.Context, string, string, time.Duration) error { return f.putErr }
func (failingStore) Close() error                                              { return nil }

func TestCheck_FailsOpen(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("kv unavailable")

	d := New(failingStore{getErr: boom}, 1).Check(ctx, "tok")
	assert.True(t, d.Allowed)
	assert.ErrorIs(t, d.Err, boom)

	d = New(failingStore{value: "0", putErr: boom}, 1).Check(ctx, "tok")
	assert.True(t, d.Allowed)
	assert.ErrorIs(t, d.Err, boom)

	d = New(nil, 1).Check(ctx, "tok")
	assert.True(t, d.Allowed)
	assert.NoError(t, d.Err)
}
