package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/subagg-go/internal/kv"
)

var _ kv.Store = (*Store)(nil)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_GetPut(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, ok, err := s.Get(ctx, "nodes:latest")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "nodes:latest", `{"timestamp":1}`, 0))
	v, ok, err := s.Get(ctx, "nodes:latest")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"timestamp":1}`, v)
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t)

	require.NoError(t, s.Put(ctx, "rate:t:1", "3", 70*time.Second))
	assert.Equal(t, 70*time.Second, mr.TTL("rate:t:1"))

	mr.FastForward(71 * time.Second)
	_, ok, err := s.Get(ctx, "rate:t:1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t)
	mr.Close()

	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, s.Put(ctx, "k", "v", 0))
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), Options{Addr: addr})
	assert.Error(t, err)
}
