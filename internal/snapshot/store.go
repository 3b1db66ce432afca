// Package snapshot persists the latest and previous node snapshots in a
// kv.Store. Only two slots exist; there is no history.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/John-Robertt/subagg-go/internal/kv"
	"github.com/John-Robertt/subagg-go/internal/model"
)

const (
	KeyLatest   = "nodes:latest"
	KeyPrevious = "nodes:prev"
)

type Store struct {
	kv kv.Store
}

func New(store kv.Store) *Store {
	return &Store{kv: store}
}

// SaveLatest overwrites the latest slot.
func (s *Store) SaveLatest(ctx context.Context, snap model.Snapshot) error {
	return s.put(ctx, KeyLatest, snap)
}

// Latest returns ok=false when nothing has been saved yet.
func (s *Store) Latest(ctx context.Context) (model.Snapshot, bool, error) {
	return s.get(ctx, KeyLatest)
}

func (s *Store) Previous(ctx context.Context) (model.Snapshot, bool, error) {
	return s.get(ctx, KeyPrevious)
}

// Rotate copies snap into the previous slot. It is not atomic with respect to
// a concurrent SaveLatest.
func (s *Store) Rotate(ctx context.Context, snap model.Snapshot) error {
	return s.put(ctx, KeyPrevious, snap)
}

func (s *Store) put(ctx context.Context, key string, snap model.Snapshot) error {
	if snap.Nodes == nil {
		snap.Nodes = []model.SnapshotNode{}
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, string(b), 0); err != nil {
		return fmt.Errorf("store snapshot %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (model.Snapshot, bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	if !ok {
		return model.Snapshot{}, false, nil
	}
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return snap, true, nil
}
