// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/pillow-tui/internal/store"
)

// DefaultFlushInterval is how often dirty state is flushed to disk.
const DefaultFlushInterval = 2 * time.Second

// Snapshotter persists store state on a debounce interval. Every store
// mutation marks it dirty; a background loop flushes at most once per
// interval, so streaming deltas coalesce into a handful of writes.
type Snapshotter struct {
	db       *DB
	store    *store.Store
	interval time.Duration

	mu    sync.Mutex
	dirty bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSnapshotter creates a snapshotter over the given store and database.
func NewSnapshotter(db *DB, st *store.Store) *Snapshotter {
	return &Snapshotter{
		db:       db,
		store:    st,
		interval: DefaultFlushInterval,
	}
}

// WithInterval sets a custom flush interval.
func (s *Snapshotter) WithInterval(d time.Duration) *Snapshotter {
	s.interval = d
	return s
}

// Start subscribes to the store and begins the flush loop.
func (s *Snapshotter) Start() {
	s.store.Subscribe(s.MarkDirty)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)
}

// MarkDirty flags the state for the next flush.
func (s *Snapshotter) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *Snapshotter) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.flushIfDirty()
		}
	}
}

func (s *Snapshotter) flushIfDirty() {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	s.dirty = false
	s.mu.Unlock()

	if err := s.Flush(); err != nil {
		// Persistence is best-effort; keep the dirty flag so the next
		// tick retries.
		log.Printf("snapshot flush failed: %v", err)
		s.MarkDirty()
	}
}

// Flush writes the current store state unconditionally.
func (s *Snapshotter) Flush() error {
	if err := s.db.SaveSessions(s.store.Sessions()); err != nil {
		return err
	}
	return s.db.SaveActiveSession(s.store.ActiveID())
}

// Stop halts the flush loop and writes a final snapshot.
func (s *Snapshotter) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done

	if err := s.Flush(); err != nil {
		log.Printf("final snapshot flush failed: %v", err)
	}
}
