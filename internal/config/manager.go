// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/pillow-tui/internal/model"
)

// watchDebounce coalesces editor write bursts into one reload.
const watchDebounce = 250 * time.Millisecond

// Manager holds the live settings and serializes access to them.
type Manager struct {
	mu       sync.RWMutex
	settings model.Settings
	onChange func(model.Settings)

	cancel context.CancelFunc
}

// NewManager creates a manager seeded with the given settings.
func NewManager(settings model.Settings) *Manager {
	return &Manager{settings: settings}
}

// Current returns a snapshot of the settings.
func (m *Manager) Current() model.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.Clone()
}

// Update applies fn to a copy of the settings, normalizes the result, and
// installs it as the live snapshot. The new settings are returned.
func (m *Manager) Update(fn func(*model.Settings)) model.Settings {
	m.mu.Lock()
	next := m.settings.Clone()
	fn(&next)
	next = Normalize(next)
	m.settings = next
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(next.Clone())
	}
	return next
}

// OnChange registers a callback invoked after each settings change,
// including reloads picked up by Watch.
func (m *Manager) OnChange(fn func(model.Settings)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// replace installs externally loaded settings.
func (m *Manager) replace(settings model.Settings) {
	m.mu.Lock()
	m.settings = settings
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(settings.Clone())
	}
}

// Watch reloads settings when the config file changes on disk. Write
// bursts are debounced. Returns an error only if the watcher cannot be
// created; reload failures are silently skipped, keeping the last good
// settings.
func (m *Manager) Watch(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory, not the file: atomic saves replace the inode,
	// which would silently detach a file-level watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if filepath.Base(event.Name) != filepath.Base(path) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
					timerC = timer.C
				} else {
					timer.Reset(watchDebounce)
				}

			case <-timerC:
				timer = nil
				timerC = nil
				settings, err := LoadFromPath(path)
				if err != nil {
					continue
				}
				m.replace(settings)

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}

// StopWatch stops a running Watch. No-op if none is active.
func (m *Manager) StopWatch() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
