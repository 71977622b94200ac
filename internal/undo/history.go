/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
)

// DefaultMaxEntries is the history depth used when Config leaves it unset.
const DefaultMaxEntries = 50

// Config controls depth and memory caps.
type Config struct {
	// MaxEntries bounds the number of retained snapshots; the oldest are dropped first.
	MaxEntries int
	// MaxBytes is a soft cap on the summed snapshot size (0 means unlimited).
	// The current entry is never dropped.
	MaxBytes int
}

// History is a bounded linear list of serialized page snapshots with a
// current index. Entry 0 after a load is the seed. The first commit on a
// clean page replaces the seed instead of adding to it, so undo cannot go
// back past the state that followed the first edit. It is safe for concurrent use.
type History struct {
	cfg     Config
	mu      sync.Mutex
	entries []string
	index   int
	dirty   bool
	bytes   int
}

// New returns an empty history.
func New(cfg Config) *History {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	return &History{cfg: cfg, index: -1}
}

// Seed discards all entries and starts over from snapshot s, marking the page clean.
func (h *History) Seed(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seedLocked(s)
	h.dirty = false
}

func (h *History) seedLocked(s string) {
	h.entries = []string{s}
	h.index = 0
	h.bytes = len(s)
}

// Commit records snapshot s. It reports false when s equals the current
// entry, in which case nothing changes. Any redo tail is discarded.
func (h *History) Commit(s string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= 0 && h.entries[h.index] == s {
		return false
	}
	if !h.dirty || h.index < 0 {
		h.seedLocked(s)
		h.dirty = true
		return true
	}
	for _, e := range h.entries[h.index+1:] {
		h.bytes -= len(e)
	}
	h.entries = append(h.entries[:h.index+1], s)
	h.index++
	h.bytes += len(s)
	h.enforceCapsLocked()
	return true
}

// Undo moves one entry back and returns it. It is a no-op on a clean page or
// at the oldest entry.
func (h *History) Undo() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.dirty || h.index <= 0 {
		return "", false
	}
	h.index--
	return h.entries[h.index], true
}

// Redo moves one entry forward and returns it. It is a no-op at the newest entry.
func (h *History) Redo() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 || h.index >= len(h.entries)-1 {
		return "", false
	}
	h.index++
	return h.entries[h.index], true
}

// Current returns the snapshot at the current index.
func (h *History) Current() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		return "", false
	}
	return h.entries[h.index], true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dirty && h.index > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index >= 0 && h.index < len(h.entries)-1
}

// Dirty reports whether anything was committed since the last Seed.
func (h *History) Dirty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dirty
}

// Stats returns current sizes for diagnostics.
func (h *History) Stats() (totalBytes, entries, index int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bytes, len(h.entries), h.index
}

func (h *History) enforceCapsLocked() {
	drop := len(h.entries) - h.cfg.MaxEntries
	for h.cfg.MaxBytes > 0 && h.index-drop > 0 && h.bytes-h.prefixBytesLocked(max(drop, 0)) > h.cfg.MaxBytes {
		drop = max(drop, 0) + 1
	}
	if drop <= 0 {
		return
	}
	h.bytes -= h.prefixBytesLocked(drop)
	h.entries = append([]string(nil), h.entries[drop:]...)
	h.index -= drop
}

func (h *History) prefixBytesLocked(n int) int {
	b := 0
	for _, e := range h.entries[:n] {
		b += len(e)
	}
	return b
}
