/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"strconv"
	"testing"
)

func TestFirstCommitReplacesSeed(t *testing.T) {
	h := New(Config{})
	h.Seed("empty")
	if h.CanUndo() {
		t.Fatalf("fresh history must not undo")
	}
	if !h.Commit("one-text") {
		t.Fatalf("first commit should be recorded")
	}
	if _, ok := h.Undo(); ok {
		t.Fatalf("undo right after the first commit must be a no-op")
	}
	if cur, _ := h.Current(); cur != "one-text" {
		t.Fatalf("current = %q", cur)
	}
	h.Commit("two-texts")
	s, ok := h.Undo()
	if !ok || s != "one-text" {
		t.Fatalf("undo expected 'one-text', got ok=%v %q", ok, s)
	}
	s, ok = h.Redo()
	if !ok || s != "two-texts" {
		t.Fatalf("redo expected 'two-texts', got ok=%v %q", ok, s)
	}
	if _, ok := h.Redo(); ok {
		t.Fatalf("redo at the newest entry must be a no-op")
	}
}

func TestIdenticalCommitsCoalesce(t *testing.T) {
	h := New(Config{})
	h.Seed("a")
	if h.Commit("a") {
		t.Fatalf("commit equal to the seed must be ignored")
	}
	h.Commit("b")
	h.Commit("c")
	if h.Commit("c") {
		t.Fatalf("repeated snapshot must be ignored")
	}
	if _, n, _ := h.Stats(); n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}
}

func TestCommitTruncatesRedo(t *testing.T) {
	h := New(Config{})
	h.Seed("s")
	for _, s := range []string{"a", "b", "c"} {
		h.Commit(s)
	}
	h.Undo()
	h.Undo()
	h.Commit("x")
	if h.CanRedo() {
		t.Fatalf("redo tail should be gone")
	}
	if _, n, idx := h.Stats(); n != 2 || idx != 1 {
		t.Fatalf("expected [a x] at index 1, got n=%d idx=%d", n, idx)
	}
}

func TestHistoryBound(t *testing.T) {
	h := New(Config{MaxEntries: 50})
	h.Seed("seed")
	for i := 0; i < 75; i++ {
		h.Commit("state-" + strconv.Itoa(i))
	}
	if _, n, _ := h.Stats(); n != 50 {
		t.Fatalf("expected 50 retained entries, got %d", n)
	}
	undos := 0
	for i := 0; i < 60; i++ {
		if _, ok := h.Undo(); ok {
			undos++
		}
	}
	if undos != 49 {
		t.Fatalf("expected 49 successful undos, got %d", undos)
	}
	if cur, _ := h.Current(); cur != "state-25" {
		t.Fatalf("oldest retained = %q, want state-25", cur)
	}
}

func TestByteCapKeepsCurrent(t *testing.T) {
	h := New(Config{MaxEntries: 10, MaxBytes: 12})
	h.Seed("")
	for _, s := range []string{"aaaa", "bbbb", "cccc", "dddd", "eeeeeeeeeeeeeeee"} {
		h.Commit(s)
	}
	tb, n, idx := h.Stats()
	if n != 1 || idx != 0 || tb != 16 {
		t.Fatalf("expected only the oversized current entry, got bytes=%d n=%d idx=%d", tb, n, idx)
	}
	if cur, _ := h.Current(); cur != "eeeeeeeeeeeeeeee" {
		t.Fatalf("current entry was dropped")
	}
}

func TestSeedResetsDirty(t *testing.T) {
	h := New(Config{})
	h.Seed("a")
	h.Commit("b")
	h.Commit("c")
	h.Seed("z")
	if h.Dirty() || h.CanUndo() || h.CanRedo() {
		t.Fatalf("seed must reset history state")
	}
}
