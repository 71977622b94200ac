/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"proposalwriter/internal/domain"
)

func TestDetectAndRebuildIndex_OnCorruption(t *testing.T) {
	root := t.TempDir()
	scene := `{"version":"1","objects":[]}`
	proj := domain.Project{
		Name:  "CorruptTest",
		Pages: []domain.Page{domain.Page{ID: "p1", Name: "One"}.WithScene(scene), {ID: "p2", Name: "Two"}},
	}
	if _, err := InitProject(root, proj); err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	idx := IndexPath(root)
	removeIndexFiles(idx)
	if err := os.WriteFile(idx, []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rebuilt, err := DetectAndRebuildIndex(ctx, root, proj)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if !rebuilt {
		t.Fatalf("expected rebuild to occur")
	}
	entries, _ := os.ReadDir(filepath.Join(root, IndexDirName, "backups"))
	if len(entries) == 0 {
		t.Fatalf("expected backup of the corrupt index")
	}
	// Pages with a saved scene are reseeded into history.
	ph := &ProjectHandle{Root: root, ManifestPath: filepath.Join(root, ManifestFileName)}
	blob, _, err := GetLatestSnapshot(ctx, ph, "p1")
	if err != nil || string(blob) != scene {
		t.Fatalf("expected reseeded snapshot, got %q err %v", blob, err)
	}
	if blob, _, _ := GetLatestSnapshot(ctx, ph, "p2"); blob != nil {
		t.Fatalf("fresh page should have no history")
	}
}

func TestDetectAndRebuildIndex_HealthyIsNoop(t *testing.T) {
	root := t.TempDir()
	proj := domain.Project{Name: "Healthy"}
	if _, err := InitProject(root, proj); err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(context.Background(), root, proj)
	if err != nil || rebuilt {
		t.Fatalf("expected no rebuild, got %v err %v", rebuilt, err)
	}
}
