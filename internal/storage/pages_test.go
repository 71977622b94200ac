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
	"errors"
	"strings"
	"testing"

	"proposalwriter/internal/domain"
	"proposalwriter/internal/scene"
)

func newProject(t *testing.T) *ProjectHandle {
	t.Helper()
	ph, err := InitProject(t.TempDir(), domain.Project{Name: "Pages"})
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	return ph
}

func pageIDs(ph *ProjectHandle) []string {
	var out []string
	for _, p := range ph.Project.Pages {
		out = append(out, p.ID)
	}
	return out
}

func TestAddPageAppendsAndInsertsAfter(t *testing.T) {
	ph := newProject(t)
	first := ph.Project.Pages[0].ID
	last, err := AddPage(ph, "", domain.LayoutGrid2Col, "")
	if err != nil {
		t.Fatalf("AddPage: %v", err)
	}
	if last.Name != "Page 2" || last.DefaultLayout != domain.LayoutGrid2Col {
		t.Fatalf("unexpected page: %+v", last)
	}
	mid, err := AddPage(ph, "Scope", "", first)
	if err != nil {
		t.Fatalf("AddPage after: %v", err)
	}
	ids := pageIDs(ph)
	if len(ids) != 3 || ids[0] != first || ids[1] != mid.ID || ids[2] != last.ID {
		t.Fatalf("unexpected order: %v", ids)
	}
	if _, err := AddPage(ph, "", "", "missing"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestDuplicatePageCopiesSceneWithNewID(t *testing.T) {
	ph := newProject(t)
	src := &ph.Project.Pages[0]
	*src = src.WithScene(`{"version":"1","objects":[]}`)
	src.DefaultImages = []domain.DefaultImage{{URL: "a.png", Notes: []domain.Note{{Text: "n", X: 0.5, Y: 0.5}}}}

	cp, err := DuplicatePage(ph, src.ID)
	if err != nil {
		t.Fatalf("DuplicatePage: %v", err)
	}
	if cp.ID == ph.Project.Pages[0].ID {
		t.Fatalf("copy must get a new id")
	}
	if !strings.HasSuffix(cp.Name, "(copy)") {
		t.Fatalf("unexpected copy name %q", cp.Name)
	}
	if cp.SceneJSON() != ph.Project.Pages[0].SceneJSON() {
		t.Fatalf("scene not copied")
	}
	// Mutating the copy's notes must not reach the source.
	ph.Project.Pages[1].DefaultImages[0].Notes[0].Text = "changed"
	if ph.Project.Pages[0].DefaultImages[0].Notes[0].Text != "n" {
		t.Fatalf("notes shared between source and copy")
	}
	if ph.Project.Pages[1].ID != cp.ID {
		t.Fatalf("copy should follow the source")
	}
}

func TestDeletePageKeepsAtLeastOne(t *testing.T) {
	ph := newProject(t)
	only := ph.Project.Pages[0].ID
	if err := DeletePage(ph, only); !errors.Is(err, ErrLastPage) {
		t.Fatalf("expected ErrLastPage, got %v", err)
	}
	p2, _ := AddPage(ph, "", "", "")
	if err := DeletePage(ph, only); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if ids := pageIDs(ph); len(ids) != 1 || ids[0] != p2.ID {
		t.Fatalf("unexpected pages after delete: %v", ids)
	}
}

func TestMovePageClamps(t *testing.T) {
	ph := newProject(t)
	a := ph.Project.Pages[0].ID
	b, _ := AddPage(ph, "", "", "")
	c, _ := AddPage(ph, "", "", "")
	if err := MovePage(ph, c.ID, 0); err != nil {
		t.Fatalf("MovePage: %v", err)
	}
	if ids := pageIDs(ph); ids[0] != c.ID || ids[1] != a || ids[2] != b.ID {
		t.Fatalf("unexpected order after move to front: %v", ids)
	}
	if err := MovePage(ph, c.ID, 99); err != nil {
		t.Fatalf("MovePage: %v", err)
	}
	if ids := pageIDs(ph); ids[2] != c.ID || ids[0] != a {
		t.Fatalf("unexpected order after move to end: %v", ids)
	}
}

func TestImportTableReplacesGeneratedPages(t *testing.T) {
	ph := newProject(t)
	ids := &scene.SequenceGenerator{Prefix: "bom"}
	table := domain.TableData{Rows: []domain.Row{{Part: "P1", Description: "Panel", UnitPrice: 10, Qty: 2, Total: 20}}, GrandTotal: 20}
	created, err := ImportTable(ph, table, ids)
	if err != nil {
		t.Fatalf("ImportTable: %v", err)
	}
	if len(created) != 1 || created[0].Kind != domain.PageKindBOM || created[0].SceneJSON() == "" {
		t.Fatalf("unexpected generated pages: %+v", created)
	}
	if _, err := ImportTable(ph, table, ids); err != nil {
		t.Fatalf("ImportTable again: %v", err)
	}
	if len(ph.Project.Pages) != 2 {
		t.Fatalf("re-import should replace the table page, got %d pages", len(ph.Project.Pages))
	}
	if ph.Project.Pages[1].ID != "bom-2" {
		t.Fatalf("expected the fresh table page, got %s", ph.Project.Pages[1].ID)
	}
	if ph.Project.Table == nil || ph.Project.Table.GrandTotal != 20 {
		t.Fatalf("table not stored on the project")
	}
}

func TestCommitPageSavesManifestAndHistory(t *testing.T) {
	ph := newProject(t)
	ctx := context.Background()
	id := ph.Project.Pages[0].ID
	if err := PutPreview(ctx, ph.Root, id, PreviewKindThumb, 10, 10, []byte("png")); err != nil {
		t.Fatalf("PutPreview: %v", err)
	}
	for i, js := range []string{`{"objects":[]}`, `{"objects":[]}`, `{"objects":[{"type":"rect"}]}`} {
		if err := CommitPage(ctx, ph, id, js); err != nil {
			t.Fatalf("CommitPage %d: %v", i, err)
		}
	}
	opened, err := Open(ph.Root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := opened.Project.Pages[0].SceneJSON(); got != `{"objects":[{"type":"rect"}]}` {
		t.Fatalf("manifest not updated: %s", got)
	}
	list, err := ListSnapshots(ctx, ph, id, 10)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	// Identical consecutive commits are stored once.
	if len(list) != 2 || list[0].Reason != "commit" {
		t.Fatalf("expected 2 snapshots, got %d", len(list))
	}
	if b, _ := GetPreview(ctx, ph.Root, id, PreviewKindThumb, 10, 10); b != nil {
		t.Fatalf("preview should be invalidated by a commit")
	}
	if err := CommitPage(ctx, ph, "missing", "{}"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestPurgePageIndex(t *testing.T) {
	ph := newProject(t)
	ctx := context.Background()
	id := ph.Project.Pages[0].ID
	if err := CommitPage(ctx, ph, id, `{"objects":[]}`); err != nil {
		t.Fatalf("CommitPage: %v", err)
	}
	if err := PurgePageIndex(ctx, ph, id); err != nil {
		t.Fatalf("PurgePageIndex: %v", err)
	}
	if blob, _, err := GetLatestSnapshot(ctx, ph, id); err != nil || blob != nil {
		t.Fatalf("expected no history after purge, got %q err %v", blob, err)
	}
}
