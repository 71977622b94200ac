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
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"proposalwriter/internal/bom"
	"proposalwriter/internal/domain"
	applog "proposalwriter/internal/log"
	"proposalwriter/internal/scene"
)

var (
	// ErrLastPage is returned when deleting the only page of a proposal.
	ErrLastPage = errors.New("cannot delete the last page")
	// ErrPageNotFound is returned for unknown page ids.
	ErrPageNotFound = errors.New("page not found")
)

// NewPageID returns a fresh page identifier.
func NewPageID() string { return uuid.NewString() }

// Page returns a copy of the page with id.
func Page(ph *ProjectHandle, id string) (domain.Page, error) {
	if ph == nil {
		return domain.Page{}, errors.New("project handle is nil")
	}
	ph.mu.Lock()
	defer ph.mu.Unlock()
	i := ph.Project.PageIndex(id)
	if i < 0 {
		return domain.Page{}, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	return ph.Project.Pages[i], nil
}

// PageAt returns a copy of the page at 1-based position n.
func PageAt(ph *ProjectHandle, n int) (domain.Page, error) {
	if ph == nil {
		return domain.Page{}, errors.New("project handle is nil")
	}
	ph.mu.Lock()
	defer ph.mu.Unlock()
	if n < 1 || n > len(ph.Project.Pages) {
		return domain.Page{}, fmt.Errorf("%w: number %d of %d", ErrPageNotFound, n, len(ph.Project.Pages))
	}
	return ph.Project.Pages[n-1], nil
}

// AddPage inserts a blank page after the page with id after, or appends when
// after is empty. The manifest is changed in memory only.
func AddPage(ph *ProjectHandle, name string, layout domain.Layout, after string) (domain.Page, error) {
	if ph == nil {
		return domain.Page{}, errors.New("project handle is nil")
	}
	ph.mu.Lock()
	defer ph.mu.Unlock()
	at := len(ph.Project.Pages)
	if after != "" {
		i := ph.Project.PageIndex(after)
		if i < 0 {
			return domain.Page{}, fmt.Errorf("%w: %s", ErrPageNotFound, after)
		}
		at = i + 1
	}
	if name == "" {
		name = fmt.Sprintf("Page %d", len(ph.Project.Pages)+1)
	}
	pg := domain.Page{ID: NewPageID(), Name: name, DefaultLayout: layout}
	ph.Project.Pages = insertPage(ph.Project.Pages, at, pg)
	return pg, nil
}

// DuplicatePage inserts a copy of the page right after it. The copy gets a new
// id and keeps the saved scene and default images.
func DuplicatePage(ph *ProjectHandle, id string) (domain.Page, error) {
	if ph == nil {
		return domain.Page{}, errors.New("project handle is nil")
	}
	ph.mu.Lock()
	defer ph.mu.Unlock()
	i := ph.Project.PageIndex(id)
	if i < 0 {
		return domain.Page{}, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	src := ph.Project.Pages[i]
	cp := src
	cp.ID = NewPageID()
	cp.Name = src.Name + " (copy)"
	if src.FabricJSON != nil {
		cp = cp.WithScene(*src.FabricJSON)
	}
	cp.DefaultImages = cloneDefaults(src.DefaultImages)
	if src.DefaultImage != nil {
		d := cloneDefaults([]domain.DefaultImage{*src.DefaultImage})[0]
		cp.DefaultImage = &d
	}
	ph.Project.Pages = insertPage(ph.Project.Pages, i+1, cp)
	return cp, nil
}

// DeletePage removes a page. A proposal always keeps at least one page.
func DeletePage(ph *ProjectHandle, id string) error {
	if ph == nil {
		return errors.New("project handle is nil")
	}
	ph.mu.Lock()
	defer ph.mu.Unlock()
	i := ph.Project.PageIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	if len(ph.Project.Pages) <= 1 {
		return ErrLastPage
	}
	ph.Project.Pages = append(ph.Project.Pages[:i], ph.Project.Pages[i+1:]...)
	return nil
}

// MovePage moves the page to 0-based position to, clamped to the page range.
func MovePage(ph *ProjectHandle, id string, to int) error {
	if ph == nil {
		return errors.New("project handle is nil")
	}
	ph.mu.Lock()
	defer ph.mu.Unlock()
	i := ph.Project.PageIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	n := len(ph.Project.Pages)
	if to < 0 {
		to = 0
	}
	if to > n-1 {
		to = n - 1
	}
	if to == i {
		return nil
	}
	pg := ph.Project.Pages[i]
	rest := append(ph.Project.Pages[:i:i], ph.Project.Pages[i+1:]...)
	ph.Project.Pages = insertPage(rest, to, pg)
	return nil
}

// ImportTable stores the bill of materials and replaces previously generated
// table pages with fresh ones at the end of the proposal. It returns the new pages.
func ImportTable(ph *ProjectHandle, t domain.TableData, ids scene.IDGenerator) ([]domain.Page, error) {
	if ph == nil {
		return nil, errors.New("project handle is nil")
	}
	if ids == nil {
		ids = scene.UUIDGenerator{}
	}
	created := bom.CreatePages(t, ids)
	ph.mu.Lock()
	defer ph.mu.Unlock()
	kept := ph.Project.Pages[:0:0]
	for _, pg := range ph.Project.Pages {
		if pg.Kind != domain.PageKindBOM {
			kept = append(kept, pg)
		}
	}
	tc := t
	tc.Rows = append([]domain.Row(nil), t.Rows...)
	ph.Project.Table = &tc
	ph.Project.Pages = append(kept, created...)
	return created, nil
}

// CommitPage stores a page's serialized scene, saves the manifest and appends
// the scene to the page history, pruned to HistoryCap. Cached previews of the
// page are dropped. Index failures are logged; only manifest failures are returned.
func CommitPage(ctx context.Context, ph *ProjectHandle, pageID, sceneJSON string) error {
	if ph == nil {
		return errors.New("project handle is nil")
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "commit_page").With(slog.String("page", pageID))
	ph.mu.Lock()
	i := ph.Project.PageIndex(pageID)
	if i < 0 {
		ph.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	if ph.Project.Pages[i].FabricJSON != nil && *ph.Project.Pages[i].FabricJSON == sceneJSON {
		ph.mu.Unlock()
		return nil
	}
	ph.Project.Pages[i] = ph.Project.Pages[i].WithScene(sceneJSON)
	err := ph.saveLocked()
	ph.mu.Unlock()
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if err := SaveSnapshot(ctx, ph, pageID, []byte(sceneJSON), "commit", time.Now()); err != nil {
		l.WarnContext(ctx, "snapshot failed", slog.Any("err", err))
		return nil
	}
	if n, err := PruneOldSnapshots(ctx, ph, pageID, HistoryCap); err != nil {
		l.WarnContext(ctx, "prune snapshots failed", slog.Any("err", err))
	} else if n > 0 {
		l.DebugContext(ctx, "pruned snapshots", slog.Int64("deleted", n))
	}
	if err := InvalidatePreviews(ctx, ph.Root, pageID); err != nil {
		l.WarnContext(ctx, "invalidate previews failed", slog.Any("err", err))
	}
	return nil
}

// PurgePageIndex drops history and previews of a deleted page.
func PurgePageIndex(ctx context.Context, ph *ProjectHandle, pageID string) error {
	if err := DeleteSnapshots(ctx, ph, pageID); err != nil {
		return err
	}
	return InvalidatePreviews(ctx, ph.Root, pageID)
}

func insertPage(pages []domain.Page, at int, pg domain.Page) []domain.Page {
	pages = append(pages, domain.Page{})
	copy(pages[at+1:], pages[at:])
	pages[at] = pg
	return pages
}

func cloneDefaults(in []domain.DefaultImage) []domain.DefaultImage {
	if in == nil {
		return nil
	}
	out := make([]domain.DefaultImage, len(in))
	for i, d := range in {
		d.Notes = append([]domain.Note(nil), d.Notes...)
		out[i] = d
	}
	return out
}
