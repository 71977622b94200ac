/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bom

import (
	"fmt"
	"strings"
	"testing"

	"proposalwriter/internal/domain"
	"proposalwriter/internal/scene"
)

func twoLineRows(n int) []domain.Row {
	rows := make([]domain.Row, n)
	for i := range rows {
		rows[i] = domain.Row{
			Part:        fmt.Sprintf("SH-%03d", i+1),
			Description: "Adjustable melamine shelf with edge banding and steel pin supports",
			UnitPrice:   1234.5,
			Qty:         2,
			Total:       2469,
		}
	}
	return rows
}

func TestWrapDescription(t *testing.T) {
	lines := WrapDescription("Adjustable melamine shelf with edge banding and steel pin supports")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	for _, l := range lines {
		if len(l) > WrapWidth {
			t.Fatalf("line exceeds %d chars: %q", WrapWidth, l)
		}
	}
	if got := WrapDescription(""); len(got) != 1 || got[0] != "" {
		t.Fatalf("empty description should give one empty line, got %q", got)
	}
	long := strings.Repeat("x", 60)
	if got := WrapDescription("a " + long + " b"); len(got) != 3 || got[1] != long {
		t.Fatalf("overlong word should sit alone: %q", got)
	}
}

func TestRowHeight(t *testing.T) {
	if h := RowHeight(domain.Row{Description: "short"}); h != 16 {
		t.Fatalf("single line row = %v, want 16", h)
	}
	if h := RowHeight(twoLineRows(1)[0]); h != 28 {
		t.Fatalf("two line row = %v, want 28", h)
	}
}

func TestChunkRows_FortyRowsSplit(t *testing.T) {
	if PrintableHeight != 847 {
		t.Fatalf("PrintableHeight = %v, want 847", PrintableHeight)
	}
	chunks := ChunkRows(twoLineRows(40))
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 30 || len(chunks[1]) != 10 {
		t.Fatalf("unexpected chunk sizes %d/%d", len(chunks[0]), len(chunks[1]))
	}

	pages := CreatePages(domain.TableData{Rows: twoLineRows(40), GrandTotal: 98760}, &scene.SequenceGenerator{Prefix: "bom"})
	if len(pages) != len(chunks) {
		t.Fatalf("pages = %d, chunks = %d", len(pages), len(chunks))
	}
	for i, p := range pages {
		has := strings.Contains(p.SceneJSON(), scene.IDBOMTotalText)
		if last := i == len(pages)-1; has != last {
			t.Fatalf("page %d: totals row present=%v, want %v", i, has, last)
		}
	}
}

func TestChunkRows_EmptyYieldsOneChunk(t *testing.T) {
	chunks := ChunkRows(nil)
	if len(chunks) != 1 || len(chunks[0]) != 0 {
		t.Fatalf("expected a single empty chunk, got %v", chunks)
	}
	if pages := CreatePages(domain.TableData{}, &scene.SequenceGenerator{}); len(pages) != 1 {
		t.Fatalf("expected one page for an empty table")
	}
}

func TestCreatePagesRoundTrip(t *testing.T) {
	rows := twoLineRows(37)
	rows[3].Description = strings.Repeat("very long description ", 12)
	rows[5].Description = ""
	rows[7].Qty = 12000
	want := ChunkRows(rows)

	var rebuilt []domain.Row
	for _, p := range CreatePages(domain.TableData{Rows: rows, GrandTotal: 1}, &scene.SequenceGenerator{Prefix: "p"}) {
		g, err := scene.Parse([]byte(p.SceneJSON()))
		if err != nil {
			t.Fatalf("parse page: %v", err)
		}
		rebuilt = append(rebuilt, ExtractRows(g.Objects)...)
	}
	if len(rebuilt) != len(rows) {
		t.Fatalf("rebuilt %d rows, want %d", len(rebuilt), len(rows))
	}
	if rebuilt[7].Qty != 12000 || rebuilt[0].UnitPrice != 1234.5 {
		t.Fatalf("values not preserved: %+v", rebuilt[7])
	}
	got := ChunkRows(rebuilt)
	if len(got) != len(want) {
		t.Fatalf("chunk count %d, want %d", len(got), len(want))
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("chunk %d size %d, want %d", i, len(got[i]), len(want[i]))
		}
	}
}

func TestBuildPageLayoutGeometry(t *testing.T) {
	objs := BuildPageLayout(twoLineRows(1), 10, true)
	if TableLeft() != 47 {
		t.Fatalf("TableLeft = %v, want 47", TableLeft())
	}
	for _, o := range objs {
		if !o.IsBOM() {
			t.Fatalf("untagged object %+v", o.Data)
		}
	}
	var totalSpan float64
	for _, o := range objs {
		if o.Data.ID == scene.IDBOMTotalCell && o.Data.BOMCol == ColPart {
			totalSpan = o.Width
			if o.Top != TopMargin+HeaderHeight+28 {
				t.Fatalf("totals row top = %v", o.Top)
			}
		}
	}
	if totalSpan != 620 {
		t.Fatalf("totals label should span four columns (620), got %v", totalSpan)
	}
	if v, ok := ExtractGrandTotal(objs); !ok || v != 10 {
		t.Fatalf("grand total = %v/%v", v, ok)
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatMoney(1234.5); got != "$1,234.50" {
		t.Fatalf("FormatMoney = %q", got)
	}
	if got := FormatQty(12000); got != "12,000" {
		t.Fatalf("FormatQty = %q", got)
	}
}

func TestConsolidateIsIdempotent(t *testing.T) {
	g := scene.NewGraph()
	note := scene.NewText("intro", 40, 40, 200, 14)
	g.Add(note)
	g.Add(BuildPageLayout(twoLineRows(3), 100, true)...)
	g.Objects[3].ScaleX = 1.5
	g.Objects[4].Angle = 15

	grp, changed := Consolidate(g)
	if !changed || grp == nil {
		t.Fatalf("expected consolidation")
	}
	if len(g.Objects) != 2 || g.Objects[1] != grp {
		t.Fatalf("expected [note, group], got %d objects", len(g.Objects))
	}
	if grp.Left != 47 || grp.Top != TopMargin {
		t.Fatalf("group origin = %v,%v", grp.Left, grp.Top)
	}
	for _, ch := range grp.Children() {
		if ch.ScaleX != 1 || ch.Angle != 0 {
			t.Fatalf("transform not normalized: %+v", ch)
		}
	}
	if !grp.LockScalingX || !grp.LockRotation || grp.HasControls {
		t.Fatalf("group must not be resizable or rotatable")
	}

	n := len(g.Objects)
	children := len(grp.Children())
	if _, changed := Consolidate(g); changed {
		t.Fatalf("second consolidation must be a no-op")
	}
	if len(g.Objects) != n || len(g.Filter((*scene.Object).IsBOMGroup)) != 1 || len(grp.Children()) != children {
		t.Fatalf("second consolidation changed the graph")
	}
	if rows := ExtractRows(g.Objects); len(rows) != 3 {
		t.Fatalf("rows lost in grouping: %d", len(rows))
	}
}

func TestConsolidateKeepsTablesSeparate(t *testing.T) {
	g := scene.NewGraph()
	g.Add(BuildPageLayout(twoLineRows(3), 100, true)...)
	generated, _ := Consolidate(g)
	placed := NewTableGroup(twoLineRows(2), 1, false)
	placed.Angle = 30
	g.Add(placed)

	if _, changed := Consolidate(g); !changed {
		t.Fatalf("rotated table should be normalized")
	}
	groups := g.Filter((*scene.Object).IsBOMGroup)
	if len(groups) != 2 || groups[0] != generated || groups[1] != placed {
		t.Fatalf("tables must stay separate, got %d groups", len(groups))
	}
	if generated.Data.BOMUserPlaced || !placed.Data.BOMUserPlaced {
		t.Fatalf("user-placed flags must not leak between tables")
	}
	if placed.Angle != 0 || !placed.LockRotation {
		t.Fatalf("placed table not normalized")
	}
	if rows := ExtractRows(generated.Children()); len(rows) != 3 {
		t.Fatalf("generated table rows = %d", len(rows))
	}
	if rows := ExtractRows(placed.Children()); len(rows) != 2 {
		t.Fatalf("placed table rows = %d", len(rows))
	}
}
