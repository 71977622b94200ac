/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"proposalwriter/internal/bom"
	"proposalwriter/internal/domain"
	"proposalwriter/internal/scene"
)

func textPage(t *testing.T) domain.Page {
	t.Helper()
	g := scene.NewGraph()
	plain := scene.NewText("Scope of work", 100, 300, 300, 18)
	rotated := scene.NewText("Rotated note", 100, 500, 300, 18)
	rotated.Angle = 30
	dimmed := scene.NewText("Dimmed", 100, 700, 300, 18)
	dimmed.Opacity = 0.1
	dimmed.Data.ObjectDimmed = true
	g.Add(plain, rotated, dimmed)
	js, err := g.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	return domain.Page{ID: "p1", Name: "Intro"}.WithScene(js)
}

func newTestComposer() *Composer {
	c := NewComposer(nil)
	c.Now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestPlanOverlaySkipsRotatedText(t *testing.T) {
	c := newTestComposer()
	g := c.BuildPageGraph(context.Background(), textPage(t), PageOptions{
		Project:  domain.ProjectInfo{ProjectName: "Villa"},
		Branding: domain.Branding{HeaderText: "Proposal"},
	})
	ov := PlanOverlay(g)
	if len(ov.Texts) != 2 {
		t.Fatalf("overlay texts = %d, want 2", len(ov.Texts))
	}
	for _, o := range ov.Texts {
		if o.Text == "Rotated note" {
			t.Fatalf("rotated text in vector overlay")
		}
		if !ov.Hidden(o) {
			t.Fatalf("overlay text %q still rasterized", o.Text)
		}
	}
	for _, o := range g.Objects {
		if o.IsText() && o.Text == "Rotated note" && ov.Hidden(o) {
			t.Fatalf("rotated text hidden from raster")
		}
	}
	if ov.Header == nil || !ov.Hidden(ov.Header) {
		t.Fatalf("header must be vector")
	}
	if ov.Table != nil {
		t.Fatalf("unexpected table")
	}
}

func TestDimmingNeverReachesExport(t *testing.T) {
	g := newTestComposer().BuildPageGraph(context.Background(), textPage(t), PageOptions{})
	for _, o := range g.Objects {
		if o.Data.ObjectDimmed && o.Opacity != 1 {
			t.Fatalf("dimmed node exported at opacity %v", o.Opacity)
		}
	}
}

func TestPixelToPointMapping(t *testing.T) {
	x, y := pageFrame.pt(scene.PageWidth, scene.PageHeight)
	if math.Abs(x-PageWidthPt) > 1e-9 || math.Abs(y-PageHeightPt) > 1e-9 {
		t.Fatalf("corner maps to %v,%v", x, y)
	}
	x, _ = pageFrame.pt(100, 0)
	if math.Abs(x-100*595.0/794.0) > 1e-9 {
		t.Fatalf("x = %v", x)
	}
}

func TestExportPagesAsPDFDrawsVectorText(t *testing.T) {
	c := newTestComposer()
	var buf bytes.Buffer
	err := c.ExportPagesAsPDF(context.Background(), &buf, []domain.Page{textPage(t)}, PDFOptions{
		Project:       domain.ProjectInfo{ProjectName: "Villa", CustomerName: "ACME"},
		Branding:      domain.Branding{HeaderText: "Proposal"},
		Scale:         0.5,
		NoCompression: true,
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "%PDF-") {
		t.Fatalf("not a pdf")
	}
	if !strings.Contains(out, "(Scope of work) Tj") {
		t.Fatalf("unrotated text missing from vector layer")
	}
	if strings.Contains(out, "(Rotated note) Tj") {
		t.Fatalf("rotated text drawn as vector")
	}
	if !strings.Contains(out, "(Proposal) Tj") {
		t.Fatalf("header missing from vector layer")
	}
	if !strings.Contains(out, "(Villa) Tj") {
		t.Fatalf("cover title missing")
	}
}

func bomTablePage(t *testing.T) domain.Page {
	t.Helper()
	rows := []domain.Row{
		{Part: "P-1", Description: "Wall panel", UnitPrice: 10, Qty: 2, Total: 20},
		{Part: "P-2", Description: "Door", UnitPrice: 100, Qty: 1, Total: 100},
	}
	return bom.CreatePages(domain.TableData{Rows: rows, GrandTotal: 120}, &scene.SequenceGenerator{Prefix: "bom"})[0]
}

func TestTableRedrawnFromRows(t *testing.T) {
	c := newTestComposer()
	g := c.BuildPageGraph(context.Background(), bomTablePage(t), PageOptions{})
	ov := PlanOverlay(g)
	if ov.Table == nil || !ov.Hidden(ov.Table) {
		t.Fatalf("table not planned as vector")
	}
	if len(ov.Rows) != 2 || ov.GrandTotal != 120 || !ov.IncludeTotal {
		t.Fatalf("rows=%d total=%v include=%v", len(ov.Rows), ov.GrandTotal, ov.IncludeTotal)
	}

	var buf bytes.Buffer
	if err := c.ExportPagesAsPDF(context.Background(), &buf, []domain.Page{bomTablePage(t)}, PDFOptions{NoCover: true, Scale: 0.5, NoCompression: true}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(buf.String(), "(Wall panel) Tj") {
		t.Fatalf("table text missing from vector layer")
	}
}

func TestRenderPageToImage(t *testing.T) {
	b, err := newTestComposer().RenderPageToImage(context.Background(), textPage(t), PageOptions{Scale: 0.5})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 397 || img.Bounds().Dy() != 562 {
		t.Fatalf("size = %v", img.Bounds())
	}
}

func TestPDFFileName(t *testing.T) {
	if got := PDFFileName(time.UnixMilli(1700000000000)); got != "proposal-1700000000000.pdf" {
		t.Fatalf("name = %q", got)
	}
}

func TestExportRejectsEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestComposer().ExportPagesAsPDF(context.Background(), &buf, nil, PDFOptions{}); err == nil {
		t.Fatalf("expected error")
	}
}
