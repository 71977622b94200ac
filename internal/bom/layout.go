/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bom

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"proposalwriter/internal/domain"
	"proposalwriter/internal/scene"
)

// Column describes one table column.
type Column struct {
	Title string
	Width float64
	Align string
}

// Columns are the fixed table columns, left to right.
var Columns = []Column{
	{Title: "Part", Width: 150, Align: "left"},
	{Title: "Description", Width: 330, Align: "left"},
	{Title: "Unit Price", Width: 90, Align: "right"},
	{Title: "Qty", Width: 50, Align: "center"},
	{Title: "Total", Width: 80, Align: "right"},
}

// Column indices as stored in Meta.BOMCol (1-based).
const (
	ColPart = iota + 1
	ColDescription
	ColUnitPrice
	ColQty
	ColTotal
)

// Colors used by the table.
const (
	HeaderFill = "#f3f4f6"
	CellFill   = "#ffffff"
	TotalFill  = "#e5e7eb"
	GridStroke = "#9ca3af"
	InkColor   = "#111827"
)

const cellPadX, cellPadY = 4.0, 2.0

// TableWidth is the sum of all column widths.
func TableWidth() float64 {
	w := 0.0
	for _, c := range Columns {
		w += c.Width
	}
	return w
}

// TableLeft is the x offset that centers the table on the page.
func TableLeft() float64 { return (scene.PageWidth - TableWidth()) / 2 }

func columnX(col int) float64 {
	x := TableLeft()
	for i := 0; i < col-1; i++ {
		x += Columns[i].Width
	}
	return x
}

func printer() *message.Printer { return message.NewPrinter(language.AmericanEnglish) }

// FormatMoney renders an amount the way the table shows it, e.g. "$1,234.50".
func FormatMoney(v float64) string { return printer().Sprintf("$%.2f", v) }

// FormatQty renders a quantity with digit grouping.
func FormatQty(q int) string { return printer().Sprintf("%d", q) }

func cellText(r domain.Row, col int) string {
	switch col {
	case ColPart:
		return r.Part
	case ColDescription:
		return strings.Join(WrapDescription(r.Description), "\n")
	case ColUnitPrice:
		return FormatMoney(r.UnitPrice)
	case ColQty:
		return FormatQty(r.Qty)
	default:
		return FormatMoney(r.Total)
	}
}

func cell(id string, row, col int, x, y, w, h float64, fill string) *scene.Object {
	o := scene.NewRect(x, y, w, h, fill)
	o.Stroke = GridStroke
	o.StrokeWidth = 1
	o.Data = scene.Meta{ID: id, BOMRow: row, BOMCol: col}
	return o
}

func label(id string, row, col int, x, y, w float64, text, align string, bold bool) *scene.Object {
	o := scene.NewText(text, x+cellPadX, y+cellPadY, w-2*cellPadX, FontSize)
	o.LineHeight = LineHeight / FontSize
	o.Height = float64(strings.Count(text, "\n")+1) * LineHeight
	o.TextAlign = align
	o.Fill = InkColor
	if bold {
		o.FontWeight = "bold"
	}
	o.Data = scene.Meta{ID: id, BOMRow: row, BOMCol: col}
	return o
}

// BuildPageLayout emits the header, one line per row and optionally the totals
// row as loose rect+text nodes tagged with bom- ids. Body rows are numbered
// from 1 in Meta.BOMRow; header and totals use row 0.
func BuildPageLayout(rows []domain.Row, grandTotal float64, includeTotalRow bool) []*scene.Object {
	var out []*scene.Object
	y := TopMargin
	for i, c := range Columns {
		col := i + 1
		x := columnX(col)
		out = append(out,
			cell(scene.IDBOMHeaderCell, 0, col, x, y, c.Width, HeaderHeight, HeaderFill),
			label(scene.IDBOMHeaderText, 0, col, x, y, c.Width, c.Title, c.Align, true))
	}
	y += HeaderHeight
	for ri, r := range rows {
		h := RowHeight(r)
		for i, c := range Columns {
			col := i + 1
			x := columnX(col)
			out = append(out,
				cell(scene.IDBOMCell, ri+1, col, x, y, c.Width, h, CellFill),
				label(scene.IDBOMText, ri+1, col, x, y, c.Width, cellText(r, col), c.Align, false))
		}
		y += h
	}
	if includeTotalRow {
		span := TableWidth() - Columns[ColTotal-1].Width
		x := TableLeft()
		out = append(out,
			cell(scene.IDBOMTotalCell, 0, ColPart, x, y, span, MinRowHeight, TotalFill),
			label(scene.IDBOMTotalText, 0, ColPart, x, y, span, TotalRowLabel, "right", true),
			cell(scene.IDBOMTotalCell, 0, ColTotal, x+span, y, Columns[ColTotal-1].Width, MinRowHeight, TotalFill),
			label(scene.IDBOMTotalText, 0, ColTotal, x+span, y, Columns[ColTotal-1].Width, FormatMoney(grandTotal), "right", true))
	}
	return out
}

// HasTotalRow reports whether objs (or any group among them) carry a totals row.
func HasTotalRow(objs []*scene.Object) bool {
	found := false
	for _, o := range objs {
		o.Walk(func(n *scene.Object) {
			if n.Data.ID == scene.IDBOMTotalText {
				found = true
			}
		})
	}
	return found
}

// CreatePages returns one page per chunk with its scene pre-populated. Only
// the last page carries the totals row.
func CreatePages(t domain.TableData, ids scene.IDGenerator) []domain.Page {
	chunks := ChunkRows(t.Rows)
	pages := make([]domain.Page, 0, len(chunks))
	for i, chunk := range chunks {
		g := scene.NewGraph()
		g.Add(BuildPageLayout(chunk, t.GrandTotal, i == len(chunks)-1)...)
		name := "Bill of Materials"
		if len(chunks) > 1 {
			name = printer().Sprintf("Bill of Materials (%d/%d)", i+1, len(chunks))
		}
		// Marshal of rect and text nodes cannot fail.
		js, _ := g.Snapshot()
		pages = append(pages, domain.Page{ID: ids.NewID(), Name: name, Kind: domain.PageKindBOM}.WithScene(js))
	}
	return pages
}
