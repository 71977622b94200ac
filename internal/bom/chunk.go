/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bom lays out bill-of-materials rows as primitive scene nodes and
// paginates long tables. Everything here is pure and synchronous.
package bom

import (
	"strings"
	"unicode/utf8"

	"proposalwriter/internal/domain"
	"proposalwriter/internal/scene"
)

// Page geometry shared with the editor, in scene pixels.
const (
	TopMargin    = 140.0
	HeaderHeight = 16.0
	BottomMargin = 120.0

	MinRowHeight  = 16.0
	LineHeight    = 12.0
	RowPadding    = 4.0
	WrapWidth     = 42
	FontSize      = 10.0
	TotalRowLabel = "Grand Total"
)

// PrintableHeight is the vertical space available to body rows on one page.
const PrintableHeight = scene.PageHeight - TopMargin - HeaderHeight - BottomMargin

// WrapDescription greedily packs words into lines of at most WrapWidth
// characters. A longer word occupies a line on its own. The result always
// has at least one line.
func WrapDescription(desc string) []string {
	var lines []string
	cur := ""
	for _, w := range strings.Fields(desc) {
		switch {
		case cur == "":
			cur = w
		case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(w) <= WrapWidth:
			cur += " " + w
		default:
			lines = append(lines, cur)
			cur = w
		}
	}
	if cur != "" || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}

// RowHeight is the pixel height of one body row.
func RowHeight(r domain.Row) float64 {
	return max(MinRowHeight, float64(len(WrapDescription(r.Description)))*LineHeight+RowPadding)
}

// ChunkRows splits rows into page-sized chunks. A chunk grows until the next
// row would overflow PrintableHeight; a row taller than a whole page still gets
// a chunk of its own. At least one (possibly empty) chunk is returned.
func ChunkRows(rows []domain.Row) [][]domain.Row {
	chunks := [][]domain.Row{}
	var cur []domain.Row
	used := 0.0
	for _, r := range rows {
		h := RowHeight(r)
		if len(cur) > 0 && used+h > PrintableHeight {
			chunks = append(chunks, cur)
			cur, used = nil, 0
		}
		cur = append(cur, r)
		used += h
	}
	if len(cur) > 0 || len(chunks) == 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}
