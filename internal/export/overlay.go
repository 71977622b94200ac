/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"proposalwriter/internal/bom"
	"proposalwriter/internal/domain"
	"proposalwriter/internal/scene"
)

// Overlay lists what a PDF page redraws as vector content on top of its
// raster background. Nodes in the overlay are left out of the raster.
type Overlay struct {
	// Texts are unrotated, visible top-level text nodes.
	Texts []*scene.Object
	// Header is the page header decoration, always drawn as vector text.
	Header *scene.Object
	// Table is the table group redrawn from its extracted rows.
	Table        *scene.Object
	Rows         []domain.Row
	GrandTotal   float64
	IncludeTotal bool

	hidden map[*scene.Object]bool
}

// PlanOverlay decides the vector content of g. Rotated text stays raster
// only. A table whose rows cannot be read back stays raster too.
func PlanOverlay(g *scene.Graph) Overlay {
	ov := Overlay{hidden: map[*scene.Object]bool{}}
	for _, o := range g.Objects {
		if !o.Visible || o.Opacity <= 0 {
			continue
		}
		switch {
		case o.Data.ID == scene.IDHeader:
			ov.Header = o
			ov.hidden[o] = true
		case o.IsBOMGroup() && ov.Table == nil:
			rows := bom.ExtractRows(o.Children())
			if len(rows) == 0 {
				continue
			}
			ov.Table, ov.Rows = o, rows
			ov.GrandTotal, _ = bom.ExtractGrandTotal(o.Children())
			ov.IncludeTotal = bom.HasTotalRow(o.Children())
			ov.hidden[o] = true
		case o.IsText() && !o.IsDecoration() && !o.IsBOM() && !o.Rotated():
			ov.Texts = append(ov.Texts, o)
			ov.hidden[o] = true
		}
	}
	return ov
}

// Hidden reports whether o is drawn by the overlay instead of the raster.
func (ov Overlay) Hidden(o *scene.Object) bool { return ov.hidden[o] }
