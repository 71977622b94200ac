/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bom

import (
	"slices"

	"proposalwriter/internal/domain"
	"proposalwriter/internal/geom"
	"proposalwriter/internal/scene"
)

// Consolidate gathers loose top-level bom- parts into a single locked
// bom-table-group placed where the first part was in the stack. Existing
// table groups are never merged: each one keeps its own rows and flags and
// only gets its transform reset to scale 1 and angle 0 and its locks
// restored. Calling it again on the result changes nothing. It returns the
// new group, or the first existing one, and reports whether the graph changed.
func Consolidate(g *scene.Graph) (*scene.Object, bool) {
	var loose, groups []*scene.Object
	first := -1
	for i, o := range g.Objects {
		switch {
		case o.IsBOMGroup():
			groups = append(groups, o)
		case o.IsBOM():
			loose = append(loose, o)
			if first < 0 {
				first = i
			}
		}
	}
	changed := false
	for _, grp := range groups {
		if normalizeTransform(grp) {
			changed = true
		}
		lockGroup(grp)
	}
	if len(loose) == 0 {
		if len(groups) > 0 {
			return groups[0], changed
		}
		return nil, changed
	}

	boxes := make([]geom.Rect, len(loose))
	for i, p := range loose {
		normalizeTransform(p)
		boxes[i] = p.Box()
	}
	bounds, _ := geom.UnionAll(boxes)
	for _, p := range loose {
		p.MoveBy(-bounds.X, -bounds.Y)
	}
	grp := scene.NewGroup(bounds.X, bounds.Y, bounds.W, bounds.H, loose...)
	grp.Data = scene.Meta{ID: scene.IDBOMGroup}
	lockGroup(grp)

	g.RemoveFunc(func(o *scene.Object) bool { return slices.Contains(loose, o) })
	g.Insert(min(first, len(g.Objects)), grp)
	return grp, true
}

func normalizeTransform(o *scene.Object) bool {
	if o.ScaleX == 1 && o.ScaleY == 1 && o.Angle == 0 {
		return false
	}
	o.ScaleX, o.ScaleY, o.Angle = 1, 1, 0
	return true
}

// lockGroup makes a table group movable but never resizable or rotatable.
func lockGroup(grp *scene.Object) {
	grp.LockScalingX = true
	grp.LockScalingY = true
	grp.LockRotation = true
	grp.HasControls = false
	grp.Selectable = true
	grp.Evented = true
	if grp.Data.UserLocked || grp.Data.ObjectDimmed {
		grp.LockMovementX = true
		grp.LockMovementY = true
	}
	for _, ch := range grp.Children() {
		ch.Selectable = false
		ch.Evented = false
	}
}

// Table returns the first table group in g, or nil.
func Table(g *scene.Graph) *scene.Object { return g.Find(scene.IDBOMGroup) }

// NewTableGroup lays out rows and returns them as one user-placed table group
// positioned as on a generated table page.
func NewTableGroup(rows []domain.Row, grandTotal float64, includeTotalRow bool) *scene.Object {
	g := scene.NewGraph()
	g.Add(BuildPageLayout(rows, grandTotal, includeTotalRow)...)
	grp, _ := Consolidate(g)
	grp.Data.BOMUserPlaced = true
	return grp
}
