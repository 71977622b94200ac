/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pageload

import (
	"proposalwriter/internal/domain"
	"proposalwriter/internal/geom"
	"proposalwriter/internal/scene"
)

// Content area margins used by default layouts.
const (
	MarginTop    = 140.0
	MarginBottom = 120.0
	MarginSide   = 40.0
	SlotGap      = 16.0
)

// ContentArea is the region default images are placed in.
func ContentArea() geom.Rect {
	return geom.R(MarginSide, MarginTop, scene.PageWidth-2*MarginSide, scene.PageHeight-MarginTop-MarginBottom)
}

// Slots returns n placement rectangles for the layout inside area.
func Slots(layout domain.Layout, n int, area geom.Rect) []geom.Rect {
	if n <= 0 {
		return nil
	}
	if layout == "" {
		layout = domain.LayoutSingle
		if n > 1 {
			layout = domain.LayoutGrid2Col
		}
	}
	switch layout {
	case domain.LayoutSingle:
		if n == 1 {
			return []geom.Rect{area}
		}
		return grid(area, n, 2)
	case domain.LayoutStack:
		return grid(area, n, 1)
	case domain.LayoutWallGrid:
		return grid(area, n, 3)
	case domain.LayoutHeroThree:
		return heroAndRow(area, n, 0.6)
	case domain.LayoutTopGrid:
		if n == 1 {
			return []geom.Rect{area}
		}
		top, rest := splitV(area, 0.5)
		return append([]geom.Rect{top}, grid(rest, n-1, 2)...)
	default:
		return grid(area, n, 2)
	}
}

func splitV(area geom.Rect, frac float64) (geom.Rect, geom.Rect) {
	h := (area.H - SlotGap) * frac
	top := geom.R(area.X, area.Y, area.W, h)
	rest := geom.R(area.X, area.Y+h+SlotGap, area.W, area.H-h-SlotGap)
	return top, rest
}

func heroAndRow(area geom.Rect, n int, frac float64) []geom.Rect {
	if n == 1 {
		return []geom.Rect{area}
	}
	top, rest := splitV(area, frac)
	return append([]geom.Rect{top}, grid(rest, n-1, n-1)...)
}

// grid fills area row-major with cols columns and as many rows as needed.
func grid(area geom.Rect, n, cols int) []geom.Rect {
	cols = max(1, min(cols, n))
	rows := (n + cols - 1) / cols
	w := (area.W - SlotGap*float64(cols-1)) / float64(cols)
	h := (area.H - SlotGap*float64(rows-1)) / float64(rows)
	out := make([]geom.Rect, 0, n)
	for i := 0; i < n; i++ {
		r, c := i/cols, i%cols
		out = append(out, geom.R(area.X+float64(c)*(w+SlotGap), area.Y+float64(r)*(h+SlotGap), w, h))
	}
	return out
}

// Contain scales a w x h source into slot keeping its aspect ratio and
// centers it. It returns the displayed rectangle and the uniform scale.
func Contain(w, h float64, slot geom.Rect) (geom.Rect, float64) {
	if w <= 0 || h <= 0 {
		return slot, 1
	}
	s := min(slot.W/w, slot.H/h)
	dw, dh := w*s, h*s
	return geom.R(slot.X+(slot.W-dw)/2, slot.Y+(slot.H-dh)/2, dw, dh), s
}
