/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Smart guides and snapping helpers for dragging objects on a page.
// These utilities are UI-agnostic and deterministic so the controller's drag
// handler can be unit tested without a drawing surface.

import "math"

// DefaultSnapThreshold is the distance in pixels at which a dragged box snaps.
const DefaultSnapThreshold = 6.0

// SnapOptions controls which guide candidates are considered and the threshold.
type SnapOptions struct {
	// Threshold is the maximum distance at which snapping occurs.
	Threshold float64
	// Snap to edges (left, right, top, bottom), including abutting edges.
	SnapToEdges bool
	// Snap to centers (cx, cy)
	SnapToCenters bool
}

// Anchor is a static reference rect (another object on the page).
// Weight biases selection when distances tie (higher = preferred); use 1 when unsure.
type Anchor struct {
	Rect   Rect
	Weight float64
}

const (
	Vertical   = "vertical"
	Horizontal = "horizontal"

	KindEdge       = "edge"
	KindCenter     = "center"
	KindPageCenter = "page-center"
)

// GuideLine describes a visual guide generated during a snap alignment.
// Position is the x (vertical) or y (horizontal) coordinate of the guide;
// From and To are the guide extents for rendering.
type GuideLine struct {
	Orientation string
	Kind        string
	Position    float64
	From        Pt
	To          Pt
}

// ComputeSmartGuides computes snapping adjustments for a moving rectangle
// against a set of anchors. It returns the snapped rectangle and any guide
// lines to render for visual feedback. Snapping happens independently in X and Y.
func ComputeSmartGuides(moving Rect, anchors []Anchor, opts SnapOptions) (Rect, []GuideLine) {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultSnapThreshold
	}
	var guides []GuideLine

	bestX := candidate{dist: math.Inf(1)}
	bestY := candidate{dist: math.Inf(1)}

	mL, mR, mT, mB := moving.X, moving.Right(), moving.Y, moving.Bottom()
	mCX, mCY := moving.X+moving.W/2, moving.Y+moving.H/2

	for _, a := range anchors {
		aL, aR, aT, aB := a.Rect.X, a.Rect.Right(), a.Rect.Y, a.Rect.Bottom()
		aCX, aCY := a.Rect.X+a.Rect.W/2, a.Rect.Y+a.Rect.H/2

		if opts.SnapToEdges {
			bestX.consider(mL-aL, opts.Threshold, a.Weight, func() GuideLine { return guideForVertical(aL, moving, a.Rect, KindEdge) })
			bestX.consider(mR-aR, opts.Threshold, a.Weight, func() GuideLine { return guideForVertical(aR, moving, a.Rect, KindEdge) })
			bestX.consider(mL-aR, opts.Threshold, a.Weight, func() GuideLine { return guideForVertical(aR, moving, a.Rect, KindEdge) })
			bestX.consider(mR-aL, opts.Threshold, a.Weight, func() GuideLine { return guideForVertical(aL, moving, a.Rect, KindEdge) })

			bestY.consider(mT-aT, opts.Threshold, a.Weight, func() GuideLine { return guideForHorizontal(aT, moving, a.Rect, KindEdge) })
			bestY.consider(mB-aB, opts.Threshold, a.Weight, func() GuideLine { return guideForHorizontal(aB, moving, a.Rect, KindEdge) })
			bestY.consider(mT-aB, opts.Threshold, a.Weight, func() GuideLine { return guideForHorizontal(aB, moving, a.Rect, KindEdge) })
			bestY.consider(mB-aT, opts.Threshold, a.Weight, func() GuideLine { return guideForHorizontal(aT, moving, a.Rect, KindEdge) })
		}
		if opts.SnapToCenters {
			bestX.consider(mCX-aCX, opts.Threshold, a.Weight, func() GuideLine { return guideForVertical(aCX, moving, a.Rect, KindCenter) })
			bestY.consider(mCY-aCY, opts.Threshold, a.Weight, func() GuideLine { return guideForHorizontal(aCY, moving, a.Rect, KindCenter) })
		}
	}

	snapped := moving
	if bestX.dist <= opts.Threshold {
		snapped.X = FloatRound(moving.X-bestX.delta, 3)
		guides = append(guides, bestX.guide)
	}
	if bestY.dist <= opts.Threshold {
		snapped.Y = FloatRound(moving.Y-bestY.delta, 3)
		guides = append(guides, bestY.guide)
	}
	return snapped, guides
}

type candidate struct {
	delta float64
	dist  float64
	score float64
	guide GuideLine
	set   bool
}

func (c *candidate) consider(delta, threshold, weight float64, guide func() GuideLine) {
	dist := math.Abs(delta)
	if dist > threshold {
		return
	}
	score := dist / math.Max(1, weight)
	if c.set && score >= c.score {
		return
	}
	c.delta, c.dist, c.score, c.guide, c.set = delta, dist, score, guide(), true
}

func guideForVertical(x float64, a Rect, b Rect, kind string) GuideLine {
	minY := math.Min(a.Y, b.Y)
	maxY := math.Max(a.Bottom(), b.Bottom())
	x = FloatRound(x, 3)
	return GuideLine{Orientation: Vertical, Kind: kind, Position: x, From: Pt{x, minY}, To: Pt{x, maxY}}
}

func guideForHorizontal(y float64, a Rect, b Rect, kind string) GuideLine {
	minX := math.Min(a.X, b.X)
	maxX := math.Max(a.Right(), b.Right())
	y = FloatRound(y, 3)
	return GuideLine{Orientation: Horizontal, Kind: kind, Position: y, From: Pt{minX, y}, To: Pt{maxX, y}}
}

// PageCenterSnap reports which page-center axes the box snapped to.
type PageCenterSnap struct {
	X, Y bool
}

// SnapToPageCenter snaps the box center onto the page center on each axis where
// it lies within threshold. Guides span the full page.
func SnapToPageCenter(box Rect, page Rect, threshold float64) (Rect, PageCenterSnap, []GuideLine) {
	if threshold <= 0 {
		threshold = DefaultSnapThreshold
	}
	var snap PageCenterSnap
	var guides []GuideLine
	pc := page.Center()
	bc := box.Center()
	if math.Abs(bc.X-pc.X) <= threshold {
		box.X = FloatRound(pc.X-box.W/2, 3)
		snap.X = true
		guides = append(guides, GuideLine{Orientation: Vertical, Kind: KindPageCenter, Position: pc.X, From: Pt{pc.X, page.Y}, To: Pt{pc.X, page.Bottom()}})
	}
	if math.Abs(bc.Y-pc.Y) <= threshold {
		box.Y = FloatRound(pc.Y-box.H/2, 3)
		snap.Y = true
		guides = append(guides, GuideLine{Orientation: Horizontal, Kind: KindPageCenter, Position: pc.Y, From: Pt{page.X, pc.Y}, To: Pt{page.Right(), pc.Y}})
	}
	return box, snap, guides
}

// ClampInside moves box so it lies fully inside page. A box larger than the
// page is pinned to the page's top-left corner on that axis.
func ClampInside(box Rect, page Rect) Rect {
	if box.W >= page.W {
		box.X = page.X
	} else {
		box.X = Clamp(box.X, page.X, page.Right()-box.W)
	}
	if box.H >= page.H {
		box.Y = page.Y
	} else {
		box.Y = Clamp(box.Y, page.Y, page.Bottom()-box.H)
	}
	return box
}

// EdgeDistances are the gaps between a box and each page edge.
type EdgeDistances struct {
	Left, Top, Right, Bottom float64
}

// DistancesToPage measures box against page, rounded to whole pixels for labels.
func DistancesToPage(box Rect, page Rect) EdgeDistances {
	return EdgeDistances{
		Left:   math.Round(box.X - page.X),
		Top:    math.Round(box.Y - page.Y),
		Right:  math.Round(page.Right() - box.Right()),
		Bottom: math.Round(page.Bottom() - box.Bottom()),
	}
}
