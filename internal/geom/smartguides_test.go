/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "testing"

func TestComputeSmartGuides_SnapToSiblingEdges(t *testing.T) {
	sibling := Rect{X: 100, Y: 100, W: 200, H: 100}
	moving := Rect{X: 103, Y: 204, W: 80, H: 40} // left edge 3px off, top 4px below sibling bottom
	opts := SnapOptions{Threshold: 6, SnapToEdges: true}

	snapped, guides := ComputeSmartGuides(moving, []Anchor{{Rect: sibling, Weight: 1}}, opts)
	if snapped.X != 100 {
		t.Fatalf("expected X snapped to 100, got %v", snapped.X)
	}
	if snapped.Y != 200 {
		t.Fatalf("expected Y snapped to sibling bottom 200, got %v", snapped.Y)
	}
	var vOK bool
	for _, g := range guides {
		if g.Orientation == Vertical && g.Position == 100 {
			vOK = true
		}
	}
	if !vOK {
		t.Fatalf("expected vertical guide at x=100, got %+v", guides)
	}
}

func TestComputeSmartGuides_SnapToCenters(t *testing.T) {
	sibling := Rect{X: 0, Y: 0, W: 200, H: 100}
	moving := Rect{X: 200/2 - 50 - 2, Y: 100/2 - 30 - 3, W: 100, H: 60}
	opts := SnapOptions{Threshold: 5, SnapToCenters: true}

	snapped, guides := ComputeSmartGuides(moving, []Anchor{{Rect: sibling, Weight: 1}}, opts)
	if snapped.X != 50 || snapped.Y != 20 {
		t.Fatalf("expected center snap to (50,20), got (%v,%v)", snapped.X, snapped.Y)
	}
	if len(guides) != 2 || guides[0].Kind != KindCenter || guides[1].Kind != KindCenter {
		t.Fatalf("expected two center guides, got %+v", guides)
	}
}

func TestComputeSmartGuides_ThresholdPreventsSnap(t *testing.T) {
	sibling := Rect{X: 0, Y: 0, W: 200, H: 100}
	moving := Rect{X: 10, Y: 10, W: 50, H: 20}
	snapped, guides := ComputeSmartGuides(moving, []Anchor{{Rect: sibling, Weight: 1}}, SnapOptions{Threshold: 5, SnapToEdges: true})
	if snapped != moving {
		t.Fatalf("expected no snapping when outside threshold; got %+v", snapped)
	}
	if len(guides) != 0 {
		t.Fatalf("expected no guides when no snap")
	}
}

func TestComputeSmartGuides_PicksClosestCandidate(t *testing.T) {
	anchors := []Anchor{
		{Rect: Rect{X: 0, Y: 0, W: 100, H: 100}, Weight: 1},
		{Rect: Rect{X: 105, Y: 300, W: 100, H: 100}, Weight: 1},
	}
	// left edge is 2px from the first anchor's right edge and 3px from the second's left edge
	moving := Rect{X: 102, Y: 500, W: 40, H: 40}
	snapped, guides := ComputeSmartGuides(moving, anchors, SnapOptions{Threshold: 6, SnapToEdges: true})
	if snapped.X != 100 {
		t.Fatalf("expected X snapped to 100, got %v", snapped.X)
	}
	if snapped.Y != 500 || len(guides) != 1 {
		t.Fatalf("expected only an X snap, got y=%v guides=%d", snapped.Y, len(guides))
	}
}

func TestSnapToPageCenter(t *testing.T) {
	page := Rect{W: 794, H: 1123}
	// center x is 402, 5px right of the page center
	box := Rect{X: 352, Y: 20, W: 100, H: 40}
	snapped, snap, guides := SnapToPageCenter(box, page, 6)
	if !snap.X || snap.Y {
		t.Fatalf("expected horizontal-center snap only, got %+v", snap)
	}
	if c := snapped.Center().X; c != 397 {
		t.Fatalf("expected center 397, got %v", c)
	}
	if len(guides) != 1 || guides[0].Kind != KindPageCenter || guides[0].Position != 397 {
		t.Fatalf("unexpected guides %+v", guides)
	}
}

func TestClampInside(t *testing.T) {
	page := Rect{W: 794, H: 1123}
	got := ClampInside(Rect{X: -20, Y: 1100, W: 100, H: 50}, page)
	if got.X != 0 || got.Y != 1073 {
		t.Fatalf("clamp mismatch: %+v", got)
	}
	got = ClampInside(Rect{X: 50, Y: 50, W: 900, H: 50}, page)
	if got.X != 0 {
		t.Fatalf("oversized box should pin to left edge, got %+v", got)
	}
}

func TestDistancesToPage(t *testing.T) {
	d := DistancesToPage(Rect{X: 40, Y: 60, W: 100, H: 100}, Rect{W: 794, H: 1123})
	if d.Left != 40 || d.Top != 60 || d.Right != 654 || d.Bottom != 963 {
		t.Fatalf("unexpected distances %+v", d)
	}
}
