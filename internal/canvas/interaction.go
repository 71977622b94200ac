/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"math"
	"slices"

	"proposalwriter/internal/geom"
	"proposalwriter/internal/scene"
)

// minScaledSide bounds how small a corner drag can shrink a node.
const minScaledSide = 8.0

// Modifiers are the keyboard modifiers held during a gesture.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
}

// Guides is the overlay drawn during a gesture: the moving box, its
// distances to the page edges, snap lines and the rotation readout.
type Guides struct {
	Active     bool
	Box        geom.Rect
	Distances  geom.EdgeDistances
	Lines      []geom.GuideLine
	PageCenter geom.PageCenterSnap
	ShowAngle  bool
	Angle      float64
	AnglePos   geom.Pt
}

type dragMode int

const (
	dragMove dragMode = iota
	dragScale
	dragRotate
	dragCrop
)

type dragState struct {
	mode    dragMode
	start   geom.Pt
	objs    []*scene.Object
	origins []geom.Pt
	union   geom.Rect

	// Single-node gestures.
	target  *scene.Object
	center  geom.Pt
	scaleX  float64
	scaleY  float64
	dist    float64
	edge    Edge
	crop    cropStart
	changed bool
}

// Guides returns the overlay state of the current gesture.
func (c *Controller) Guides() Guides {
	c.lock()
	defer c.unlock()
	g := c.guides
	g.Lines = slices.Clone(g.Lines)
	return g
}

// PointerDown starts a gesture at p. A handle of the single selected node
// wins over the node stack. Clicking empty space clears the selection. It
// reports whether a gesture started.
func (c *Controller) PointerDown(p geom.Pt, mods Modifiers) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	c.drag, c.guides = nil, Guides{}
	if len(c.active) == 1 {
		if d := c.handleGestureLocked(c.active[0], p); d != nil {
			c.drag = d
			return true
		}
	}
	hit := c.graph.TopmostAt(p)
	if hit == nil || !hit.Selectable {
		c.flushTextLocked()
		c.selectLocked(nil)
		return false
	}
	switch {
	case mods.Shift && slices.Contains(c.active, hit):
		c.selectLocked(slices.DeleteFunc(slices.Clone(c.active), func(o *scene.Object) bool { return o == hit }))
		return false
	case mods.Shift:
		c.selectLocked(append(slices.Clone(c.active), hit))
	case !slices.Contains(c.active, hit):
		c.flushTextLocked()
		c.selectLocked([]*scene.Object{hit})
	}
	if c.editing {
		return false
	}
	d := &dragState{mode: dragMove, start: p}
	var boxes []geom.Rect
	for _, o := range c.active {
		if o.MovementLocked() {
			continue
		}
		d.objs = append(d.objs, o)
		d.origins = append(d.origins, geom.Pt{X: o.Left, Y: o.Top})
		boxes = append(boxes, o.Bounds())
	}
	if len(d.objs) == 0 {
		return false
	}
	d.union, _ = geom.UnionAll(boxes)
	c.drag = d
	return true
}

func (c *Controller) handleGestureLocked(o *scene.Object, p geom.Pt) *dragState {
	h, ok := c.controls.HandleAt(o, p)
	if !ok {
		return nil
	}
	d := &dragState{start: p, target: o, center: o.Center(), scaleX: o.ScaleX, scaleY: o.ScaleY}
	if edge, ok := edgeForHandle(h.Name); ok {
		if !croppable(o) {
			return nil
		}
		d.mode, d.edge, d.crop = dragCrop, edge, cropStartOf(o)
		return d
	}
	if h.Name == HandleRotate {
		if o.LockRotation || !transformable(o) {
			return nil
		}
		d.mode = dragRotate
		return d
	}
	if o.LockScalingX || o.LockScalingY || !transformable(o) {
		return nil
	}
	d.mode = dragScale
	d.dist = math.Hypot(p.X-d.center.X, p.Y-d.center.Y)
	if d.dist < 1 {
		return nil
	}
	return d
}

// PointerMove advances the current gesture to p.
func (c *Controller) PointerMove(p geom.Pt, mods Modifiers) {
	c.lock()
	defer c.unlock()
	if c.disposed() || c.drag == nil {
		return
	}
	d := c.drag
	switch d.mode {
	case dragMove:
		c.moveLocked(d, p)
	case dragScale:
		c.scaleLocked(d, p)
	case dragRotate:
		c.rotateLocked(d, p, mods)
	case dragCrop:
		delta := p.X - d.start.X
		if d.edge == EdgeTop || d.edge == EdgeBottom {
			delta = p.Y - d.start.Y
		}
		if applyCrop(d.target, d.crop, d.edge, delta) {
			d.changed = true
		}
		c.setBoxGuidesLocked(d.target.Bounds())
	}
	c.invalidateLocked()
}

// moveLocked translates the dragged nodes, snapping their union to other
// nodes first, then to the page center, and finally keeping it on the page.
func (c *Controller) moveLocked(d *dragState, p geom.Pt) {
	page := c.graph.PageRect()
	moving := d.union.Translate(p.X-d.start.X, p.Y-d.start.Y)

	var anchors []geom.Anchor
	for _, o := range c.graph.Objects {
		if !o.Visible || o.IsDecoration() || slices.Contains(d.objs, o) {
			continue
		}
		anchors = append(anchors, geom.Anchor{Rect: o.Bounds(), Weight: 1})
	}
	snapped, lines := geom.ComputeSmartGuides(moving, anchors, geom.SnapOptions{
		Threshold:     c.opts.SnapThreshold,
		SnapToEdges:   true,
		SnapToCenters: true,
	})
	snapped, center, pageLines := geom.SnapToPageCenter(snapped, page, c.opts.SnapThreshold)
	final := geom.ClampInside(snapped, page)

	dx, dy := final.X-d.union.X, final.Y-d.union.Y
	for i, o := range d.objs {
		nx, ny := d.origins[i].X+dx, d.origins[i].Y+dy
		if nx != o.Left || ny != o.Top {
			o.Left, o.Top = nx, ny
			d.changed = true
		}
	}
	c.guides = Guides{
		Active:     true,
		Box:        final,
		Distances:  geom.DistancesToPage(final, page),
		Lines:      append(lines, pageLines...),
		PageCenter: center,
	}
}

func (c *Controller) scaleLocked(d *dragState, p geom.Pt) {
	o := d.target
	f := math.Hypot(p.X-d.center.X, p.Y-d.center.Y) / d.dist
	minF := minScaledSide / math.Max(1e-9, math.Min(o.Width*d.scaleX, o.Height*d.scaleY))
	f = math.Max(f, minF)
	sx, sy := d.scaleX*f, d.scaleY*f
	if sx != o.ScaleX || sy != o.ScaleY {
		scaleAbout(o, sx, sy, d.center)
		d.changed = true
	}
	c.setBoxGuidesLocked(o.Bounds())
}

func (c *Controller) rotateLocked(d *dragState, p geom.Pt, mods Modifiers) {
	o := d.target
	a := geom.Degrees(math.Atan2(p.Y-d.center.Y, p.X-d.center.X)) + 90
	if mods.Shift {
		a = math.Round(a/15) * 15
	}
	a = geom.NormalizeAngle(geom.FloatRound(a, 2))
	if a != o.Angle {
		o.Angle = a
		d.changed = true
	}
	c.setBoxGuidesLocked(o.Bounds())
	c.guides.ShowAngle = true
	c.guides.Angle = math.Round(a)
	c.guides.AnglePos = geom.Pt{X: p.X + 16, Y: p.Y + 16}
}

func (c *Controller) setBoxGuidesLocked(box geom.Rect) {
	c.guides = Guides{Active: true, Box: box, Distances: geom.DistancesToPage(box, c.graph.PageRect())}
}

// PointerUp ends the gesture, clears the overlay and commits if anything
// changed.
func (c *Controller) PointerUp(geom.Pt) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() || c.drag == nil {
		return false
	}
	d := c.drag
	c.drag, c.guides = nil, Guides{}
	c.invalidateLocked()
	if !d.changed {
		return false
	}
	if d.mode == dragRotate {
		c.selectionChangedLocked()
	}
	return c.commitLocked("gesture")
}
