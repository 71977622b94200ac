/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"proposalwriter/internal/assets"
	"proposalwriter/internal/bom"
	"proposalwriter/internal/domain"
	"proposalwriter/internal/geom"
	"proposalwriter/internal/pageload"
	"proposalwriter/internal/render"
	"proposalwriter/internal/scene"
)

// DefaultImageOrigin is where AddImage and InsertCaptures place new images.
var DefaultImageOrigin = geom.Pt{X: 100, Y: 180}

// captureMaxSide bounds the pixel size of inserted captures.
const captureMaxSide = 2048

func (c *Controller) decodeSource(ctx context.Context, src string) (image.Image, error) {
	if c.opts.Loader != nil {
		return c.opts.Loader.Load(ctx, src)
	}
	return assets.DecodeDataURL(src)
}

// newImageNode scales img to the configured width and places it at origin,
// clamped inside the page.
func (c *Controller) newImageNode(src string, img image.Image, origin geom.Pt) *scene.Object {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	o := scene.NewImage(src, w, h)
	o.Pixels = img
	s := c.opts.ImageWidth / w
	o.ScaleX, o.ScaleY = s, s
	o.Left, o.Top = origin.X, origin.Y
	box := geom.ClampInside(o.Box(), c.graph.PageRect())
	o.Left, o.Top = box.X, box.Y
	c.controls.AttachTo(o)
	return o
}

// AddImage decodes src, a data URL or any source the loader accepts, and
// inserts it scaled to the default width.
func (c *Controller) AddImage(ctx context.Context, src string) (*scene.Object, error) {
	c.lock()
	disposed := c.disposed()
	c.unlock()
	if disposed {
		return nil, ErrDisposed
	}
	img, err := c.decodeSource(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decode image: empty bounds")
	}

	c.lock()
	defer c.unlock()
	if c.disposed() {
		return nil, ErrDisposed
	}
	o := c.newImageNode(src, img, DefaultImageOrigin)
	c.graph.Add(o)
	c.selectLocked([]*scene.Object{o})
	c.commitLocked("add-image")
	return o, nil
}

// SetOpacity sets the opacity of the selected nodes, clamped to
// [MinOpacity, 1]. Setting it explicitly clears the dimmed state.
func (c *Controller) SetOpacity(v float64) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	targets := c.activeWhere(editable)
	if len(targets) == 0 {
		return false
	}
	v = geom.Clamp(v, MinOpacity, 1)
	for _, o := range targets {
		o.Opacity = v
		if o.Data.ObjectDimmed {
			o.Data.ObjectDimmed = false
			if !o.Data.UserLocked {
				o.SetInteractionLocked(false)
			}
		}
	}
	c.normalizeLocksLocked(targets)
	c.selectionChangedLocked()
	return c.commitLocked("opacity")
}

// ToggleLock locks the selection, or unlocks it when most of it is locked.
// Locked nodes stay selectable but cannot be moved, scaled or rotated.
func (c *Controller) ToggleLock() bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	targets := c.activeWhere(editable)
	if len(targets) == 0 {
		return false
	}
	locked := 0
	for _, o := range targets {
		if o.Data.UserLocked {
			locked++
		}
	}
	lock := locked*2 <= len(targets)
	for _, o := range targets {
		o.Data.UserLocked = lock
		o.SetInteractionLocked(lock || o.Data.ObjectDimmed)
	}
	c.normalizeLocksLocked(targets)
	c.selectionChangedLocked()
	return c.commitLocked("lock")
}

// ToggleVisibility dims the selection, or restores it when most of it is
// dimmed. Dimmed nodes are locked too; they render at full opacity on export.
func (c *Controller) ToggleVisibility() bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	targets := c.activeWhere(editable)
	if len(targets) == 0 {
		return false
	}
	dimmed := 0
	for _, o := range targets {
		if o.Data.ObjectDimmed {
			dimmed++
		}
	}
	dim := dimmed*2 <= len(targets)
	for _, o := range targets {
		o.Data.ObjectDimmed = dim
		if dim {
			o.Opacity = DimOpacity
		} else {
			o.Opacity = 1
		}
		o.SetInteractionLocked(dim || o.Data.UserLocked)
	}
	c.normalizeLocksLocked(targets)
	c.selectionChangedLocked()
	return c.commitLocked("dim")
}

// normalizeLocksLocked restores the fixed table locks and refreshes handles.
func (c *Controller) normalizeLocksLocked(objs []*scene.Object) {
	for _, o := range objs {
		if o.IsBOMGroup() {
			bom.Consolidate(c.graph)
		}
		c.controls.AttachTo(o)
	}
}

// LayerUp brings the selection to the front; decorations stay on top.
func (c *Controller) LayerUp() bool { return c.restack(false) }

// LayerDown sends the selection to the back.
func (c *Controller) LayerDown() bool { return c.restack(true) }

func (c *Controller) restack(back bool) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	targets := c.activeWhere(editable)
	if len(targets) == 0 {
		return false
	}
	if back {
		c.graph.SendToBack(targets)
	} else {
		c.graph.BringToFront(targets)
	}
	return c.commitLocked("layer")
}

// DeleteActive removes the selected nodes. Decorations and generated table
// parts are skipped; a table inserted by the user may be deleted.
func (c *Controller) DeleteActive() bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	return c.deleteLocked(c.activeWhere(deletable))
}

func (c *Controller) deleteLocked(objs []*scene.Object) bool {
	if len(objs) == 0 {
		return false
	}
	for _, o := range objs {
		c.graph.Remove(o)
	}
	c.editing = false
	c.pruneSelectionLocked()
	c.selectionChangedLocked()
	return c.commitLocked("delete")
}

// SetAngle rotates the single selected node to deg about its center.
func (c *Controller) SetAngle(deg float64) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() || len(c.active) != 1 {
		return false
	}
	o := c.active[0]
	if !transformable(o) || o.LockRotation {
		return false
	}
	a := geom.NormalizeAngle(deg)
	if a == o.Angle {
		return false
	}
	// Left/Top name the unrotated corner, so the center is unchanged.
	o.Angle = a
	c.selectionChangedLocked()
	return c.commitLocked("rotate")
}

// ScaleActive multiplies the scale of the selected nodes about their centers.
// Tables and locked nodes are skipped.
func (c *Controller) ScaleActive(factor float64) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() || factor <= 0 || factor == 1 {
		return false
	}
	changed := false
	for _, o := range c.activeWhere(transformable) {
		if o.LockScalingX || o.LockScalingY {
			continue
		}
		scaleAbout(o, o.ScaleX*factor, o.ScaleY*factor, o.Center())
		changed = true
	}
	if !changed {
		return false
	}
	return c.commitLocked("scale")
}

func scaleAbout(o *scene.Object, sx, sy float64, center geom.Pt) {
	o.ScaleX, o.ScaleY = sx, sy
	o.Left = center.X - o.ScaledWidth()/2
	o.Top = center.Y - o.ScaledHeight()/2
}

// Nudge moves the selection by dx, dy and keeps it inside the page.
func (c *Controller) Nudge(dx, dy float64) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	changed := false
	page := c.graph.PageRect()
	for _, o := range c.activeWhere(editable) {
		if o.MovementLocked() {
			continue
		}
		b := o.Bounds()
		nb := geom.ClampInside(b.Translate(dx, dy), page)
		if nb.X == b.X && nb.Y == b.Y {
			continue
		}
		o.MoveBy(nb.X-b.X, nb.Y-b.Y)
		changed = true
	}
	if !changed {
		return false
	}
	return c.commitLocked("nudge")
}

// InsertBOMTable places a new table group built from rows on the page.
func (c *Controller) InsertBOMTable(rows []domain.Row, grandTotal float64) *scene.Object {
	c.lock()
	defer c.unlock()
	if c.disposed() || len(rows) == 0 {
		return nil
	}
	grp := bom.NewTableGroup(rows, grandTotal, true)
	box := geom.ClampInside(grp.Box(), c.graph.PageRect())
	grp.Left, grp.Top = box.X, box.Y
	c.graph.Add(grp)
	c.controls.AttachTo(grp)
	c.selectLocked([]*scene.Object{grp})
	c.commitLocked("insert-table")
	return grp
}

// InsertCaptures adds captures not inserted before onto first, which is
// always the project's first page. When first is not on screen it is
// hydrated off-screen and the result reported through OnPageChange.
// Captures without an id get one from the controller's IDGenerator. It
// returns how many captures were inserted.
func (c *Controller) InsertCaptures(ctx context.Context, first domain.Page, captures []domain.Capture) (int, error) {
	c.lock()
	if c.disposed() {
		c.unlock()
		return 0, ErrDisposed
	}
	var todo []domain.Capture
	for _, cp := range captures {
		if cp.ID == "" {
			cp.ID = c.opts.IDs.NewID()
		}
		if cp.DataURL == "" || c.captured[cp.ID] {
			continue
		}
		todo = append(todo, cp)
	}
	onScreen := c.page.ID == first.ID
	c.unlock()
	if len(todo) == 0 {
		return 0, nil
	}

	type decoded struct {
		cp  domain.Capture
		img image.Image
		src string
	}
	var imgs []decoded
	for _, cp := range todo {
		img, err := assets.DecodeDataURL(cp.DataURL)
		if err != nil {
			c.log.WarnContext(ctx, "capture unreadable", slog.String("capture", cp.ID), slog.Any("err", err))
			continue
		}
		src := cp.DataURL
		if b := img.Bounds(); b.Dx() > captureMaxSide || b.Dy() > captureMaxSide {
			small := assets.Downscale(img, captureMaxSide)
			if s, err := assets.DataURL(small, assets.FormatPNG, 0); err == nil {
				img, src = small, s
			}
		}
		imgs = append(imgs, decoded{cp: cp, img: img, src: src})
	}

	c.lock()
	defer c.unlock()
	if c.disposed() {
		return 0, ErrDisposed
	}
	g := c.graph
	if !onScreen || c.page.ID != first.ID {
		g = scene.NewGraph()
		pageload.Hydrate(ctx, g, first, c.opts.Loader)
	}
	n := 0
	for i, d := range imgs {
		if c.captured[d.cp.ID] {
			continue
		}
		origin := geom.Pt{X: DefaultImageOrigin.X + float64(i)*c.opts.PasteOffset, Y: DefaultImageOrigin.Y + float64(i)*c.opts.PasteOffset}
		o := c.newImageNode(d.src, d.img, origin)
		o.Data.CaptureID = d.cp.ID
		o.Data.ImageType = domain.Image3D
		g.Add(o)
		c.captured[d.cp.ID] = true
		n++
	}
	if n == 0 {
		return 0, nil
	}
	if g == c.graph {
		c.commitLocked("insert-captures")
		return n, nil
	}
	g.RaiseDecorations()
	snap, err := g.Snapshot()
	if err != nil {
		return n, err
	}
	if c.opts.OnPageChange != nil {
		pageID := first.ID
		c.queue(func() { c.opts.OnPageChange(pageID, snap) })
	}
	return n, nil
}

// GetPageImage renders the on-screen graph, decorations included, at the
// thumbnail scale and encodes it.
func (c *Controller) GetPageImage(format assets.Format, quality int) ([]byte, error) {
	c.lock()
	if c.disposed() {
		c.unlock()
		return nil, ErrDisposed
	}
	img := render.Rasterize(c.graph, render.Options{Multiplier: c.opts.ThumbScale, Fonts: c.opts.Fonts})
	c.unlock()
	return assets.Encode(img, format, quality)
}

// CaptureInserted reports whether the capture with id was placed by this
// controller.
func (c *Controller) CaptureInserted(id string) bool {
	c.lock()
	defer c.unlock()
	return c.captured[id]
}
