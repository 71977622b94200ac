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

	"proposalwriter/internal/geom"
	"proposalwriter/internal/scene"
)

// Handle names.
const (
	HandleTopLeft     = "tl"
	HandleTopRight    = "tr"
	HandleBottomLeft  = "bl"
	HandleBottomRight = "br"
	HandleRotate      = "mtr"
	HandleCropLeft    = "crop-l"
	HandleCropRight   = "crop-r"
	HandleCropTop     = "crop-t"
	HandleCropBottom  = "crop-b"
)

// ControlStyle sizes the interactive handles.
type ControlStyle struct {
	HandleSize   float64
	RotateOffset float64
	// HitSlop widens the hit area around each handle.
	HitSlop float64
}

func (s ControlStyle) withDefaults() ControlStyle {
	if s.HandleSize <= 0 {
		s.HandleSize = 12
	}
	if s.RotateOffset <= 0 {
		s.RotateOffset = 40
	}
	if s.HitSlop <= 0 {
		s.HitSlop = 3
	}
	return s
}

// ControlFactory builds handle sets. Each controller owns its own factory so
// handle configuration never leaks between editors.
type ControlFactory struct {
	style ControlStyle
}

func NewControlFactory(style ControlStyle) *ControlFactory {
	return &ControlFactory{style: style.withDefaults()}
}

// Style returns the effective handle style.
func (f *ControlFactory) Style() ControlStyle { return f.style }

// For returns the handles of o. Nodes without controls get none. Images get
// edge handles that crop instead of stretching.
func (f *ControlFactory) For(o *scene.Object) []scene.Control {
	if !o.HasControls || o.IsDecoration() || o.IsBOM() {
		return nil
	}
	sz := f.style.HandleSize
	cs := []scene.Control{
		{Name: HandleTopLeft, X: -0.5, Y: -0.5, Size: sz},
		{Name: HandleTopRight, X: 0.5, Y: -0.5, Size: sz},
		{Name: HandleBottomLeft, X: -0.5, Y: 0.5, Size: sz},
		{Name: HandleBottomRight, X: 0.5, Y: 0.5, Size: sz},
		{Name: HandleRotate, X: 0, Y: -0.5, OffsetY: -f.style.RotateOffset, Size: sz},
	}
	if o.IsImage() {
		cs = append(cs,
			scene.Control{Name: HandleCropLeft, X: -0.5, Y: 0, Size: sz},
			scene.Control{Name: HandleCropRight, X: 0.5, Y: 0, Size: sz},
			scene.Control{Name: HandleCropTop, X: 0, Y: -0.5, Size: sz},
			scene.Control{Name: HandleCropBottom, X: 0, Y: 0.5, Size: sz},
		)
	}
	return cs
}

// AttachTo refreshes the handles of a single node.
func (f *ControlFactory) AttachTo(o *scene.Object) { o.Controls = f.For(o) }

// Attach refreshes the handles of every top-level node in g.
func (f *ControlFactory) Attach(g *scene.Graph) {
	for _, o := range g.Objects {
		f.AttachTo(o)
	}
}

// Position returns the page position of handle h on o, following rotation.
func (f *ControlFactory) Position(o *scene.Object, h scene.Control) geom.Pt {
	box := o.Box()
	c := box.Center()
	p := geom.Pt{X: c.X + h.X*box.W, Y: c.Y + h.Y*box.H + h.OffsetY}
	if o.Angle != 0 {
		p = geom.RotateAbout(o.Angle, c).Apply(p)
	}
	return p
}

// HandleAt returns the handle of o under p, if any.
func (f *ControlFactory) HandleAt(o *scene.Object, p geom.Pt) (scene.Control, bool) {
	for _, h := range o.Controls {
		q := f.Position(o, h)
		r := h.Size/2 + f.style.HitSlop
		if math.Abs(p.X-q.X) <= r && math.Abs(p.Y-q.Y) <= r {
			return h, true
		}
	}
	return scene.Control{}, false
}
