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

	"proposalwriter/internal/scene"
)

// MinCropSize is the smallest displayed width or height a crop may leave.
const MinCropSize = 24.0

// Edge names an image side for cropping.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

func edgeForHandle(name string) (Edge, bool) {
	switch name {
	case HandleCropLeft:
		return EdgeLeft, true
	case HandleCropRight:
		return EdgeRight, true
	case HandleCropTop:
		return EdgeTop, true
	case HandleCropBottom:
		return EdgeBottom, true
	}
	return 0, false
}

// cropStart is the crop window when a crop gesture began.
type cropStart struct {
	cropX, cropY, w, h, left, top float64
}

func cropStartOf(o *scene.Object) cropStart {
	return cropStart{cropX: o.CropX, cropY: o.CropY, w: o.Width, h: o.Height, left: o.Left, top: o.Top}
}

func finitePositive(v float64) bool { return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) }

// croppable reports whether o accepts crop gestures. Rotated images and
// images of unknown natural size are refused.
func croppable(o *scene.Object) bool {
	return o.IsImage() && !o.IsDecoration() && !o.Rotated() && !o.MovementLocked() &&
		finitePositive(o.NaturalWidth) && finitePositive(o.NaturalHeight) &&
		finitePositive(o.ScaleX) && finitePositive(o.ScaleY)
}

// applyCrop moves one edge of o's crop window by delta displayed pixels,
// measured from start. The opposite edge stays fixed on the page, the window
// never leaves the natural image and never gets smaller than MinCropSize on
// screen. It reports whether o changed.
func applyCrop(o *scene.Object, start cropStart, edge Edge, delta float64) bool {
	if !croppable(o) || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return false
	}
	before := cropStartOf(o)
	switch edge {
	case EdgeLeft, EdgeRight:
		minW := math.Min(MinCropSize/o.ScaleX, o.NaturalWidth)
		ds := delta / o.ScaleX
		if edge == EdgeLeft {
			lo := 0.0
			hi := math.Max(lo, start.cropX+start.w-minW)
			cx := clampRange(start.cropX+ds, lo, hi)
			moved := cx - start.cropX
			o.CropX = cx
			o.Width = start.w - moved
			o.Left = start.left + moved*o.ScaleX
		} else {
			hi := math.Max(minW, o.NaturalWidth-start.cropX)
			o.Width = clampRange(start.w+ds, minW, hi)
		}
	case EdgeTop, EdgeBottom:
		minH := math.Min(MinCropSize/o.ScaleY, o.NaturalHeight)
		ds := delta / o.ScaleY
		if edge == EdgeTop {
			lo := 0.0
			hi := math.Max(lo, start.cropY+start.h-minH)
			cy := clampRange(start.cropY+ds, lo, hi)
			moved := cy - start.cropY
			o.CropY = cy
			o.Height = start.h - moved
			o.Top = start.top + moved*o.ScaleY
		} else {
			hi := math.Max(minH, o.NaturalHeight-start.cropY)
			o.Height = clampRange(start.h+ds, minH, hi)
		}
	default:
		return false
	}
	return cropStartOf(o) != before
}

func clampRange(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

// CropActive moves one crop edge of the selected image by delta displayed
// pixels and commits the result.
func (c *Controller) CropActive(edge Edge, delta float64) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() || len(c.active) != 1 {
		return false
	}
	o := c.active[0]
	if !applyCrop(o, cropStartOf(o), edge, delta) {
		return false
	}
	return c.commitLocked("crop")
}
