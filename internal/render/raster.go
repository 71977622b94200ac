/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render rasterizes a scene graph with a software 2D context. It is
// used for thumbnails, PNG/JPEG page exports and the PDF raster layer.
package render

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"proposalwriter/internal/scene"
	"proposalwriter/internal/textlayout"
)

// Options control a raster pass.
type Options struct {
	// Multiplier is the number of output pixels per scene pixel. Zero means 1.
	Multiplier float64
	Fonts      *textlayout.FontLibrary
	// Hide skips top-level nodes, e.g. those redrawn as vector overlay.
	Hide func(*scene.Object) bool
	// HideNotes suppresses note markers on images.
	HideNotes bool
}

var (
	noteMarker = color.NRGBA{R: 0xdc, G: 0x26, B: 0x26, A: 255}
	noteLabel  = color.NRGBA{R: 255, G: 255, B: 255, A: 235}
)

// Rasterize draws g into a new RGBA image sized Width*Multiplier by
// Height*Multiplier.
func Rasterize(g *scene.Graph, opts Options) *image.RGBA {
	m := opts.Multiplier
	if m <= 0 {
		m = 1
	}
	w := max(1, int(math.Round(g.Width*m)))
	h := max(1, int(math.Round(g.Height*m)))
	dc := gg.NewContext(w, h)
	dc.SetColor(ColorOr(g.Background, color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
	dc.Clear()
	dc.Scale(m, m)

	r := &rasterizer{dc: dc, fc: textlayout.NewFaceCache(opts.Fonts), opts: opts}
	defer r.fc.Close()
	for _, o := range g.Objects {
		if opts.Hide != nil && opts.Hide(o) {
			continue
		}
		r.draw(o, 1)
	}
	return dc.Image().(*image.RGBA)
}

type rasterizer struct {
	dc   *gg.Context
	fc   *textlayout.FaceCache
	opts Options
}

// draw renders o in its parent's coordinate space.
func (r *rasterizer) draw(o *scene.Object, parentAlpha float64) {
	if !o.Visible {
		return
	}
	alpha := parentAlpha * o.Opacity
	if alpha <= 0 {
		return
	}
	dc := r.dc
	dc.Push()
	defer dc.Pop()

	box := o.Box()
	c := box.Center()
	dc.Translate(c.X, c.Y)
	if o.Angle != 0 {
		dc.Rotate(gg.Radians(o.Angle))
	}
	dc.Translate(-box.W/2, -box.H/2)

	switch {
	case o.IsImage():
		r.image(o, alpha)
		if !r.opts.HideNotes {
			r.notes(o, box.W, box.H)
		}
	case o.IsText():
		dc.Scale(o.ScaleX, o.ScaleY)
		r.text(o, alpha)
	case o.IsGroup():
		dc.Scale(o.ScaleX, o.ScaleY)
		r.shape(o, o.Width, o.Height, alpha)
		for _, ch := range o.Children() {
			r.draw(ch, alpha)
		}
	default:
		dc.Scale(o.ScaleX, o.ScaleY)
		r.shape(o, o.Width, o.Height, alpha)
	}
}

func (r *rasterizer) shape(o *scene.Object, w, h, alpha float64) {
	dc := r.dc
	if fill, ok := ParseColor(o.Fill); ok && fill.A > 0 {
		dc.DrawRectangle(0, 0, w, h)
		dc.SetColor(fade(fill, alpha))
		dc.Fill()
	}
	if stroke, ok := ParseColor(o.Stroke); ok && o.StrokeWidth > 0 {
		dc.DrawRectangle(0, 0, w, h)
		dc.SetColor(fade(stroke, alpha))
		dc.SetLineWidth(o.StrokeWidth)
		dc.Stroke()
	}
}

func (r *rasterizer) image(o *scene.Object, alpha float64) {
	if o.Pixels == nil {
		return
	}
	src := Crop(o.Pixels, o.CropX, o.CropY, o.Width, o.Height)
	if alpha < 1 {
		src = withAlpha(src, alpha)
	}
	r.dc.Push()
	r.dc.Scale(o.ScaleX, o.ScaleY)
	r.dc.DrawImage(src, 0, 0)
	r.dc.Pop()
}

// Crop returns the visible w x h window of src starting at (x, y), clamped
// to the source bounds. The result always has a zero origin since the
// context maps source coordinates absolutely.
func Crop(src image.Image, x, y, w, h float64) image.Image {
	b := src.Bounds()
	rect := image.Rect(
		b.Min.X+int(math.Round(x)), b.Min.Y+int(math.Round(y)),
		b.Min.X+int(math.Round(x+w)), b.Min.Y+int(math.Round(y+h)),
	).Intersect(b)
	if rect == b && b.Min == (image.Point{}) {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, src, rect, draw.Src, nil)
	return dst
}

func withAlpha(src image.Image, alpha float64) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	mask := image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})
	draw.DrawMask(dst, dst.Bounds(), src, b.Min, mask, image.Point{}, draw.Over)
	return dst
}

func (r *rasterizer) text(o *scene.Object, alpha float64) {
	dc := r.dc
	spec := textlayout.SpecFor(o.FontFamily, o.FontSize, o.FontWeight, o.FontStyle)
	face, met := r.fc.Resolve(spec)
	ink := ColorOr(o.Fill, DefaultInk)
	lh := o.FontSize * o.LineHeight
	if lh <= 0 {
		lh = o.FontSize
	}
	for i, line := range textlayout.Wrap(r.fc, spec, o.Text, o.Width) {
		baseline := float64(i)*lh + met.Ascent
		x := AlignOffset(o.TextAlign, o.Width, line.Width)
		styles := o.Styles[strconv.Itoa(i)]
		if len(styles) == 0 {
			dc.SetFontFace(face)
			dc.SetColor(fade(ink, alpha))
			dc.DrawString(line.Text, x, baseline)
			if o.Underline {
				r.underline(x, baseline, line.Width, o.FontSize)
			}
			continue
		}
		for j, ch := range []rune(line.Text) {
			st, styled := styles[strconv.Itoa(j)]
			runeSpec, col, under := spec, ink, o.Underline
			if styled {
				if st.FontWeight != "" {
					runeSpec.Bold = textlayout.SpecFor("", 0, st.FontWeight, "").Bold
				}
				if st.FontStyle != "" {
					runeSpec.Italic = st.FontStyle == "italic"
				}
				col = ColorOr(st.Fill, ink)
				under = under || st.Underline
			}
			f, _ := r.fc.Resolve(runeSpec)
			s := string(ch)
			adv := textlayout.Measure(r.fc, runeSpec, s)
			dc.SetFontFace(f)
			dc.SetColor(fade(col, alpha))
			dc.DrawString(s, x, baseline)
			if under {
				r.underline(x, baseline, adv, o.FontSize)
			}
			x += adv
		}
	}
}

// AlignOffset returns the x offset of a line of width lineW inside boxW.
func AlignOffset(align string, boxW, lineW float64) float64 {
	switch align {
	case "center":
		return (boxW - lineW) / 2
	case "right":
		return boxW - lineW
	}
	return 0
}

func (r *rasterizer) underline(x, baseline, w, size float64) {
	r.dc.SetLineWidth(max(1, size/15))
	r.dc.DrawLine(x, baseline+size/10+1, x+w, baseline+size/10+1)
	r.dc.Stroke()
}

// notes draws numbered markers with their labels at fractional positions of
// the displayed image.
func (r *rasterizer) notes(o *scene.Object, w, h float64) {
	if len(o.Notes) == 0 {
		return
	}
	dc := r.dc
	st := textlayout.MustStyle("Note")
	face, met := r.fc.Resolve(st.Font)
	dc.SetFontFace(face)
	for i, n := range o.Notes {
		px, py := n.X*w, n.Y*h
		dc.DrawCircle(px, py, 9)
		dc.SetColor(noteMarker)
		dc.Fill()
		num := strconv.Itoa(i + 1)
		dc.SetColor(color.White)
		dc.DrawStringAnchored(num, px, py, 0.5, 0.35)
		if n.Text == "" {
			continue
		}
		tw := textlayout.Measure(r.fc, st.Font, n.Text)
		dc.DrawRoundedRectangle(px+12, py-met.Ascent/2-4, tw+8, met.Ascent+met.Descent+6, 3)
		dc.SetColor(noteLabel)
		dc.Fill()
		dc.SetColor(ColorOr(st.Fill, DefaultInk))
		dc.DrawString(n.Text, px+16, py+met.Ascent/2)
	}
}
