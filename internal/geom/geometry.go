/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom holds the page-space geometry used by the scene graph and the
// interactive controller: points, axis-aligned rects, affine transforms and
// the smart-guide snapping math. All units are editor pixels (A4 = 794x1123).
package geom

import "math"

// Pt is a 2D point.
type Pt struct{ X, Y float64 }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt         { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt         { return Pt{r.X + r.W, r.Y + r.H} }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }
func (r Rect) Center() Pt      { return Pt{r.X + r.W/2, r.Y + r.H/2} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Translate returns r moved by dx,dy.
func (r Rect) Translate(dx, dy float64) Rect { return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H} }

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// UnionAll folds rs into one rect; ok is false for an empty slice.
func UnionAll(rs []Rect) (Rect, bool) {
	if len(rs) == 0 {
		return Rect{}, false
	}
	b := rs[0]
	for _, r := range rs[1:] {
		b = b.Union(r)
	}
	return b, true
}

// Affine represents a 2D affine transform as matrix:
// | a c e |
// | b d f |
// | 0 0 1 |
type Affine struct{ A, B, C, D, E, F float64 }

var Identity = Affine{A: 1, D: 1}

func (m Affine) Mul(n Affine) Affine {
	return Affine{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

func (m Affine) Apply(p Pt) Pt {
	return Pt{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// Invert computes the inverse of m; a singular matrix yields Identity.
func (m Affine) Invert() Affine {
	det := m.A*m.D - m.B*m.C
	if det == 0 {
		return Identity
	}
	inv := 1 / det
	return Affine{
		A: m.D * inv,
		B: -m.B * inv,
		C: -m.C * inv,
		D: m.A * inv,
		E: (m.C*m.F - m.D*m.E) * inv,
		F: (m.B*m.E - m.A*m.F) * inv,
	}
}

func Translate(tx, ty float64) Affine { return Affine{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float64) Affine     { return Affine{A: sx, D: sy} }
func Rotate(rad float64) Affine {
	c := math.Cos(rad)
	s := math.Sin(rad)
	return Affine{A: c, B: s, C: -s, D: c}
}

// RotateAbout rotates by deg degrees (clockwise in screen space) around c.
func RotateAbout(deg float64, c Pt) Affine {
	return Translate(c.X, c.Y).Mul(Rotate(Radians(deg))).Mul(Translate(-c.X, -c.Y))
}

// Corners returns the four corners of r after rotating it by deg around its center,
// in the order top-left, top-right, bottom-right, bottom-left.
func Corners(r Rect, deg float64) [4]Pt {
	m := RotateAbout(deg, r.Center())
	return [4]Pt{
		m.Apply(Pt{r.X, r.Y}),
		m.Apply(Pt{r.X + r.W, r.Y}),
		m.Apply(Pt{r.X + r.W, r.Y + r.H}),
		m.Apply(Pt{r.X, r.Y + r.H}),
	}
}

// RotatedBounds is the axis-aligned bounding box of r rotated by deg around its center.
func RotatedBounds(r Rect, deg float64) Rect {
	if NormalizeAngle(deg) == 0 {
		return r
	}
	cs := Corners(r, deg)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range cs {
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X)
		maxY = math.Max(maxY, c.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

func Radians(deg float64) float64 { return deg * math.Pi / 180 }
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeAngle maps deg into [0,360).
func NormalizeAngle(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
