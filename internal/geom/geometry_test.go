/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestRotatedBoundsQuarterTurn(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 100, H: 40}
	b := RotatedBounds(r, 90)
	if !near(b.W, 40) || !near(b.H, 100) {
		t.Fatalf("expected 40x100 bounds, got %+v", b)
	}
	if c := b.Center(); !near(c.X, 50) || !near(c.Y, 20) {
		t.Fatalf("rotation must keep the center, got %+v", c)
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := map[float64]float64{-30: 330, 360: 0, 725: 5, 0: 0}
	for in, want := range cases {
		if got := NormalizeAngle(in); !near(got, want) {
			t.Fatalf("NormalizeAngle(%v)=%v want %v", in, got, want)
		}
	}
	if NormalizeAngle(math.NaN()) != 0 {
		t.Fatalf("NaN should normalize to 0")
	}
}

func TestAffineInvertRoundTrip(t *testing.T) {
	m := RotateAbout(30, Pt{50, 50}).Mul(Scale(2, 3))
	p := Pt{12, -7}
	q := m.Invert().Apply(m.Apply(p))
	if !near(p.X, q.X) || !near(p.Y, q.Y) {
		t.Fatalf("round trip mismatch %v -> %v", p, q)
	}
}
