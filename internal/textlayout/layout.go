/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Text measurement and line breaking for textbox nodes. Rasterizing, the PDF
// overlay and the canvas all wrap through here so the three agree on which
// character lands on which line.

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FontSpec describes a requested font. Size is in scene pixels.
type FontSpec struct {
	Family string
	Size   float64
	Bold   bool
	Italic bool
}

// SpecFor builds a FontSpec from scene text attributes. Weight accepts
// "bold", "normal" or a numeric CSS weight.
func SpecFor(family string, size float64, weight, style string) FontSpec {
	bold := weight == "bold" || weight == "bolder"
	if n, err := strconv.Atoi(weight); err == nil {
		bold = n >= 600
	}
	return FontSpec{Family: family, Size: size, Bold: bold, Italic: style == "italic" || style == "oblique"}
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Line is one wrapped line. Start is the rune offset of its first character
// in the source text.
type Line struct {
	Text  string
	Start int
	Width float64
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  toFloat(m.Ascent),
		Descent: toFloat(m.Descent),
		LineGap: toFloat(m.Height - m.Ascent - m.Descent),
	}
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

// Measure returns the advance width of s without line breaking.
func Measure(p Provider, spec FontSpec, s string) float64 {
	if p == nil {
		p = BasicProvider{}
	}
	face, _ := p.Resolve(spec)
	return toFloat(font.MeasureString(face, s))
}

// Wrap breaks text into lines no wider than maxWidth. Hard newlines always
// break; a single word wider than maxWidth gets a line of its own. A
// non-positive maxWidth disables soft wrapping.
func Wrap(p Provider, spec FontSpec, text string, maxWidth float64) []Line {
	if p == nil {
		p = BasicProvider{}
	}
	face, _ := p.Resolve(spec)
	measure := func(s string) float64 { return toFloat(font.MeasureString(face, s)) }

	var lines []Line
	base := 0
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(measure, para, base, maxWidth)...)
		base += utf8.RuneCountInString(para) + 1
	}
	return lines
}

type word struct {
	text  string
	start int
}

func splitWords(s string) []word {
	var out []word
	idx, start := 0, -1
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				out = append(out, word{text: b.String(), start: start})
				b.Reset()
				start = -1
			}
		} else {
			if start < 0 {
				start = idx
			}
			b.WriteRune(r)
		}
		idx++
	}
	if start >= 0 {
		out = append(out, word{text: b.String(), start: start})
	}
	return out
}

func wrapParagraph(measure func(string) float64, para string, base int, maxWidth float64) []Line {
	words := splitWords(para)
	if len(words) == 0 {
		return []Line{{Start: base}}
	}
	var out []Line
	cur := Line{Start: base + words[0].start, Text: words[0].text}
	for _, w := range words[1:] {
		cand := cur.Text + " " + w.text
		if maxWidth > 0 && measure(cand) > maxWidth {
			cur.Width = measure(cur.Text)
			out = append(out, cur)
			cur = Line{Start: base + w.start, Text: w.text}
			continue
		}
		cur.Text = cand
	}
	cur.Width = measure(cur.Text)
	return append(out, cur)
}

// BlockHeight is the height of n lines at the given font size and line height factor.
func BlockHeight(n int, size, lineHeight float64) float64 {
	if n < 1 {
		n = 1
	}
	if lineHeight <= 0 {
		lineHeight = 1
	}
	return float64(n) * size * lineHeight
}
