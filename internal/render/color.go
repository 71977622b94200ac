/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image/color"
	"strconv"
	"strings"
)

var named = map[string]color.NRGBA{
	"black":       {R: 0, G: 0, B: 0, A: 255},
	"white":       {R: 255, G: 255, B: 255, A: 255},
	"red":         {R: 255, G: 0, B: 0, A: 255},
	"green":       {R: 0, G: 128, B: 0, A: 255},
	"blue":        {R: 0, G: 0, B: 255, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
	"transparent": {R: 0, G: 0, B: 0, A: 0},
}

// ParseColor understands #rgb, #rrggbb, #rrggbbaa, rgb(), rgba() and a few
// CSS names. The second result is false for anything else.
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := named[s]; ok {
		return c, true
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		return parseHex(hex)
	}
	for _, fn := range []string{"rgba(", "rgb("} {
		if body, ok := strings.CutPrefix(s, fn); ok {
			return parseFunc(strings.TrimSuffix(body, ")"))
		}
	}
	return color.NRGBA{}, false
}

func parseHex(h string) (color.NRGBA, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func parseFunc(body string) (color.NRGBA, bool) {
	parts := strings.Split(body, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil || n < 0 || n > 255 {
			return color.NRGBA{}, false
		}
		ch[i] = uint8(n + 0.5)
	}
	a := 1.0
	if len(parts) == 4 {
		var err error
		a, err = strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return color.NRGBA{}, false
		}
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: uint8(a*255 + 0.5)}, true
}

// ColorOr parses s and falls back to def on failure.
func ColorOr(s string, def color.NRGBA) color.NRGBA {
	if c, ok := ParseColor(s); ok {
		return c
	}
	return def
}

// DefaultInk is used for text without a usable fill.
var DefaultInk = color.NRGBA{R: 0x11, G: 0x18, B: 0x27, A: 255}

func fade(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(float64(c.A)*max(0, min(alpha, 1)) + 0.5)
	return c
}
