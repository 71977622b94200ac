/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Families registered by NewFontLibrary.
const (
	FamilySans = "Go"
	FamilyMono = "Go Mono"
)

// FontLibrary stores parsed OpenType fonts mapped by family/bold/italic.
// Parsed fonts are safe to share; faces are not, see FaceCache.
type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	bold   bool
	italic bool
}

var (
	defaultLibOnce sync.Once
	defaultLib     *FontLibrary
)

// DefaultLibrary returns a process-wide library holding the Go fonts.
func DefaultLibrary() *FontLibrary {
	defaultLibOnce.Do(func() { defaultLib = NewFontLibrary() })
	return defaultLib
}

// NewFontLibrary returns a library preloaded with the Go font family.
func NewFontLibrary() *FontLibrary {
	fl := &FontLibrary{fonts: make(map[fontKey]*opentype.Font)}
	builtin := []struct {
		key  fontKey
		data []byte
	}{
		{fontKey{FamilySans, false, false}, goregular.TTF},
		{fontKey{FamilySans, true, false}, gobold.TTF},
		{fontKey{FamilySans, false, true}, goitalic.TTF},
		{fontKey{FamilySans, true, true}, gobolditalic.TTF},
		{fontKey{FamilyMono, false, false}, gomono.TTF},
		{fontKey{FamilyMono, true, false}, gomonobold.TTF},
	}
	for _, b := range builtin {
		if f, err := opentype.Parse(b.data); err == nil {
			fl.fonts[b.key] = f
		}
	}
	return fl
}

// LoadTTF loads a font file into the library under the given family/bold/italic.
func (fl *FontLibrary) LoadTTF(family string, bold, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: strings.ToLower(family), bold: bold, italic: italic}] = f
	return nil
}

// builtinFamily maps common CSS and PDF core family names onto a Go font.
func builtinFamily(family string) string {
	f := strings.ToLower(family)
	if strings.Contains(f, "courier") || strings.Contains(f, "mono") {
		return FamilyMono
	}
	return FamilySans
}

func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil {
		return nil
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if f, ok := fl.fonts[fontKey{strings.ToLower(spec.Family), spec.Bold, spec.Italic}]; ok {
		return f
	}
	fam := builtinFamily(spec.Family)
	for _, k := range []fontKey{{fam, spec.Bold, spec.Italic}, {fam, spec.Bold, false}, {fam, false, false}, {FamilySans, false, false}} {
		if f, ok := fl.fonts[k]; ok {
			return f
		}
	}
	return nil
}

// FaceCache resolves FontSpec to faces built from a FontLibrary and caches
// them per spec. A FaceCache must not be shared between goroutines.
type FaceCache struct {
	Lib      *FontLibrary
	Fallback Provider

	faces map[FontSpec]font.Face
}

// NewFaceCache returns a cache over lib, or over DefaultLibrary when lib is nil.
func NewFaceCache(lib *FontLibrary) *FaceCache {
	if lib == nil {
		lib = DefaultLibrary()
	}
	return &FaceCache{Lib: lib, faces: map[FontSpec]font.Face{}}
}

func (c *FaceCache) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.Size <= 0 {
		spec.Size = 12
	}
	if c.faces == nil {
		c.faces = map[FontSpec]font.Face{}
	}
	if face, ok := c.faces[spec]; ok {
		return face, metricsOf(face)
	}
	if f := c.Lib.find(spec); f != nil {
		// 72 dpi makes one point equal one scene pixel.
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.Size, DPI: 72, Hinting: font.HintingNone})
		if err == nil {
			c.faces[spec] = face
			return face, metricsOf(face)
		}
	}
	fb := c.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}

// Close releases every cached face.
func (c *FaceCache) Close() {
	for k, f := range c.faces {
		_ = f.Close()
		delete(c.faces, k)
	}
}
