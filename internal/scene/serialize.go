/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FormatVersion is written to every serialized scene.
const FormatVersion = "5.3.0"

// ErrInvalidScene is returned when a stored scene cannot be used. Callers treat
// it as "no content" and fall back to the default layout.
var ErrInvalidScene = errors.New("invalid scene")

type document struct {
	Version    string    `json:"version"`
	Width      float64   `json:"width,omitempty"`
	Height     float64   `json:"height,omitempty"`
	Background string    `json:"background,omitempty"`
	Objects    []*Object `json:"objects"`
}

// UnmarshalJSON fills defaults for fields that older scenes omit.
func (o *Object) UnmarshalJSON(b []byte) error {
	type plain Object
	p := plain(*newObject(""))
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*o = Object(p)
	o.normalize()
	return nil
}

// UnmarshalJSON accepts only the line-indexed object form. Anything else,
// including the run-array form and null, decodes to an empty map.
func (s *StyleMap) UnmarshalJSON(b []byte) error {
	m := map[string]map[string]CharStyle{}
	if len(b) > 0 && b[0] == '{' {
		if err := json.Unmarshal(b, &m); err != nil {
			m = map[string]map[string]CharStyle{}
		}
	}
	*s = m
	return nil
}

func (o *Object) normalize() {
	o.Type = normalizeKind(o.Type)
	switch o.Type {
	case KindText:
		if o.TextProps == nil {
			o.TextProps = &TextProps{}
		}
	case KindImage:
		if o.ImageProps == nil {
			o.ImageProps = &ImageProps{}
		}
	case KindGroup:
		if o.GroupProps == nil {
			o.GroupProps = &GroupProps{}
		}
	}
	if o.TextProps != nil && o.Styles == nil {
		o.Styles = StyleMap{}
	}
	if o.ScaleX == 0 {
		o.ScaleX = 1
	}
	if o.ScaleY == 0 {
		o.ScaleY = 1
	}
}

// Parse validates and decodes a serialized scene. Empty input and any schema
// or syntax violation yield an error wrapping ErrInvalidScene.
func Parse(data []byte) (*Graph, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidScene)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: malformed json", ErrInvalidScene)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	g := NewGraph()
	if doc.Width > 0 {
		g.Width = doc.Width
	}
	if doc.Height > 0 {
		g.Height = doc.Height
	}
	if doc.Background != "" {
		g.Background = doc.Background
	}
	g.Objects = doc.Objects
	return g, nil
}

// Marshal serializes the graph. Decorations are dropped unless withDecorations
// is set; text styles are always normalized to an object.
func (g *Graph) Marshal(withDecorations bool) ([]byte, error) {
	objs := make([]*Object, 0, len(g.Objects))
	for _, o := range g.Objects {
		if !withDecorations && o.IsDecoration() {
			continue
		}
		o.Walk(func(n *Object) {
			if n.TextProps != nil && n.Styles == nil {
				n.Styles = StyleMap{}
			}
		})
		objs = append(objs, o)
	}
	return json.Marshal(document{
		Version:    FormatVersion,
		Width:      g.Width,
		Height:     g.Height,
		Background: g.Background,
		Objects:    objs,
	})
}

// Snapshot returns the persistence form of the graph: decorations excluded.
func (g *Graph) Snapshot() (string, error) {
	b, err := g.Marshal(false)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
