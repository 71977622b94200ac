/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"slices"

	"proposalwriter/internal/geom"
)

// Page dimensions in scene pixels (A4 at 96 dpi).
const (
	PageWidth  = 794.0
	PageHeight = 1123.0
)

// Graph is an ordered scene. Objects[0] is drawn first (bottom).
// Graph is not safe for concurrent use; callers serialize access.
type Graph struct {
	Width      float64
	Height     float64
	Background string
	Objects    []*Object
}

// NewGraph returns an empty page-sized graph with a white background.
func NewGraph() *Graph {
	return &Graph{Width: PageWidth, Height: PageHeight, Background: "#ffffff"}
}

// PageRect is the drawable page area.
func (g *Graph) PageRect() geom.Rect { return geom.R(0, 0, g.Width, g.Height) }

// Add appends objects on top of the stack.
func (g *Graph) Add(objs ...*Object) { g.Objects = append(g.Objects, objs...) }

// Insert places o at index i, clamped to the stack bounds.
func (g *Graph) Insert(i int, o *Object) {
	i = max(0, min(i, len(g.Objects)))
	g.Objects = slices.Insert(g.Objects, i, o)
}

// IndexOf returns the z-index of o, or -1 when o is not a top-level node.
func (g *Graph) IndexOf(o *Object) int { return slices.Index(g.Objects, o) }

// Contains reports whether o is a top-level node of g.
func (g *Graph) Contains(o *Object) bool { return g.IndexOf(o) >= 0 }

// Remove deletes o from the top level and reports whether it was present.
func (g *Graph) Remove(o *Object) bool {
	i := g.IndexOf(o)
	if i < 0 {
		return false
	}
	g.Objects = slices.Delete(g.Objects, i, i+1)
	return true
}

// RemoveFunc deletes every top-level node matching fn and returns them.
func (g *Graph) RemoveFunc(fn func(*Object) bool) []*Object {
	var removed []*Object
	g.Objects = slices.DeleteFunc(g.Objects, func(o *Object) bool {
		if fn(o) {
			removed = append(removed, o)
			return true
		}
		return false
	})
	return removed
}

// Clear drops every node.
func (g *Graph) Clear() { g.Objects = nil }

// Find returns the first top-level node with the given id.
func (g *Graph) Find(id string) *Object {
	for _, o := range g.Objects {
		if o.Data.ID == id {
			return o
		}
	}
	return nil
}

// Filter returns the top-level nodes matching fn in z-order.
func (g *Graph) Filter(fn func(*Object) bool) []*Object {
	var out []*Object
	for _, o := range g.Objects {
		if fn(o) {
			out = append(out, o)
		}
	}
	return out
}

// Decorations returns the decoration nodes in z-order.
func (g *Graph) Decorations() []*Object {
	return g.Filter((*Object).IsDecoration)
}

// Content returns every node that is not a decoration.
func (g *Graph) Content() []*Object {
	return g.Filter(func(o *Object) bool { return !o.IsDecoration() })
}

// TopmostAt returns the highest visible, evented node under p.
func (g *Graph) TopmostAt(p geom.Pt) *Object {
	for i := len(g.Objects) - 1; i >= 0; i-- {
		o := g.Objects[i]
		if o.Visible && o.Evented && o.Contains(p) {
			return o
		}
	}
	return nil
}

// RaiseDecorations moves decorations above all other nodes while keeping the
// relative order inside both partitions.
func (g *Graph) RaiseDecorations() {
	content := make([]*Object, 0, len(g.Objects))
	var decos []*Object
	for _, o := range g.Objects {
		if o.IsDecoration() {
			decos = append(decos, o)
		} else {
			content = append(content, o)
		}
	}
	g.Objects = append(content, decos...)
}

// BringToFront moves objs to the top of the content stack, below decorations.
func (g *Graph) BringToFront(objs []*Object) {
	g.restack(objs, false)
}

// SendToBack moves objs to the bottom of the stack.
func (g *Graph) SendToBack(objs []*Object) {
	g.restack(objs, true)
}

func (g *Graph) restack(objs []*Object, back bool) {
	if len(objs) == 0 {
		return
	}
	moving := make(map[*Object]bool, len(objs))
	for _, o := range objs {
		if g.Contains(o) && !o.IsDecoration() {
			moving[o] = true
		}
	}
	var picked, rest []*Object
	for _, o := range g.Objects {
		if moving[o] {
			picked = append(picked, o)
		} else {
			rest = append(rest, o)
		}
	}
	if back {
		g.Objects = append(picked, rest...)
	} else {
		g.Objects = append(rest, picked...)
	}
	g.RaiseDecorations()
}

// Clone deep-copies the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{Width: g.Width, Height: g.Height, Background: g.Background}
	c.Objects = make([]*Object, len(g.Objects))
	for i, o := range g.Objects {
		c.Objects[i] = o.Clone()
	}
	return c
}
