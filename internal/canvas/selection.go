/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"slices"

	"proposalwriter/internal/scene"
)

// SelectionState is what the toolbar mirrors after every selection or style
// change. Style fields describe the first selected text node, or the default
// style when no text is selected.
type SelectionState struct {
	Count   int
	IsText  bool
	Locked  bool
	Dimmed  bool
	Opacity float64
	Angle   float64
	Style   TextStyle
}

// Select replaces the selection with the given top-level nodes. Nodes that are
// not selectable or not on the page are ignored.
func (c *Controller) Select(objs ...*scene.Object) {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return
	}
	c.selectLocked(objs)
}

// SelectByID selects the top-level nodes carrying the given ids.
func (c *Controller) SelectByID(ids ...string) {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return
	}
	var objs []*scene.Object
	for _, id := range ids {
		if o := c.graph.Find(id); o != nil {
			objs = append(objs, o)
		}
	}
	c.selectLocked(objs)
}

// SelectAll selects every selectable content node.
func (c *Controller) SelectAll() {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return
	}
	c.selectLocked(c.graph.Content())
}

// ClearSelection drops the selection and commits pending text edits.
func (c *Controller) ClearSelection() {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return
	}
	c.flushTextLocked()
	c.selectLocked(nil)
}

// Selection returns the selected nodes.
func (c *Controller) Selection() []*scene.Object {
	c.lock()
	defer c.unlock()
	return append([]*scene.Object(nil), c.active...)
}

func (c *Controller) selectLocked(objs []*scene.Object) {
	var sel []*scene.Object
	for _, o := range objs {
		if o == nil || !o.Selectable || !c.graph.Contains(o) || slices.Contains(sel, o) {
			continue
		}
		sel = append(sel, o)
	}
	if !slices.Equal(sel, c.active) {
		c.editing = false
	}
	c.active = sel
	c.selectionChangedLocked()
	c.invalidateLocked()
}

// pruneSelectionLocked drops selected nodes that left the graph.
func (c *Controller) pruneSelectionLocked() {
	c.active = slices.DeleteFunc(c.active, func(o *scene.Object) bool { return !c.graph.Contains(o) })
}

func (c *Controller) selectionStateLocked() SelectionState {
	st := SelectionState{Count: len(c.active), Style: c.style, Opacity: 1}
	if len(c.active) == 0 {
		return st
	}
	first := c.active[0]
	st.Locked = first.Data.UserLocked
	st.Dimmed = first.Data.ObjectDimmed
	st.Opacity = first.Opacity
	st.Angle = first.Angle
	for _, o := range c.active {
		if styleable(o) {
			st.IsText = true
			st.Style = styleOf(o)
			break
		}
	}
	return st
}

func (c *Controller) selectionChangedLocked() {
	if c.opts.OnTextSelectionChange == nil {
		return
	}
	st := c.selectionStateLocked()
	c.queue(func() { c.opts.OnTextSelectionChange(st) })
}

// CurrentSelectionState returns the toolbar state without waiting for a callback.
func (c *Controller) CurrentSelectionState() SelectionState {
	c.lock()
	defer c.unlock()
	return c.selectionStateLocked()
}

// The predicates below decide which nodes an operation may touch.
// Decorations are never user-editable; table parts are only editable as a
// whole group.

func styleable(o *scene.Object) bool {
	return o.IsText() && !o.IsDecoration() && !o.IsBOM()
}

func copyable(o *scene.Object) bool {
	return !o.IsDecoration() && !o.IsBOM()
}

func deletable(o *scene.Object) bool {
	if o.IsDecoration() {
		return false
	}
	if o.IsBOM() {
		return o.IsBOMGroup() && o.Data.BOMUserPlaced
	}
	return true
}

func editable(o *scene.Object) bool { return !o.IsDecoration() }

func transformable(o *scene.Object) bool {
	return !o.IsDecoration() && !o.IsBOM()
}

func (c *Controller) activeWhere(fn func(*scene.Object) bool) []*scene.Object {
	var out []*scene.Object
	for _, o := range c.active {
		if fn(o) {
			out = append(out, o)
		}
	}
	return out
}
