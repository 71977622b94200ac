/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"proposalwriter/internal/geom"
	"proposalwriter/internal/scene"
)

// Copy places deep copies of the selected content in the clipboard. Tables
// and decorations are never copied.
func (c *Controller) Copy() bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	return c.copyLocked()
}

func (c *Controller) copyLocked() bool {
	src := c.activeWhere(copyable)
	if len(src) == 0 {
		return false
	}
	c.clip = c.clip[:0]
	for _, o := range src {
		c.clip = append(c.clip, o.Clone())
	}
	c.pasteN = 0
	return true
}

// HasClipboard reports whether Paste has anything to insert.
func (c *Controller) HasClipboard() bool {
	c.lock()
	defer c.unlock()
	return len(c.clip) > 0
}

// Cut copies the selection and removes what was copied.
func (c *Controller) Cut() bool {
	c.lock()
	defer c.unlock()
	if c.disposed() || !c.copyLocked() {
		return false
	}
	return c.deleteLocked(c.activeWhere(copyable))
}

// Paste inserts copies of the clipboard, each paste offset further from the
// original. Pasted images lose the default-image tag.
func (c *Controller) Paste() bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	return c.pasteLocked()
}

func (c *Controller) pasteLocked() bool {
	if len(c.clip) == 0 {
		return false
	}
	c.pasteN++
	d := c.opts.PasteOffset * float64(c.pasteN)
	page := c.graph.PageRect()
	var pasted []*scene.Object
	for _, o := range c.clip {
		n := o.Clone()
		if n.IsDefaultImage() {
			n.Data.ID = ""
		}
		n.Data.CaptureID = ""
		if n.IsImage() {
			n.Notes = nil
		}
		n.MoveBy(d, d)
		b := n.Bounds()
		nb := geom.ClampInside(b, page)
		n.MoveBy(nb.X-b.X, nb.Y-b.Y)
		c.controls.AttachTo(n)
		c.graph.Add(n)
		pasted = append(pasted, n)
	}
	c.selectLocked(pasted)
	return c.commitLocked("paste")
}

// Duplicate copies the selection and pastes it in one step.
func (c *Controller) Duplicate() bool {
	c.lock()
	defer c.unlock()
	if c.disposed() || !c.copyLocked() {
		return false
	}
	return c.pasteLocked()
}
