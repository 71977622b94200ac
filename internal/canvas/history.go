/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import "context"

// Undo restores the previous snapshot. It does nothing before the first
// change on the loaded page.
func (c *Controller) Undo(ctx context.Context) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	c.flushTextLocked()
	snap, ok := c.history.Undo()
	if !ok {
		return false
	}
	c.editing = false
	c.reloadLocked(ctx, snap)
	c.firePageChangeLocked(snap)
	return true
}

// Redo reapplies the snapshot undone last.
func (c *Controller) Redo(ctx context.Context) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	c.flushTextLocked()
	snap, ok := c.history.Redo()
	if !ok {
		return false
	}
	c.editing = false
	c.reloadLocked(ctx, snap)
	c.firePageChangeLocked(snap)
	return true
}

// CanUndo reports whether Undo would change the page.
func (c *Controller) CanUndo() bool { return c.history.CanUndo() }

// CanRedo reports whether Redo would change the page.
func (c *Controller) CanRedo() bool { return c.history.CanRedo() }
