/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"context"
	"strings"
)

// Nudge steps for arrow keys; Shift moves further.
const (
	NudgeStep      = 1.0
	NudgeShiftStep = 10.0
)

// HandleKey runs the editor binding for key, e.g. "z" with Ctrl for undo or
// "Delete". Keys are ignored while a text node is being edited, except
// Escape which ends the edit. It reports whether the key was consumed.
func (c *Controller) HandleKey(ctx context.Context, key string, mods Modifiers) bool {
	c.lock()
	disposed, editing := c.disposed(), c.editing
	c.unlock()
	if disposed {
		return false
	}
	if editing {
		if key == "Escape" {
			c.EndTextEdit()
			return true
		}
		return false
	}
	step := NudgeStep
	if mods.Shift {
		step = NudgeShiftStep
	}
	if mods.Ctrl {
		switch strings.ToLower(key) {
		case "z":
			if mods.Shift {
				return c.Redo(ctx)
			}
			return c.Undo(ctx)
		case "y":
			return c.Redo(ctx)
		case "c":
			return c.Copy()
		case "x":
			return c.Cut()
		case "v":
			return c.Paste()
		case "d":
			return c.Duplicate()
		case "a":
			c.SelectAll()
			return true
		case "l":
			return c.ToggleLock()
		case "]":
			return c.LayerUp()
		case "[":
			return c.LayerDown()
		}
		return false
	}
	switch key {
	case "Delete", "Backspace":
		return c.DeleteActive()
	case "Escape":
		c.ClearSelection()
		return true
	case "Enter":
		return c.BeginTextEdit()
	case "ArrowLeft":
		return c.Nudge(-step, 0)
	case "ArrowRight":
		return c.Nudge(step, 0)
	case "ArrowUp":
		return c.Nudge(0, -step)
	case "ArrowDown":
		return c.Nudge(0, step)
	}
	return false
}
