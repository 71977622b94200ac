/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"proposalwriter/internal/geom"
	"proposalwriter/internal/scene"
	"proposalwriter/internal/textlayout"
)

// Text defaults for new nodes.
const (
	DefaultText      = "Double-click to edit"
	DefaultTextWidth = 240.0
	DefaultFontSize  = 18.0
	DefaultTextColor = "#111827"
)

// DefaultTextOrigin is where AddText places a node when no point is given.
var DefaultTextOrigin = geom.Pt{X: 80, Y: 170}

// TextStyle is the style carried by the toolbar and applied to new text.
type TextStyle struct {
	Bold      bool
	Italic    bool
	Underline bool
	Align     string
	Fill      string
	FontSize  float64
}

// DefaultTextStyle is the style of the first text node on a fresh controller.
func DefaultTextStyle() TextStyle {
	return TextStyle{Align: "left", Fill: DefaultTextColor, FontSize: DefaultFontSize}
}

// StylePatch changes the style of selected text. Toggle fields flip the
// current state; Fill and FontSize are assigned when set.
type StylePatch struct {
	ToggleBold      bool
	ToggleItalic    bool
	ToggleUnderline bool
	Fill            string
	FontSize        float64
}

func (p StylePatch) empty() bool {
	return !p.ToggleBold && !p.ToggleItalic && !p.ToggleUnderline && p.Fill == "" && p.FontSize <= 0
}

func styleOf(o *scene.Object) TextStyle {
	return TextStyle{
		Bold:      isBold(o.FontWeight),
		Italic:    o.FontStyle == "italic" || o.FontStyle == "oblique",
		Underline: o.Underline,
		Align:     orDefault(o.TextAlign, "left"),
		Fill:      orDefault(o.Fill, DefaultTextColor),
		FontSize:  o.FontSize,
	}
}

func isBold(weight string) bool {
	return textlayout.SpecFor("", 1, weight, "").Bold
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func applyStyle(o *scene.Object, st TextStyle) {
	o.FontWeight = "normal"
	if st.Bold {
		o.FontWeight = "bold"
	}
	o.FontStyle = "normal"
	if st.Italic {
		o.FontStyle = "italic"
	}
	o.Underline = st.Underline
	o.TextAlign = orDefault(st.Align, "left")
	o.Fill = orDefault(st.Fill, DefaultTextColor)
	if st.FontSize > 0 {
		o.FontSize = st.FontSize
	}
}

// fitTextHeight grows or shrinks a text node's box to its wrapped content.
func (c *Controller) fitTextHeight(o *scene.Object) []textlayout.Line {
	spec := textlayout.SpecFor(o.FontFamily, o.FontSize, o.FontWeight, o.FontStyle)
	lines := textlayout.Wrap(c.faces, spec, o.Text, o.Width)
	o.Height = textlayout.BlockHeight(max(1, len(lines)), o.FontSize, o.LineHeight)
	return lines
}

// AddText inserts an editable text node in the last-used style at the
// default origin, or at the given point, clamped inside the page.
func (c *Controller) AddText(at *geom.Pt) *scene.Object {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return nil
	}
	c.flushTextLocked()
	p := DefaultTextOrigin
	if at != nil {
		p = *at
	}
	o := scene.NewText(DefaultText, p.X, p.Y, DefaultTextWidth, c.style.FontSize)
	applyStyle(o, c.style)
	c.fitTextHeight(o)
	box := geom.ClampInside(o.Box(), c.graph.PageRect())
	o.Left, o.Top = box.X, box.Y
	c.controls.AttachTo(o)
	c.graph.Add(o)
	c.selectLocked([]*scene.Object{o})
	c.commitLocked("add-text")
	return o
}

// SetTextStyle applies patch to every selected text node. Table and
// decoration text is never restyled. The result becomes the default style
// for new text.
func (c *Controller) SetTextStyle(patch StylePatch) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() || patch.empty() {
		return false
	}
	targets := c.activeWhere(styleable)
	if len(targets) == 0 {
		next := c.style
		patchStyle(&next, patch, c.style)
		c.style = next
		c.selectionChangedLocked()
		return false
	}
	ref := styleOf(targets[0])
	for _, o := range targets {
		st := styleOf(o)
		patchStyle(&st, patch, ref)
		applyStyle(o, st)
		c.fitTextHeight(o)
	}
	c.style = styleOf(targets[0])
	c.selectionChangedLocked()
	return c.commitLocked("text-style")
}

// patchStyle toggles relative to ref so a mixed selection converges.
func patchStyle(st *TextStyle, p StylePatch, ref TextStyle) {
	if p.ToggleBold {
		st.Bold = !ref.Bold
	}
	if p.ToggleItalic {
		st.Italic = !ref.Italic
	}
	if p.ToggleUnderline {
		st.Underline = !ref.Underline
	}
	if p.Fill != "" {
		st.Fill = p.Fill
	}
	if p.FontSize > 0 {
		st.FontSize = p.FontSize
	}
}

// AlignObjects sets the horizontal text alignment of the selected text nodes,
// or of every editable text node on the page when none is selected.
func (c *Controller) AlignObjects(align string) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return false
	}
	switch align {
	case "left", "center", "right", "justify":
	default:
		return false
	}
	targets := c.activeWhere(styleable)
	if len(targets) == 0 {
		targets = c.graph.Filter(styleable)
	}
	changed := false
	for _, o := range targets {
		if o.TextAlign != align {
			o.TextAlign = align
			changed = true
		}
	}
	c.style.Align = align
	c.selectionChangedLocked()
	if !changed {
		return false
	}
	return c.commitLocked("align")
}

// BeginTextEdit enters editing mode on the selected text node.
func (c *Controller) BeginTextEdit() bool {
	c.lock()
	defer c.unlock()
	if c.disposed() || len(c.active) != 1 || !styleable(c.active[0]) || c.active[0].MovementLocked() {
		return false
	}
	c.editing = true
	return true
}

// Editing reports whether a text node is being edited.
func (c *Controller) Editing() bool {
	c.lock()
	defer c.unlock()
	return c.editing
}

// EditText replaces the content of the text node being edited. Commits are
// debounced so a burst of keystrokes yields one history entry.
func (c *Controller) EditText(text string) bool {
	c.lock()
	defer c.unlock()
	if c.disposed() || !c.editing || len(c.active) != 1 {
		return false
	}
	o := c.active[0]
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if o.Text == text {
		return false
	}
	o.Text = text
	pruneStyles(o, c.fitTextHeight(o))
	c.textDirty = true
	if c.textTmr != nil {
		c.textTmr.Stop()
	}
	c.textTmr = time.AfterFunc(c.opts.TextDebounce, c.debouncedTextCommit)
	c.invalidateLocked()
	return true
}

func (c *Controller) debouncedTextCommit() {
	c.lock()
	defer c.unlock()
	c.textTmr = nil
	if c.disposed() || !c.textDirty {
		return
	}
	c.textDirty = false
	c.commitLocked("text-edit")
}

// EndTextEdit leaves editing mode and commits pending edits.
func (c *Controller) EndTextEdit() {
	c.lock()
	defer c.unlock()
	c.flushTextLocked()
	c.editing = false
}

// FlushTextEdits commits pending text edits immediately. Callers flush before
// switching pages or exporting.
func (c *Controller) FlushTextEdits() bool {
	c.lock()
	defer c.unlock()
	return c.flushTextLocked()
}

func (c *Controller) flushTextLocked() bool {
	if c.textTmr != nil {
		c.textTmr.Stop()
		c.textTmr = nil
	}
	if c.disposed() || !c.textDirty {
		return false
	}
	c.textDirty = false
	return c.commitLocked("text-edit")
}

// pruneStyles drops per-character styles that point past the end of a
// wrapped line.
func pruneStyles(o *scene.Object, lines []textlayout.Line) {
	for li, chars := range o.Styles {
		n, err := strconv.Atoi(li)
		if err != nil || n < 0 || n >= len(lines) {
			delete(o.Styles, li)
			continue
		}
		runes := utf8.RuneCountInString(lines[n].Text)
		for ci := range chars {
			if k, err := strconv.Atoi(ci); err != nil || k < 0 || k >= runes {
				delete(chars, ci)
			}
		}
		if len(chars) == 0 {
			delete(o.Styles, li)
		}
	}
}
