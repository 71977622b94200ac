/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package decor injects the fixed header, footer and branding layer onto a
// page graph. The same engine serves the interactive editor and exports.
package decor

import (
	"context"
	"image"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"proposalwriter/internal/assets"
	plog "proposalwriter/internal/log"
	"proposalwriter/internal/scene"
	"proposalwriter/internal/textlayout"
)

// Layout constants in scene pixels.
const (
	SideMargin      = 40.0
	HeaderTop       = 48.0
	FooterLogoWidth = 120.0
	StampWidth      = 110.0
	DateLayout      = "Jan 02, 2006"
	headerSep       = " – "
)

// Segment colors of the composed header.
const (
	ProjectColor  = "#1d4ed8"
	HeaderColor   = "#111827"
	CustomerColor = "#b45309"
	SepColor      = "#6b7280"
)

// Options describe one decoration pass.
type Options struct {
	HeaderText         string
	HeaderProjectName  string
	HeaderCustomerName string
	FooterLogoURL      string
	StampURL           string
	PageNumber         int
	TotalPages         int
	DesignerEmail      string
	DesignerMobile     string

	// IsActive is consulted before an async image is committed. Nil means always active.
	IsActive func() bool
	// OnChange runs after an async image was committed, under Sync.
	OnChange func()
}

// Engine applies decorations. Each Apply starts a new generation; async
// completions of older generations are discarded.
type Engine struct {
	Loader assets.Loader
	Fonts  *textlayout.FontLibrary
	Now    func() time.Time
	// Sync serializes async commits with other graph mutations. When nil the
	// engine's own mutex is used.
	Sync func(func())

	mu  sync.Mutex
	gen atomic.Uint64
	log *slog.Logger
}

// NewEngine returns an engine loading images through loader.
func NewEngine(loader assets.Loader) *Engine {
	return &Engine{Loader: loader, Now: time.Now, log: plog.WithComponent("decor")}
}

// Pass tracks the async part of one Apply call.
type Pass struct {
	Generation uint64
	wg         sync.WaitGroup
}

// Wait blocks until every image load of the pass has finished or been dropped.
// Callers must not hold the lock used by Engine.Sync.
func (p *Pass) Wait() { p.wg.Wait() }

// Cancel invalidates every pending pass.
func (e *Engine) Cancel() { e.gen.Add(1) }

// Generation is the current pass stamp.
func (e *Engine) Generation() uint64 { return e.gen.Load() }

// Apply replaces all decorations on g. Text decorations are added
// synchronously; footer logo and stamp are loaded in the background and
// committed only if the pass is still current.
func (e *Engine) Apply(ctx context.Context, g *scene.Graph, opts Options) *Pass {
	p := &Pass{Generation: e.gen.Add(1)}
	logger := e.log
	if logger == nil {
		logger = plog.WithComponent("decor")
	}

	contact := g.Find(scene.IDContact)
	g.RemoveFunc(func(o *scene.Object) bool { return o.IsDecoration() && o != contact })

	fc := textlayout.NewFaceCache(e.Fonts)
	defer fc.Close()
	if h := header(fc, opts); h != nil {
		g.Add(h)
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	g.Add(date(fc, now()))
	if opts.PageNumber > 0 && opts.TotalPages > 0 {
		g.Add(pageNumber(fc, opts.PageNumber, opts.TotalPages))
	}
	if text := contactText(opts); text == "" {
		if contact != nil {
			g.Remove(contact)
		}
	} else if contact != nil {
		updateContact(fc, contact, text)
	} else {
		g.Add(newContact(fc, text))
	}
	g.RaiseDecorations()

	commit := e.Sync
	if commit == nil {
		commit = func(fn func()) {
			e.mu.Lock()
			defer e.mu.Unlock()
			fn()
		}
	}
	for _, img := range []struct {
		id, url string
		place   func(image.Image, string) *scene.Object
	}{
		{scene.IDFooterLogo, opts.FooterLogoURL, footerLogo},
		{scene.IDStamp, opts.StampURL, stamp},
	} {
		if img.url == "" || e.Loader == nil {
			continue
		}
		img := img
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			pix, err := e.Loader.Load(ctx, img.url)
			if err != nil {
				logger.Debug("decoration image skipped", slog.String("id", img.id), slog.Any("err", err))
				return
			}
			commit(func() {
				if e.gen.Load() != p.Generation || ctx.Err() != nil || (opts.IsActive != nil && !opts.IsActive()) {
					logger.Debug("stale decoration discarded", slog.String("id", img.id), slog.Uint64("gen", p.Generation))
					return
				}
				g.RemoveFunc(func(o *scene.Object) bool { return o.Data.ID == img.id })
				g.Add(img.place(pix, img.url))
				g.RaiseDecorations()
				if opts.OnChange != nil {
					opts.OnChange()
				}
			})
		}()
	}
	return p
}

func fixed(o *scene.Object, id string) *scene.Object {
	o.Data.ID = id
	o.Selectable = false
	o.Evented = false
	o.SetInteractionLocked(true)
	return o
}

func textNode(fc *textlayout.FaceCache, style, text string, left, top float64) *scene.Object {
	st := textlayout.MustStyle(style)
	width := 0.0
	for _, line := range strings.Split(text, "\n") {
		width = max(width, textlayout.Measure(fc, st.Font, line))
	}
	o := scene.NewText(text, left, top, width+1, st.Font.Size)
	o.FontFamily = st.Font.Family
	if st.Font.Bold {
		o.FontWeight = "bold"
	}
	if st.Font.Italic {
		o.FontStyle = "italic"
	}
	o.LineHeight = st.LineHeight
	o.Height = textlayout.BlockHeight(strings.Count(text, "\n")+1, st.Font.Size, st.LineHeight)
	o.Fill = st.Fill
	return o
}

func header(fc *textlayout.FaceCache, opts Options) *scene.Object {
	type seg struct{ text, color string }
	var segs []seg
	for _, s := range []seg{
		{opts.HeaderProjectName, ProjectColor},
		{opts.HeaderText, HeaderColor},
		{opts.HeaderCustomerName, CustomerColor},
	} {
		if strings.TrimSpace(s.text) == "" {
			continue
		}
		if len(segs) > 0 {
			segs = append(segs, seg{headerSep, SepColor})
		}
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		return nil
	}
	var children []*scene.Object
	x, h := 0.0, 0.0
	for _, s := range segs {
		t := textNode(fc, "Header", s.text, x, 0)
		t.Fill = s.color
		children = append(children, t)
		x += t.Width
		h = max(h, t.Height)
	}
	grp := scene.NewGroup((scene.PageWidth-x)/2, HeaderTop, x, h, children...)
	return fixed(grp, scene.IDHeader)
}

func date(fc *textlayout.FaceCache, now time.Time) *scene.Object {
	t := textNode(fc, "Footer", now.Format(DateLayout), 0, HeaderTop)
	t.Left = scene.PageWidth - SideMargin - t.Width
	t.TextAlign = "right"
	return fixed(t, scene.IDDate)
}

func pageNumber(fc *textlayout.FaceCache, n, total int) *scene.Object {
	t := textNode(fc, "Footer", "Page "+strconv.Itoa(n)+" of "+strconv.Itoa(total), SideMargin, 0)
	t.Top = scene.PageHeight - SideMargin - t.Height
	return fixed(t, scene.IDPageNumber)
}

func contactText(opts Options) string {
	var parts []string
	for _, s := range []string{opts.DesignerEmail, opts.DesignerMobile} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func newContact(fc *textlayout.FaceCache, text string) *scene.Object {
	t := textNode(fc, "Footer", text, SideMargin, 0)
	t.Top = scene.PageHeight - 2*SideMargin - t.Height
	t.Data.ID = scene.IDContact
	moveOnly(t)
	return t
}

// updateContact rewrites the block in place, keeping the user's position.
func updateContact(fc *textlayout.FaceCache, o *scene.Object, text string) {
	fresh := textNode(fc, "Footer", text, o.Left, o.Top)
	if o.TextProps == nil {
		o.TextProps = fresh.TextProps
	} else {
		o.Text = text
		o.Styles = scene.StyleMap{}
	}
	o.Width, o.Height = fresh.Width, fresh.Height
	o.ScaleX, o.ScaleY, o.Angle = 1, 1, 0
	moveOnly(o)
}

// moveOnly lets the block be dragged but never resized, rotated or deleted.
func moveOnly(o *scene.Object) {
	o.Selectable = true
	o.Evented = true
	o.LockMovementX = false
	o.LockMovementY = false
	o.LockScalingX = true
	o.LockScalingY = true
	o.LockRotation = true
	o.HasControls = false
}

func imageNode(pix image.Image, src string, width float64) *scene.Object {
	b := pix.Bounds()
	o := scene.NewImage(src, float64(b.Dx()), float64(b.Dy()))
	o.Pixels = pix
	if b.Dx() > 0 {
		o.ScaleX = width / float64(b.Dx())
		o.ScaleY = o.ScaleX
	}
	return o
}

func footerLogo(pix image.Image, src string) *scene.Object {
	o := imageNode(pix, src, FooterLogoWidth)
	o.Left = (scene.PageWidth - o.ScaledWidth()) / 2
	o.Top = scene.PageHeight - 20 - o.ScaledHeight()
	return fixed(o, scene.IDFooterLogo)
}

func stamp(pix image.Image, src string) *scene.Object {
	o := imageNode(pix, src, StampWidth)
	o.Left = scene.PageWidth - SideMargin - o.ScaledWidth()
	o.Top = scene.PageHeight - 30 - o.ScaledHeight()
	return fixed(o, scene.IDStamp)
}
