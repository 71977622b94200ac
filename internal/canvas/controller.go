/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas implements the per-page editor: one interactive scene graph,
// object manipulation, snapping guides, crop handles, lock and dim states,
// layering, a single-slot clipboard and bounded undo/redo. Every committed
// change is reported as a decoration-free snapshot through OnPageChange.
package canvas

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"proposalwriter/internal/assets"
	"proposalwriter/internal/bom"
	"proposalwriter/internal/decor"
	"proposalwriter/internal/domain"
	"proposalwriter/internal/geom"
	plog "proposalwriter/internal/log"
	"proposalwriter/internal/pageload"
	"proposalwriter/internal/scene"
	"proposalwriter/internal/textlayout"
	"proposalwriter/internal/undo"
)

// ErrDisposed is returned by operations on a disposed controller.
var ErrDisposed = errors.New("canvas: controller disposed")

// State is the controller lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateLoading
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateLoading:
		return "loading"
	case StateDisposed:
		return "disposed"
	}
	return "uninitialized"
}

// Defaults for Options fields left at zero.
const (
	DefaultSnapThreshold = geom.DefaultSnapThreshold
	DefaultTextDebounce  = 120 * time.Millisecond
	DefaultPasteOffset   = 20.0
	DefaultImageWidth    = 300.0
	DefaultThumbScale    = 0.25
	MinOpacity           = 0.05
	DimOpacity           = 0.1
)

// Options configure a Controller. Callbacks run outside the controller lock.
type Options struct {
	Loader assets.Loader
	IDs    scene.IDGenerator
	Fonts  *textlayout.FontLibrary
	Now    func() time.Time
	Logger *slog.Logger

	HistoryLimit  int
	SnapThreshold float64
	TextDebounce  time.Duration
	PasteOffset   float64
	ImageWidth    float64
	ThumbScale    float64
	Controls      ControlStyle

	OnPageChange          func(pageID, sceneJSON string)
	OnReady               func(ready bool)
	OnTextSelectionChange func(SelectionState)
	OnInvalidate          func()
}

// PageContext carries the project data decorations are built from.
type PageContext struct {
	Project    domain.ProjectInfo
	Branding   domain.Branding
	PageNumber int
	TotalPages int
}

// Controller owns one interactive page graph. It is safe for concurrent use;
// all operations are serialized by an internal lock.
type Controller struct {
	opts     Options
	log      *slog.Logger
	controls *ControlFactory
	decor    *decor.Engine
	faces    *textlayout.FaceCache
	pass     *decor.Pass

	mu      sync.Mutex
	pending []func()

	state     State
	graph     *scene.Graph
	page      domain.Page
	pctx      PageContext
	history   *undo.History
	active    []*scene.Object
	clip      []*scene.Object
	pasteN    int
	style     TextStyle
	drag      *dragState
	guides    Guides
	textTmr   *time.Timer
	textDirty bool
	editing   bool
	captured  map[string]bool
}

// New constructs a ready controller with an empty page.
func New(opts Options) *Controller {
	if opts.IDs == nil {
		opts.IDs = scene.UUIDGenerator{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SnapThreshold <= 0 {
		opts.SnapThreshold = DefaultSnapThreshold
	}
	if opts.TextDebounce <= 0 {
		opts.TextDebounce = DefaultTextDebounce
	}
	if opts.PasteOffset == 0 {
		opts.PasteOffset = DefaultPasteOffset
	}
	if opts.ImageWidth <= 0 {
		opts.ImageWidth = DefaultImageWidth
	}
	if opts.ThumbScale <= 0 {
		opts.ThumbScale = DefaultThumbScale
	}
	logger := opts.Logger
	if logger == nil {
		logger = plog.WithComponent("canvas")
	}
	c := &Controller{
		opts:     opts,
		log:      logger,
		controls: NewControlFactory(opts.Controls),
		faces:    textlayout.NewFaceCache(opts.Fonts),
		graph:    scene.NewGraph(),
		history:  undo.New(undo.Config{MaxEntries: opts.HistoryLimit}),
		style:    DefaultTextStyle(),
		captured: map[string]bool{},
	}
	c.decor = decor.NewEngine(opts.Loader)
	c.decor.Fonts = opts.Fonts
	c.decor.Now = opts.Now
	c.decor.Sync = c.synchronized
	if snap, err := c.graph.Snapshot(); err == nil {
		c.history.Seed(snap)
	}
	c.state = StateReady
	return c
}

func (c *Controller) lock() { c.mu.Lock() }

// unlock releases the lock and then runs queued callbacks in order.
func (c *Controller) unlock() {
	evs := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, fn := range evs {
		fn()
	}
}

func (c *Controller) synchronized(fn func()) {
	c.lock()
	defer c.unlock()
	fn()
}

func (c *Controller) queue(fn func()) { c.pending = append(c.pending, fn) }

func (c *Controller) disposed() bool { return c.state == StateDisposed }

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.lock()
	defer c.unlock()
	return c.state
}

// PageID returns the id of the loaded page.
func (c *Controller) PageID() string {
	c.lock()
	defer c.unlock()
	return c.page.ID
}

// Objects returns the top-level nodes in draw order. The slice is a copy; the
// nodes are live and must not be mutated outside the controller.
func (c *Controller) Objects() []*scene.Object {
	c.lock()
	defer c.unlock()
	return append([]*scene.Object(nil), c.graph.Objects...)
}

// Snapshot returns the persistence form of the current graph.
func (c *Controller) Snapshot() (string, error) {
	c.lock()
	defer c.unlock()
	return c.graph.Snapshot()
}

// HistoryStats exposes the undo history size and index.
func (c *Controller) HistoryStats() (entries, index int) {
	_, n, i := c.history.Stats()
	return n, i
}

// HasPageChanges reports whether anything was committed since the page loaded.
func (c *Controller) HasPageChanges() bool { return c.history.Dirty() }

// Load switches to page: the graph is cleared, rebuilt from the stored scene
// or the default images, normalized and decorated, and history is reseeded.
// Pending text edits of the previous page are committed first.
func (c *Controller) Load(ctx context.Context, page domain.Page, pc PageContext) error {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return ErrDisposed
	}
	c.flushTextLocked()
	c.state = StateLoading
	c.queue(func() { c.emitReady(false) })
	c.decor.Cancel()
	c.page, c.pctx = page, pc
	c.active, c.drag, c.guides = nil, nil, Guides{}

	ctx = plog.ContextWithPage(ctx, page.ID)
	res := pageload.Hydrate(ctx, c.graph, page, c.opts.Loader)
	c.controls.Attach(c.graph)
	c.applyDecorationsLocked(ctx)

	snap, err := c.graph.Snapshot()
	if err != nil {
		return err
	}
	c.history.Seed(snap)
	c.state = StateReady
	c.log.DebugContext(ctx, "page loaded", slog.Bool("fromScene", res.FromScene), slog.Int("objects", len(c.graph.Objects)))
	c.queue(func() { c.emitReady(true) })
	c.selectionChangedLocked()
	c.invalidateLocked()
	return nil
}

// UpdateContext replaces the decoration data of the loaded page, e.g. after
// the project name changed, and redraws the decorations.
func (c *Controller) UpdateContext(ctx context.Context, pc PageContext) {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return
	}
	c.pctx = pc
	c.applyDecorationsLocked(ctx)
	c.invalidateLocked()
}

// applyDecorationsLocked starts a decoration pass. Page switches and Dispose
// cancel it through the engine, so it outlives the caller's context.
func (c *Controller) applyDecorationsLocked(ctx context.Context) {
	pageID := c.page.ID
	pc := c.pctx
	c.pass = c.decor.Apply(context.WithoutCancel(ctx), c.graph, decor.Options{
		HeaderText:         pc.Branding.HeaderText,
		HeaderProjectName:  pc.Project.ProjectName,
		HeaderCustomerName: pc.Project.CustomerName,
		FooterLogoURL:      pc.Branding.FooterLogoURL,
		StampURL:           pc.Branding.StampURL,
		PageNumber:         pc.PageNumber,
		TotalPages:         pc.TotalPages,
		DesignerEmail:      pc.Project.DesignerEmail,
		DesignerMobile:     pc.Project.MobileNo,
		// Runs under the controller lock.
		IsActive: func() bool { return !c.disposed() && c.page.ID == pageID },
		OnChange: c.invalidateLocked,
	})
}

// WaitDecorations blocks until the image loads of the latest decoration pass
// have settled.
func (c *Controller) WaitDecorations() {
	c.lock()
	p := c.pass
	c.unlock()
	if p != nil {
		p.Wait()
	}
}

// Dispose stops timers, cancels pending decoration passes and makes every
// later call a no-op. It is idempotent.
func (c *Controller) Dispose() {
	c.lock()
	defer c.unlock()
	if c.disposed() {
		return
	}
	if c.textTmr != nil {
		c.textTmr.Stop()
		c.textTmr = nil
	}
	c.decor.Cancel()
	c.faces.Close()
	c.state = StateDisposed
	c.active, c.clip, c.drag = nil, nil, nil
	c.log.Debug("controller disposed", slog.String("page", c.page.ID))
}

// commitLocked records the current graph as a history entry and reports it
// to OnPageChange. It returns false when the snapshot did not change.
func (c *Controller) commitLocked(reason string) bool {
	if c.disposed() {
		return false
	}
	c.graph.RaiseDecorations()
	snap, err := c.graph.Snapshot()
	if err != nil {
		c.log.Error("snapshot failed", slog.String("reason", reason), slog.Any("err", err))
		return false
	}
	if !c.history.Commit(snap) {
		return false
	}
	c.log.Debug("commit", slog.String("reason", reason), slog.String("page", c.page.ID))
	c.firePageChangeLocked(snap)
	c.invalidateLocked()
	return true
}

func (c *Controller) firePageChangeLocked(snap string) {
	if c.opts.OnPageChange == nil {
		return
	}
	pageID := c.page.ID
	c.queue(func() { c.opts.OnPageChange(pageID, snap) })
}

func (c *Controller) invalidateLocked() {
	if c.opts.OnInvalidate != nil {
		c.queue(c.opts.OnInvalidate)
	}
}

func (c *Controller) emitReady(ready bool) {
	if c.opts.OnReady != nil {
		c.opts.OnReady(ready)
	}
}

// reloadLocked replaces the content with snapshot snap and reruns the
// post-load normalization. Decorations stay in place and are reapplied.
func (c *Controller) reloadLocked(ctx context.Context, snap string) {
	parsed, err := scene.Parse([]byte(snap))
	if err != nil {
		c.log.Error("history snapshot unreadable", slog.Any("err", err))
		return
	}
	pixels := map[string]image.Image{}
	for _, o := range c.graph.Content() {
		o.Walk(func(n *scene.Object) {
			if n.IsImage() && n.Pixels != nil {
				pixels[n.Src] = n.Pixels
			}
		})
	}
	for _, o := range parsed.Objects {
		o.Walk(func(n *scene.Object) {
			if !n.IsImage() {
				return
			}
			if px, ok := pixels[n.Src]; ok {
				n.Pixels = px
				if n.NaturalWidth <= 0 || n.NaturalHeight <= 0 {
					b := px.Bounds()
					n.NaturalWidth, n.NaturalHeight = float64(b.Dx()), float64(b.Dy())
				}
			}
		})
	}
	pageload.AttachPixels(ctx, parsed.Objects, c.opts.Loader)

	c.graph.Objects = append(parsed.Objects, c.graph.Decorations()...)
	pageload.AssociateNotes(c.graph, c.page)
	bom.Consolidate(c.graph)
	c.controls.Attach(c.graph)
	c.active, c.drag, c.guides = nil, nil, Guides{}
	c.applyDecorationsLocked(ctx)
	c.selectionChangedLocked()
	c.invalidateLocked()
}
