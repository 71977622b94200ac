/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"proposalwriter/internal/assets"
	"proposalwriter/internal/bundle"
	"proposalwriter/internal/canvas"
	"proposalwriter/internal/config"
	"proposalwriter/internal/domain"
	"proposalwriter/internal/export"
	applog "proposalwriter/internal/log"
	"proposalwriter/internal/scene"
	"proposalwriter/internal/storage"
)

// app carries the loaded configuration and the open proposal of one CLI run.
type app struct {
	cfg config.AppConfig
	out io.Writer
	ph  *storage.ProjectHandle
	ids scene.IDGenerator
}

// open loads the proposal at dir and returns ctx annotated with its root
// for logging.
func (a *app) open(ctx context.Context, dir string) (context.Context, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ctx, err
	}
	h, err := storage.Open(abs)
	if err != nil {
		return ctx, err
	}
	a.ph = h
	return applog.ContextWithProject(ctx, abs), nil
}

func (a *app) loader() assets.Loader { return assets.NewDefaultLoader(a.ph.Root) }

// branding fills unset project branding from the user config.
func (a *app) branding() domain.Branding {
	b := a.ph.Project.Branding
	if b.HeaderText == "" {
		b.HeaderText = a.cfg.Branding.HeaderText
	}
	if b.FooterLogoURL == "" {
		b.FooterLogoURL = a.cfg.Branding.FooterLogoURL
	}
	if b.StampURL == "" {
		b.StampURL = a.cfg.Branding.StampURL
	}
	if b.CoverLogoURL == "" {
		b.CoverLogoURL = a.cfg.Export.CoverLogoURL
	}
	return b
}

func (a *app) pageContext(n int) canvas.PageContext {
	return canvas.PageContext{
		Project:    a.ph.Project.Info,
		Branding:   a.branding(),
		PageNumber: n,
		TotalPages: len(a.ph.Project.Pages),
	}
}

// commitSink persists OnPageChange reports of a controller.
type commitSink struct {
	ctx context.Context
	ph  *storage.ProjectHandle

	mu  sync.Mutex
	n   int
	err error
}

func (s *commitSink) commit(pageID, sceneJSON string) {
	err := storage.CommitPage(s.ctx, s.ph, pageID, sceneJSON)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil && s.err == nil {
		s.err = err
	}
	if err == nil {
		s.n++
	}
}

func (s *commitSink) result() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n, s.err
}

func (a *app) newController(sink *commitSink) *canvas.Controller {
	return canvas.New(canvas.Options{
		Loader:        a.loader(),
		IDs:           a.ids,
		Logger:        applog.WithComponent("canvas"),
		HistoryLimit:  a.cfg.Editor.HistoryLimit,
		SnapThreshold: a.cfg.Editor.SnapThreshold,
		TextDebounce:  a.cfg.Editor.TextDebounce(),
		PasteOffset:   a.cfg.Editor.PasteOffset,
		ThumbScale:    a.cfg.Editor.ThumbScale,
		OnPageChange:  sink.commit,
	})
}

func (a *app) cmdInit(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: init requires <dir> and <name>", errUsage)
	}
	dir, name := args[0], args[1]
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	project := fs.String("project", name, "project name shown in the header")
	customer := fs.String("customer", "", "customer name")
	email := fs.String("email", "", "designer email")
	mobile := fs.String("mobile", "", "designer mobile number")
	header := fs.String("header", "", "header text (defaults to the config value)")
	layout := fs.String("layout", string(domain.LayoutSingle), "layout of the first page")
	if err := fs.Parse(args[2:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	p := domain.Project{
		Name:     name,
		Info:     domain.ProjectInfo{ProjectName: *project, CustomerName: *customer, DesignerEmail: *email, MobileNo: *mobile},
		Branding: domain.Branding{HeaderText: *header},
		Pages:    []domain.Page{{ID: storage.NewPageID(), Name: "Page 1", DefaultLayout: domain.Layout(*layout)}},
	}
	applog.WithComponent("cli").Info("init project", slog.String("root", abs), slog.String("name", name))
	h, err := storage.InitProject(abs, p)
	if err != nil {
		return err
	}
	a.ph = h
	fmt.Fprintln(a.out, "Created proposal at", abs)
	return nil
}

func (a *app) cmdOpen(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: open requires <dir>", errUsage)
	}
	ctx, err := a.open(ctx, args[0])
	if err != nil {
		return err
	}
	p := a.ph.Project
	rebuilt, err := storage.DetectAndRebuildIndex(ctx, a.ph.Root, p)
	if err != nil {
		applog.WithComponent("cli").WarnContext(ctx, "index check failed", slog.Any("err", err))
	}
	fmt.Fprintf(a.out, "Opened proposal: %s\n", p.Name)
	fmt.Fprintf(a.out, "Project: %s  Customer: %s\n", p.Info.ProjectName, p.Info.CustomerName)
	fmt.Fprintf(a.out, "Pages: %d\n", len(p.Pages))
	for i, pg := range p.Pages {
		state := "fresh"
		if pg.FabricJSON != nil {
			state = "edited"
		}
		kind := ""
		if pg.Kind != "" {
			kind = " [" + pg.Kind + "]"
		}
		fmt.Fprintf(a.out, "  %2d. %s%s (%s, %s)\n", i+1, pg.Name, kind, pg.ID, state)
	}
	if p.Table != nil {
		fmt.Fprintf(a.out, "Bill of materials: %d rows\n", len(p.Table.Rows))
	}
	if len(p.Captures) > 0 {
		fmt.Fprintf(a.out, "Queued captures: %d\n", len(p.Captures))
	}
	if rebuilt {
		fmt.Fprintln(a.out, "Index was damaged and has been rebuilt.")
	}
	fmt.Fprintln(a.out, "Root:", a.ph.Root)
	return nil
}

func (a *app) cmdPage(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: page requires <dir> and a subcommand", errUsage)
	}
	ctx, err := a.open(ctx, args[0])
	if err != nil {
		return err
	}
	sub, rest := args[1], args[2:]
	total := len(a.ph.Project.Pages)
	switch sub {
	case "add":
		fs := flag.NewFlagSet("page add", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		after := fs.Int("after", 0, "insert after page number (0 appends)")
		layout := fs.String("layout", "", "default layout")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		afterID := ""
		if *after > 0 {
			pg, err := storage.PageAt(a.ph, *after)
			if err != nil {
				return err
			}
			afterID = pg.ID
		}
		pg, err := storage.AddPage(a.ph, strings.Join(fs.Args(), " "), domain.Layout(*layout), afterID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added page %q (%s)\n", pg.Name, pg.ID)
	case "dup":
		n, err := pageArg(rest, total)
		if err != nil {
			return err
		}
		pg, _ := storage.PageAt(a.ph, n)
		cp, err := storage.DuplicatePage(a.ph, pg.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Duplicated page %d as %q\n", n, cp.Name)
	case "rm":
		n, err := pageArg(rest, total)
		if err != nil {
			return err
		}
		pg, _ := storage.PageAt(a.ph, n)
		if err := storage.DeletePage(a.ph, pg.ID); err != nil {
			return err
		}
		if err := storage.PurgePageIndex(ctx, a.ph, pg.ID); err != nil {
			applog.WithComponent("cli").WarnContext(ctx, "purge page index failed", slog.Any("err", err))
		}
		fmt.Fprintf(a.out, "Deleted page %d (%s)\n", n, pg.Name)
	case "mv":
		if len(rest) < 2 {
			return fmt.Errorf("%w: page mv requires <from> <to>", errUsage)
		}
		n, err := pageArg(rest[:1], total)
		if err != nil {
			return err
		}
		to, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("%w: bad target %q", errUsage, rest[1])
		}
		pg, _ := storage.PageAt(a.ph, n)
		if err := storage.MovePage(a.ph, pg.ID, to-1); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Moved page %d to %d\n", n, to)
	default:
		return fmt.Errorf("%w: unknown page subcommand %q", errUsage, sub)
	}
	return storage.Save(a.ph)
}

func (a *app) cmdAddText(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: add-text requires <dir> <page> <text>", errUsage)
	}
	ctx, err := a.open(ctx, args[0])
	if err != nil {
		return err
	}
	n, err := pageArg(args[1:2], len(a.ph.Project.Pages))
	if err != nil {
		return err
	}
	page, _ := storage.PageAt(a.ph, n)
	sink := &commitSink{ctx: ctx, ph: a.ph}
	c := a.newController(sink)
	defer c.Dispose()
	if err := c.Load(ctx, page, a.pageContext(n)); err != nil {
		return err
	}
	if c.AddText(nil) == nil {
		return fmt.Errorf("page %d: text not added", n)
	}
	c.BeginTextEdit()
	c.EditText(strings.Join(args[2:], " "))
	c.EndTextEdit()
	if _, err := sink.result(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added text to page %d\n", n)
	return nil
}

func (a *app) cmdCaptures(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: captures requires <dir>", errUsage)
	}
	ctx, err := a.open(ctx, args[0])
	if err != nil {
		return err
	}
	queued := a.ph.Project.Captures
	if len(queued) == 0 {
		fmt.Fprintln(a.out, "No queued captures.")
		return nil
	}
	ids := a.ids
	if ids == nil {
		ids = scene.UUIDGenerator{}
	}
	for i := range queued {
		if queued[i].ID == "" {
			queued[i].ID = ids.NewID()
		}
	}
	first := a.ph.Project.Pages[0]
	sink := &commitSink{ctx: ctx, ph: a.ph}
	c := a.newController(sink)
	defer c.Dispose()
	if err := c.Load(ctx, first, a.pageContext(1)); err != nil {
		return err
	}
	n, err := c.InsertCaptures(ctx, first, queued)
	if err != nil {
		return err
	}
	if _, err := sink.result(); err != nil {
		return err
	}
	var kept []domain.Capture
	for _, cp := range queued {
		if !c.CaptureInserted(cp.ID) {
			applog.WithComponent("cli").WarnContext(ctx, "capture not placed, kept in queue", slog.String("capture", cp.ID))
			kept = append(kept, cp)
		}
	}
	a.ph.Project.Captures = kept
	if err := storage.Save(a.ph); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Placed %d of %d captures on page 1\n", n, len(queued))
	if len(kept) > 0 {
		fmt.Fprintf(a.out, "%d unreadable captures remain queued\n", len(kept))
	}
	return nil
}

func (a *app) cmdImportBOM(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: import-bom requires <dir> <table.json>", errUsage)
	}
	ctx, err := a.open(ctx, args[0])
	if err != nil {
		return err
	}
	b, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	var t domain.TableData
	if err := json.Unmarshal(b, &t); err != nil {
		return fmt.Errorf("parse table: %w", err)
	}
	normalizeTable(&t)
	pages, err := storage.ImportTable(a.ph, t, a.ids)
	if err != nil {
		return err
	}
	if err := storage.Save(a.ph); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d rows into %d table page(s)\n", len(t.Rows), len(pages))
	return nil
}

// normalizeTable derives missing line totals and the grand total.
func normalizeTable(t *domain.TableData) {
	sum := 0.0
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.Total == 0 && r.Qty != 0 {
			r.Total = math.Round(r.UnitPrice*float64(r.Qty)*100) / 100
		}
		sum += r.Total
	}
	if t.GrandTotal == 0 {
		t.GrandTotal = math.Round(sum*100) / 100
	}
}

func (a *app) cmdExportPDF(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: export-pdf requires <dir>", errUsage)
	}
	ctx, err := a.open(ctx, args[0])
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("export-pdf", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("o", storage.ExportsDir(a.ph), "output directory")
	scale := fs.Float64("scale", a.cfg.Export.Scale, "raster scale of page backgrounds")
	pages := fs.String("pages", "", "page numbers, e.g. 1,3-4 (default all)")
	noCover := fs.Bool("no-cover", false, "omit the cover page")
	title := fs.String("title", "", "document title")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	idx, err := parsePageList(*pages, len(a.ph.Project.Pages))
	if err != nil {
		return err
	}
	comp := export.NewComposer(a.loader())
	path, err := comp.SavePDF(ctx, *out, pickPages(a.ph.Project.Pages, idx), export.PDFOptions{
		Project:  a.ph.Project.Info,
		Branding: a.branding(),
		Title:    *title,
		Scale:    *scale,
		Quality:  a.cfg.Export.JPEGQuality,
		Parallel: a.cfg.Export.Parallel,
		NoCover:  *noCover,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Wrote", path)
	return nil
}

func (a *app) cmdExportPNG(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: export-png requires <dir>", errUsage)
	}
	ctx, err := a.open(ctx, args[0])
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("export-png", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("o", storage.ExportsDir(a.ph), "output directory")
	preset := fs.String("preset", string(export.PresetWeb), "export preset: web or print")
	format := fs.String("format", "", "png or jpeg (default from config)")
	scale := fs.Float64("scale", 0, "override the preset scale")
	pages := fs.String("pages", "", "page numbers, e.g. 1,3-4 (default all)")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	idx, err := parsePageList(*pages, len(a.ph.Project.Pages))
	if err != nil {
		return err
	}
	f := *format
	if f == "" {
		f = a.cfg.Export.Format
	}
	proj := a.ph.Project
	proj.Branding = a.branding()
	comp := export.NewComposer(a.loader())
	written, err := comp.BatchExport(ctx, proj, export.BatchOptions{
		Preset:  export.PresetName(*preset),
		Formats: []string{f},
		Pages:   idx,
		Scale:   *scale,
		OutDir:  *out,
	})
	for _, p := range written {
		fmt.Fprintln(a.out, "Wrote", p)
	}
	return err
}

func (a *app) cmdThumbs(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: thumbs requires <dir>", errUsage)
	}
	ctx, err := a.open(ctx, args[0])
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("thumbs", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	force := fs.Bool("force", false, "drop cached thumbnails first")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	s := a.cfg.Editor.ThumbScale
	w := int(math.Round(float64(a.cfg.Page.Width) * s))
	h := int(math.Round(float64(a.cfg.Page.Height) * s))
	dir := filepath.Join(storage.ExportsDir(a.ph), "thumbs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	comp := export.NewComposer(a.loader())
	total := len(a.ph.Project.Pages)
	for i, pg := range a.ph.Project.Pages {
		if *force {
			_ = storage.InvalidatePreviews(ctx, a.ph.Root, pg.ID)
		}
		opts := export.PageOptions{
			Project:    a.ph.Project.Info,
			Branding:   a.branding(),
			PageNumber: i + 1,
			TotalPages: total,
			Scale:      s,
			Format:     assets.FormatPNG,
		}
		data, err := storage.GetOrCreatePreview(ctx, a.ph.Root, pg.ID, storage.PreviewKindThumb, w, h, func(ctx context.Context) ([]byte, error) {
			return comp.RenderPageToImage(ctx, pg, opts)
		})
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("page-%d.png", i+1))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Wrote", path)
	}
	return nil
}

func (a *app) cmdHistory(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: history requires <dir> <page>", errUsage)
	}
	ctx, err := a.open(ctx, args[0])
	if err != nil {
		return err
	}
	n, err := pageArg(args[1:2], len(a.ph.Project.Pages))
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	restore := fs.Int("restore", -1, "restore the snapshot with this index")
	if err := fs.Parse(args[2:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	pg, _ := storage.PageAt(a.ph, n)
	list, err := storage.ListSnapshots(ctx, a.ph, pg.ID, storage.HistoryCap)
	if err != nil {
		return err
	}
	if *restore < 0 {
		if len(list) == 0 {
			fmt.Fprintf(a.out, "Page %d has no history.\n", n)
			return nil
		}
		for i, s := range list {
			fmt.Fprintf(a.out, "%3d  %s  %-8s %d bytes\n", i, s.TS.Local().Format("2006-01-02 15:04:05"), s.Reason, len(s.Scene))
		}
		return nil
	}
	if *restore >= len(list) {
		return fmt.Errorf("no snapshot %d (page %d has %d)", *restore, n, len(list))
	}
	snap := list[*restore].Scene
	if _, err := scene.Parse(snap); err != nil {
		return fmt.Errorf("snapshot %d: %w", *restore, err)
	}
	if err := storage.CommitPage(ctx, a.ph, pg.ID, string(snap)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Restored page %d to snapshot %d\n", n, *restore)
	return nil
}

func (a *app) cmdPack(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: pack requires <dir> <out.zip>", errUsage)
	}
	ctx, err := a.open(ctx, args[0])
	if err != nil {
		return err
	}
	n, err := bundle.Pack(a.ph.Root, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Packed %d files into %s\n", n, args[1])
	return nil
}

func (a *app) cmdUnpack(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: unpack requires <bundle.zip> <dir>", errUsage)
	}
	abs, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}
	h, err := bundle.Unpack(ctx, args[0], abs)
	if err != nil {
		return err
	}
	a.ph = h
	fmt.Fprintf(a.out, "Unpacked %q with %d pages into %s\n", h.Project.Name, len(h.Project.Pages), abs)
	return nil
}

// pageArg parses a 1-based page number.
func pageArg(args []string, total int) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: page number required", errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > total {
		return 0, fmt.Errorf("%w: page must be 1..%d, got %q", errUsage, total, args[0])
	}
	return n, nil
}

// parsePageList turns "1,3-4" into zero-based indices. Empty means all pages.
func parsePageList(s string, total int) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []int
	seen := map[int]bool{}
	add := func(n int) error {
		if n < 1 || n > total {
			return fmt.Errorf("%w: page %d out of range 1..%d", errUsage, n, total)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n-1)
		}
		return nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("%w: bad page %q", errUsage, part)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || b < a {
				return nil, fmt.Errorf("%w: bad range %q", errUsage, part)
			}
		}
		for n := a; n <= b; n++ {
			if err := add(n); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func pickPages(all []domain.Page, idx []int) []domain.Page {
	if len(idx) == 0 {
		return all
	}
	out := make([]domain.Page, 0, len(idx))
	for _, i := range idx {
		out = append(out, all[i])
	}
	return out
}
