/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/sync/errgroup"

	"proposalwriter/internal/assets"
	"proposalwriter/internal/bom"
	"proposalwriter/internal/domain"
	"proposalwriter/internal/geom"
	"proposalwriter/internal/render"
	"proposalwriter/internal/scene"
	"proposalwriter/internal/textlayout"
)

// A4 in points.
const (
	PageWidthPt  = 595.0
	PageHeightPt = 842.0
)

// Scale factors from page pixels to PDF points.
const (
	PxToPtX = PageWidthPt / scene.PageWidth
	PxToPtY = PageHeightPt / scene.PageHeight
)

// DefaultPDFScale is the raster multiplier of PDF page backgrounds.
const DefaultPDFScale = 2.0

// PDFOptions control a PDF export.
type PDFOptions struct {
	Project  domain.ProjectInfo
	Branding domain.Branding
	Title    string

	// Scale is the raster multiplier of page backgrounds.
	Scale   float64
	Quality int
	// Parallel bounds concurrent page renders. Zero uses GOMAXPROCS.
	Parallel int
	NoCover  bool
	// NoCompression leaves content streams readable.
	NoCompression bool
}

// PDFFileName is the download name of an export made at t.
func PDFFileName(t time.Time) string {
	return "proposal-" + strconv.FormatInt(t.UnixMilli(), 10) + ".pdf"
}

type renderedPage struct {
	id      string
	jpeg    []byte
	graph   *scene.Graph
	overlay Overlay
}

// ExportPagesAsPDF writes a cover page followed by one page per entry of
// pages. Each page is a full-bleed raster with text, header and table
// redrawn as vector content on top.
func (c *Composer) ExportPagesAsPDF(ctx context.Context, w io.Writer, pages []domain.Page, opts PDFOptions) error {
	if len(pages) == 0 {
		return fmt.Errorf("export pdf: no pages")
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultPDFScale
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	par := opts.Parallel
	if par <= 0 {
		par = runtime.GOMAXPROCS(0)
	}

	out := make([]renderedPage, len(pages))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(par)
	for i, page := range pages {
		i, page := i, page
		eg.Go(func() error {
			g := c.BuildPageGraph(ectx, page, PageOptions{
				Project:    opts.Project,
				Branding:   opts.Branding,
				PageNumber: i + 1,
				TotalPages: len(pages),
			})
			ov := PlanOverlay(g)
			img := render.Rasterize(g, render.Options{Multiplier: scale, Fonts: c.Fonts, Hide: ov.Hidden})
			b, err := assets.Encode(img, assets.FormatJPEG, quality)
			if err != nil {
				return fmt.Errorf("page %s: %w", page.ID, err)
			}
			out[i] = renderedPage{id: page.ID, jpeg: b, graph: g, overlay: ov}
			return ectx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(!opts.NoCompression)
	title := opts.Title
	if title == "" {
		title = strings.TrimSpace(opts.Project.ProjectName + " Proposal")
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor(opts.Project.DesignerEmail, true)
	pdf.SetCreator("proposalwriter", false)

	wr := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), fc: textlayout.NewFaceCache(c.Fonts), log: c.logger()}
	defer wr.fc.Close()

	if !opts.NoCover {
		c.coverPage(ctx, wr, opts)
	}
	for i, rp := range out {
		pdf.AddPage()
		name := "page-" + strconv.Itoa(i)
		iopt := gofpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader(name, iopt, bytes.NewReader(rp.jpeg))
		pdf.ImageOptions(name, 0, 0, PageWidthPt, PageHeightPt, false, iopt, 0, "")
		wr.overlay(rp.overlay)
		if pdf.Err() {
			return fmt.Errorf("export pdf: page %s: %w", rp.id, pdf.Error())
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}
	c.logger().InfoContext(ctx, "pdf exported", slog.Int("pages", len(pages)), slog.Bool("cover", !opts.NoCover))
	return nil
}

// SavePDF exports pages into dir under PDFFileName and returns the path.
func (c *Composer) SavePDF(ctx context.Context, dir string, pages []domain.Page, opts PDFOptions) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	path := filepath.Join(dir, PDFFileName(c.now()))
	var buf bytes.Buffer
	if err := c.ExportPagesAsPDF(ctx, &buf, pages, opts); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}

// coverMaxSide bounds the cover logo in points.
const coverMaxSide = 320.0

func (c *Composer) coverPage(ctx context.Context, wr *pdfWriter, opts PDFOptions) {
	pdf := wr.pdf
	pdf.AddPage()
	var logo image.Image
	if url := opts.Branding.CoverLogoURL; url != "" && c.Loader != nil {
		img, err := c.Loader.Load(ctx, url)
		if err != nil {
			c.logger().WarnContext(ctx, "cover logo unavailable", slog.Any("err", err))
		} else {
			logo = img
		}
	}
	if logo != nil {
		if b, err := assets.Encode(logo, assets.FormatPNG, 0); err == nil {
			bw, bh := float64(logo.Bounds().Dx()), float64(logo.Bounds().Dy())
			box, _ := containPt(bw, bh, coverMaxSide)
			iopt := gofpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader("cover", iopt, bytes.NewReader(b))
			pdf.ImageOptions("cover", (PageWidthPt-box.W)/2, (PageHeightPt-box.H)/2, box.W, box.H, false, iopt, 0, "")
			return
		}
	}
	name := opts.Project.ProjectName
	if name == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetTextColor(17, 24, 39)
	s := wr.tr(name)
	pdf.Text((PageWidthPt-pdf.GetStringWidth(s))/2, PageHeightPt/2, s)
	if cust := opts.Project.CustomerName; cust != "" {
		pdf.SetFont("Helvetica", "", 16)
		s = wr.tr(cust)
		pdf.Text((PageWidthPt-pdf.GetStringWidth(s))/2, PageHeightPt/2+30, s)
	}
}

func containPt(w, h, side float64) (geom.Rect, float64) {
	if w <= 0 || h <= 0 {
		return geom.Rect{}, 0
	}
	s := min(side/w, side/h)
	return geom.R(0, 0, w*s, h*s), s
}

// frame maps node coordinates to page pixels: page = origin + local*k.
type frame struct{ ox, oy, kx, ky float64 }

var pageFrame = frame{kx: 1, ky: 1}

func (f frame) pt(x, y float64) (float64, float64) {
	return (f.ox + x*f.kx) * PxToPtX, (f.oy + y*f.ky) * PxToPtY
}

type pdfWriter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	fc  *textlayout.FaceCache
	log *slog.Logger
}

func (wr *pdfWriter) overlay(ov Overlay) {
	for _, o := range ov.Texts {
		wr.text(o, pageFrame, o.Opacity)
	}
	if ov.Table != nil {
		wr.table(ov)
	}
	if h := ov.Header; h != nil {
		f := frame{ox: h.Left, oy: h.Top, kx: h.ScaleX, ky: h.ScaleY}
		for _, ch := range h.Children() {
			if ch.IsText() {
				wr.text(ch, f, h.Opacity*ch.Opacity)
			}
		}
	}
	wr.pdf.SetAlpha(1, "Normal")
}

// table redraws the table group from its rows, scaled into the box the
// group occupies on the page.
func (wr *pdfWriter) table(ov Overlay) {
	parts := bom.BuildPageLayout(ov.Rows, ov.GrandTotal, ov.IncludeTotal)
	boxes := make([]geom.Rect, 0, len(parts))
	for _, p := range parts {
		boxes = append(boxes, p.Box())
	}
	u, ok := geom.UnionAll(boxes)
	if !ok || u.W <= 0 || u.H <= 0 {
		return
	}
	dst := ov.Table.Box()
	kx, ky := dst.W/u.W, dst.H/u.H
	f := frame{ox: dst.X - u.X*kx, oy: dst.Y - u.Y*ky, kx: kx, ky: ky}
	alpha := ov.Table.Opacity
	for _, p := range parts {
		if !p.IsText() {
			wr.rect(p, f, alpha)
		}
	}
	for _, p := range parts {
		if p.IsText() {
			wr.text(p, f, alpha)
		}
	}
}

func (wr *pdfWriter) rect(o *scene.Object, f frame, alpha float64) {
	pdf := wr.pdf
	x, y := f.pt(o.Left, o.Top)
	w := o.ScaledWidth() * f.kx * PxToPtX
	h := o.ScaledHeight() * f.ky * PxToPtY
	style := ""
	if fill, ok := render.ParseColor(o.Fill); ok && fill.A > 0 {
		pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
		style += "F"
	}
	if stroke, ok := render.ParseColor(o.Stroke); ok && o.StrokeWidth > 0 {
		pdf.SetDrawColor(int(stroke.R), int(stroke.G), int(stroke.B))
		pdf.SetLineWidth(o.StrokeWidth * f.ky * PxToPtY)
		style += "D"
	}
	if style == "" {
		return
	}
	pdf.SetAlpha(geom.Clamp(alpha, 0, 1), "Normal")
	pdf.Rect(x, y, w, h, style)
}

// pdfFamily maps a scene font family onto a PDF core font.
func pdfFamily(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "courier"), strings.Contains(f, "mono"):
		return "Courier"
	case strings.Contains(f, "times"), strings.Contains(f, "georgia"), f == "serif":
		return "Times"
	}
	return "Helvetica"
}

func pdfStyle(bold, italic, underline bool) string {
	s := ""
	if bold {
		s += "B"
	}
	if italic {
		s += "I"
	}
	if underline {
		s += "U"
	}
	return s
}

func (wr *pdfWriter) ink(s string, def color.NRGBA) color.NRGBA {
	if s == "" {
		return def
	}
	c, ok := render.ParseColor(s)
	if !ok {
		wr.log.Debug("unparseable color, using default ink", slog.String("color", s))
		return def
	}
	return c
}

// text draws o line by line at the positions the rasterizer uses. Lines are
// wrapped with the raster fonts so breaks match; per-character styles
// switch the PDF font within a line.
func (wr *pdfWriter) text(o *scene.Object, f frame, alpha float64) {
	if o.Text == "" || !o.Visible {
		return
	}
	pdf := wr.pdf
	spec := textlayout.SpecFor(o.FontFamily, o.FontSize, o.FontWeight, o.FontStyle)
	_, met := wr.fc.Resolve(spec)
	family := pdfFamily(o.FontFamily)
	sizePt := o.FontSize * o.ScaleY * f.ky * PxToPtY
	if sizePt <= 0 {
		return
	}
	base := wr.ink(o.Fill, render.DefaultInk)
	lh := o.FontSize * o.LineHeight
	if lh <= 0 {
		lh = o.FontSize
	}
	pdf.SetAlpha(geom.Clamp(alpha, 0, 1), "Normal")
	// Horizontal text widths: points back to node units.
	toLocal := 1 / (o.ScaleX * f.kx * PxToPtX)

	for i, line := range textlayout.Wrap(wr.fc, spec, o.Text, o.Width) {
		if line.Text == "" {
			continue
		}
		styles := o.Styles[strconv.Itoa(i)]
		pdf.SetFont(family, pdfStyle(spec.Bold, spec.Italic, o.Underline), sizePt)
		s := wr.tr(line.Text)
		lw := pdf.GetStringWidth(s) * toLocal
		lx := o.Left + render.AlignOffset(o.TextAlign, o.Width, lw)*o.ScaleX
		ly := o.Top + (float64(i)*lh+met.Ascent)*o.ScaleY
		x, y := f.pt(lx, ly)
		if len(styles) == 0 {
			pdf.SetTextColor(int(base.R), int(base.G), int(base.B))
			pdf.Text(x, y, s)
			continue
		}
		for j, ch := range []rune(line.Text) {
			bold, italic, under, col := spec.Bold, spec.Italic, o.Underline, base
			if st, ok := styles[strconv.Itoa(j)]; ok {
				if st.FontWeight != "" {
					bold = textlayout.SpecFor("", 0, st.FontWeight, "").Bold
				}
				if st.FontStyle != "" {
					italic = st.FontStyle == "italic"
				}
				under = under || st.Underline
				col = wr.ink(st.Fill, base)
			}
			pdf.SetFont(family, pdfStyle(bold, italic, under), sizePt)
			pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
			cs := wr.tr(string(ch))
			pdf.Text(x, y, cs)
			x += pdf.GetStringWidth(cs)
		}
	}
}
