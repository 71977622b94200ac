/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders proposal pages off-screen. Every render hydrates a
// fresh graph from the stored page so exports never touch a live editor.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"proposalwriter/internal/assets"
	"proposalwriter/internal/decor"
	"proposalwriter/internal/domain"
	plog "proposalwriter/internal/log"
	"proposalwriter/internal/pageload"
	"proposalwriter/internal/render"
	"proposalwriter/internal/scene"
	"proposalwriter/internal/textlayout"
)

// DefaultJPEGQuality applies when no quality is given.
const DefaultJPEGQuality = 92

// Composer renders pages to images and PDFs.
type Composer struct {
	Loader assets.Loader
	Fonts  *textlayout.FontLibrary
	Now    func() time.Time

	log *slog.Logger
}

// NewComposer returns a composer loading images through loader.
func NewComposer(loader assets.Loader) *Composer {
	return &Composer{Loader: loader, Now: time.Now, log: plog.WithComponent("export")}
}

func (c *Composer) logger() *slog.Logger {
	if c.log == nil {
		c.log = plog.WithComponent("export")
	}
	return c.log
}

func (c *Composer) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// PageOptions are the decoration data and encoding settings of one render.
type PageOptions struct {
	Project    domain.ProjectInfo
	Branding   domain.Branding
	PageNumber int
	TotalPages int

	// Scale is output pixels per page pixel. Zero means 1.
	Scale   float64
	Format  assets.Format
	Quality int
}

// BuildPageGraph hydrates page into a new graph, restores dimmed nodes to
// full opacity and applies decorations, waiting for their images.
func (c *Composer) BuildPageGraph(ctx context.Context, page domain.Page, opts PageOptions) *scene.Graph {
	g := scene.NewGraph()
	pageload.Hydrate(ctx, g, page, c.Loader)
	pageload.ResetDimming(g)

	eng := decor.NewEngine(c.Loader)
	eng.Fonts = c.Fonts
	eng.Now = c.now
	eng.Apply(ctx, g, decor.Options{
		HeaderText:         opts.Branding.HeaderText,
		HeaderProjectName:  opts.Project.ProjectName,
		HeaderCustomerName: opts.Project.CustomerName,
		FooterLogoURL:      opts.Branding.FooterLogoURL,
		StampURL:           opts.Branding.StampURL,
		PageNumber:         opts.PageNumber,
		TotalPages:         opts.TotalPages,
		DesignerEmail:      opts.Project.DesignerEmail,
		DesignerMobile:     opts.Project.MobileNo,
	}).Wait()
	return g
}

// RenderPageToImage renders page with decorations and encodes it.
func (c *Composer) RenderPageToImage(ctx context.Context, page domain.Page, opts PageOptions) ([]byte, error) {
	g := c.BuildPageGraph(ctx, page, opts)
	img := render.Rasterize(g, render.Options{Multiplier: opts.Scale, Fonts: c.Fonts})
	format := opts.Format
	if format == "" {
		format = assets.FormatPNG
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	b, err := assets.Encode(img, format, quality)
	if err != nil {
		return nil, fmt.Errorf("encode page %s: %w", page.ID, err)
	}
	c.logger().DebugContext(ctx, "page rendered", slog.String("page", page.ID), slog.Int("bytes", len(b)))
	return b, nil
}
