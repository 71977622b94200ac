/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"proposalwriter/internal/assets"
	"proposalwriter/internal/domain"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// Preset is the resolved configuration of a PresetName.
type Preset struct {
	Formats []string
	Scale   float64
	Quality int
}

// ResolvePreset returns the defaults of p. Unknown names fall back to a
// single PDF at print quality.
func ResolvePreset(p PresetName) Preset {
	switch p {
	case PresetWeb:
		return Preset{Formats: []string{"png"}, Scale: 1}
	case PresetPrint:
		return Preset{Formats: []string{"pdf"}, Scale: 2, Quality: DefaultJPEGQuality}
	default:
		return Preset{Formats: []string{"pdf"}, Scale: DefaultPDFScale, Quality: DefaultJPEGQuality}
	}
}

// BatchOptions controls batch export across formats and pages.
//
// Path semantics:
//   - Outputs go to <OutDir>/<preset>/<format>/.
//   - PDF output is one proposal-<timestamp>.pdf.
//   - PNG and JPEG outputs are page-<n>.(png|jpg), numbered from 1.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // pdf, png, jpeg; empty means preset defaults
	Pages   []int    // zero-based indices; empty means all pages
	Scale   float64  // overrides the preset scale when > 0
	OutDir  string
}

// BatchExport runs exports of project according to opt and returns the
// written paths.
func (c *Composer) BatchExport(ctx context.Context, project domain.Project, opt BatchOptions) ([]string, error) {
	if len(project.Pages) == 0 {
		return nil, fmt.Errorf("project has no pages")
	}
	preset := ResolvePreset(opt.Preset)
	formats := opt.Formats
	if len(formats) == 0 {
		formats = preset.Formats
	}
	scale := preset.Scale
	if opt.Scale > 0 {
		scale = opt.Scale
	}
	name := string(opt.Preset)
	if name == "" {
		name = "default"
	}
	base := filepath.Join(opt.OutDir, name)

	pages := selectPages(project.Pages, opt.Pages)
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages selected")
	}
	var written []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "pdf":
			path, err := c.SavePDF(ctx, filepath.Join(base, "pdf"), pages, PDFOptions{
				Project:  project.Info,
				Branding: project.Branding,
				Scale:    scale,
				Quality:  preset.Quality,
			})
			if err != nil {
				return written, fmt.Errorf("pdf: %w", err)
			}
			written = append(written, path)
		case "png":
			paths, err := c.saveImages(ctx, filepath.Join(base, "png"), project, pages, assets.FormatPNG, scale, 0)
			written = append(written, paths...)
			if err != nil {
				return written, fmt.Errorf("png: %w", err)
			}
		case "jpeg", "jpg":
			paths, err := c.saveImages(ctx, filepath.Join(base, "jpeg"), project, pages, assets.FormatJPEG, scale, preset.Quality)
			written = append(written, paths...)
			if err != nil {
				return written, fmt.Errorf("jpeg: %w", err)
			}
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
	}
	return written, nil
}

func selectPages(all []domain.Page, idx []int) []domain.Page {
	if len(idx) == 0 {
		return all
	}
	var out []domain.Page
	for _, i := range idx {
		if i >= 0 && i < len(all) {
			out = append(out, all[i])
		}
	}
	return out
}

func (c *Composer) saveImages(ctx context.Context, dir string, project domain.Project, pages []domain.Page, f assets.Format, scale float64, quality int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	ext := ".png"
	if f == assets.FormatJPEG {
		ext = ".jpg"
	}
	var paths []string
	for i, page := range pages {
		b, err := c.RenderPageToImage(ctx, page, PageOptions{
			Project:    project.Info,
			Branding:   project.Branding,
			PageNumber: i + 1,
			TotalPages: len(pages),
			Scale:      scale,
			Format:     f,
			Quality:    quality,
		})
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, fmt.Sprintf("page-%d%s", i+1, ext))
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
