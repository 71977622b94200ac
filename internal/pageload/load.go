/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pageload hydrates a page graph from its stored scene or, for fresh
// pages, from its default images. The editor and every export share it.
package pageload

import (
	"context"
	"image"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"proposalwriter/internal/assets"
	"proposalwriter/internal/bom"
	"proposalwriter/internal/domain"
	plog "proposalwriter/internal/log"
	"proposalwriter/internal/scene"
)

// maxParallelLoads bounds concurrent image decodes during hydration.
const maxParallelLoads = 4

// Result reports how a page was hydrated.
type Result struct {
	FromScene bool
	Placed    int
	Missing   int
}

// Hydrate clears g and fills it for page. A stored scene that fails to parse
// is logged and treated as absent. Image decode failures never abort the load.
func Hydrate(ctx context.Context, g *scene.Graph, page domain.Page, loader assets.Loader) Result {
	logger := plog.WithOperation(plog.WithComponent("pageload"), "hydrate")
	ctx = plog.ContextWithPage(ctx, page.ID)
	g.Clear()

	var res Result
	if js := page.SceneJSON(); js != "" {
		parsed, err := scene.Parse([]byte(js))
		if err == nil {
			g.Width, g.Height, g.Background = parsed.Width, parsed.Height, parsed.Background
			g.Objects = parsed.Objects
			res.FromScene = true
			res.Missing = AttachPixels(ctx, g.Objects, loader)
		} else {
			logger.WarnContext(ctx, "stored scene unusable, using defaults", slog.Any("err", err))
		}
	}
	if !res.FromScene {
		res.Placed, res.Missing = PlaceDefaults(ctx, g, page, loader)
	}
	AssociateNotes(g, page)
	bom.Consolidate(g)
	logger.DebugContext(ctx, "page hydrated",
		slog.Bool("fromScene", res.FromScene), slog.Int("objects", len(g.Objects)), slog.Int("missing", res.Missing))
	return res
}

// AttachPixels decodes the source of every image node, nested ones included,
// and caches its natural size. It returns how many sources failed.
func AttachPixels(ctx context.Context, objs []*scene.Object, loader assets.Loader) int {
	var imgs []*scene.Object
	for _, o := range objs {
		o.Walk(func(n *scene.Object) {
			if n.IsImage() && n.Pixels == nil && n.Src != "" {
				imgs = append(imgs, n)
			}
		})
	}
	if loader == nil || len(imgs) == 0 {
		return len(imgs)
	}
	failed := make([]bool, len(imgs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelLoads)
	for i, o := range imgs {
		i, o := i, o
		eg.Go(func() error {
			pix, err := loader.Load(ctx, o.Src)
			if err != nil {
				failed[i] = true
				return nil
			}
			o.Pixels = pix
			b := pix.Bounds()
			if o.NaturalWidth <= 0 || o.NaturalHeight <= 0 {
				o.NaturalWidth, o.NaturalHeight = float64(b.Dx()), float64(b.Dy())
			}
			return nil
		})
	}
	_ = eg.Wait()
	n := 0
	for _, f := range failed {
		if f {
			n++
		}
	}
	return n
}

// PlaceDefaults lays out the page's default images in its template. Images
// that fail to load are skipped and their slot stays empty.
func PlaceDefaults(ctx context.Context, g *scene.Graph, page domain.Page, loader assets.Loader) (placed, missing int) {
	defs := page.AllDefaultImages()
	if len(defs) == 0 {
		return 0, 0
	}
	pix := make([]image.Image, len(defs))
	if loader != nil {
		eg, ctx := errgroup.WithContext(ctx)
		eg.SetLimit(maxParallelLoads)
		for i, d := range defs {
			i, d := i, d
			eg.Go(func() error {
				img, err := loader.Load(ctx, d.URL)
				if err == nil {
					pix[i] = img
				}
				return nil
			})
		}
		_ = eg.Wait()
	}
	slots := Slots(page.DefaultLayout, len(defs), ContentArea())
	for i, d := range defs {
		if pix[i] == nil {
			missing++
			continue
		}
		b := pix[i].Bounds()
		w, h := float64(b.Dx()), float64(b.Dy())
		box, s := Contain(w, h, slots[i])
		o := scene.NewImage(d.URL, w, h)
		o.Pixels = pix[i]
		o.Left, o.Top = box.X, box.Y
		o.ScaleX, o.ScaleY = s, s
		o.Data = scene.Meta{ID: scene.IDDefaultImage, DefaultImageURL: d.URL, ImageType: d.Type}
		g.Add(o)
		placed++
	}
	return placed, missing
}

// AssociateNotes copies notes from the page model onto the matching default
// image nodes. Notes never travel in the scene JSON.
func AssociateNotes(g *scene.Graph, page domain.Page) {
	byURL := map[string]domain.DefaultImage{}
	for _, d := range page.AllDefaultImages() {
		byURL[d.URL] = d
	}
	for _, o := range g.Objects {
		if !o.IsImage() || !o.IsDefaultImage() {
			continue
		}
		url := o.Data.DefaultImageURL
		if url == "" {
			url = o.Src
		}
		d, ok := byURL[url]
		if !ok {
			o.Notes = nil
			continue
		}
		o.Notes = append([]domain.Note(nil), d.Notes...)
		if o.Data.ImageType == "" {
			o.Data.ImageType = d.Type
		}
	}
}

// ResetDimming restores full opacity on dimmed nodes. Dimming only exists in
// the editor and never reaches exports.
func ResetDimming(g *scene.Graph) {
	for _, o := range g.Objects {
		if o.Data.ObjectDimmed {
			o.Opacity = 1
		}
	}
}
