/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package decor

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"proposalwriter/internal/assets"
	"proposalwriter/internal/scene"
)

var fixedNow = func() time.Time { return time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC) }

func imageLoader(w, h int) assets.Loader {
	return assets.LoaderFunc(func(ctx context.Context, src string) (image.Image, error) {
		if src == "broken.png" {
			return nil, errors.New("404")
		}
		return image.NewRGBA(image.Rect(0, 0, w, h)), nil
	})
}

func fullOptions() Options {
	return Options{
		HeaderText:         "Closet Proposal",
		HeaderProjectName:  "Villa",
		HeaderCustomerName: "Ms. Rao",
		FooterLogoURL:      "logo.png",
		StampURL:           "stamp.png",
		PageNumber:         2,
		TotalPages:         5,
		DesignerEmail:      "designer@example.com",
		DesignerMobile:     "+1 555 0100",
	}
}

func TestApplyAddsAllDecorationsOnTop(t *testing.T) {
	e := NewEngine(imageLoader(240, 60))
	e.Now = fixedNow
	g := scene.NewGraph()
	user := scene.NewText("body", 40, 300, 200, 18)
	g.Add(user)

	e.Apply(context.Background(), g, fullOptions()).Wait()

	for _, id := range []string{scene.IDHeader, scene.IDDate, scene.IDPageNumber, scene.IDContact, scene.IDFooterLogo, scene.IDStamp} {
		if g.Find(id) == nil {
			t.Fatalf("missing decoration %s", id)
		}
	}
	if g.Objects[0] != user {
		t.Fatalf("user content must stay below decorations")
	}
	if got := g.Find(scene.IDDate).Text; got != "Mar 07, 2026" {
		t.Fatalf("date = %q", got)
	}
	if got := g.Find(scene.IDPageNumber).Text; got != "Page 2 of 5" {
		t.Fatalf("page number = %q", got)
	}
	hdr := g.Find(scene.IDHeader)
	if len(hdr.Children()) != 5 || hdr.Children()[0].Fill != ProjectColor || hdr.Children()[4].Fill != CustomerColor {
		t.Fatalf("unexpected header runs: %d", len(hdr.Children()))
	}
	if c := hdr.Center().X; c < 396 || c > 398 {
		t.Fatalf("header not centered: %v", c)
	}
	logo := g.Find(scene.IDFooterLogo)
	if logo.ScaledWidth() != FooterLogoWidth || logo.ScaledHeight() != 30 {
		t.Fatalf("logo size %vx%v", logo.ScaledWidth(), logo.ScaledHeight())
	}
	if logo.Selectable || logo.Evented || !logo.MovementLocked() {
		t.Fatalf("fixed decorations must be locked")
	}
	if st := g.Find(scene.IDStamp); st.ScaledWidth() != StampWidth {
		t.Fatalf("stamp width %v", st.ScaledWidth())
	}
}

func TestApplyIsRepeatable(t *testing.T) {
	e := NewEngine(imageLoader(10, 10))
	g := scene.NewGraph()
	for i := 0; i < 3; i++ {
		e.Apply(context.Background(), g, fullOptions()).Wait()
	}
	if n := len(g.Decorations()); n != 6 {
		t.Fatalf("expected 6 decorations after repeated passes, got %d", n)
	}
}

func TestPageNumberOmittedWithoutTotals(t *testing.T) {
	e := NewEngine(nil)
	g := scene.NewGraph()
	opts := fullOptions()
	opts.TotalPages = 0
	e.Apply(context.Background(), g, opts).Wait()
	if g.Find(scene.IDPageNumber) != nil {
		t.Fatalf("page number should be omitted")
	}
}

func TestContactUpdatedInPlaceAndMoveOnly(t *testing.T) {
	e := NewEngine(nil)
	g := scene.NewGraph()
	e.Apply(context.Background(), g, fullOptions()).Wait()
	c := g.Find(scene.IDContact)
	c.MoveBy(15, -30)
	left, top := c.Left, c.Top

	opts := fullOptions()
	opts.DesignerMobile = "+1 555 0199"
	e.Apply(context.Background(), g, opts).Wait()
	if g.Find(scene.IDContact) != c {
		t.Fatalf("contact block should be updated in place")
	}
	if c.Left != left || c.Top != top {
		t.Fatalf("contact block lost its position")
	}
	if c.Text != "designer@example.com\n+1 555 0199" {
		t.Fatalf("contact text = %q", c.Text)
	}
	if !c.Selectable || c.MovementLocked() || !c.LockScalingX || !c.LockRotation || c.HasControls {
		t.Fatalf("contact must be move-only: %+v", c)
	}
}

func TestBrokenImageIsSkipped(t *testing.T) {
	e := NewEngine(imageLoader(10, 10))
	g := scene.NewGraph()
	opts := fullOptions()
	opts.FooterLogoURL = "broken.png"
	e.Apply(context.Background(), g, opts).Wait()
	if g.Find(scene.IDFooterLogo) != nil {
		t.Fatalf("broken logo must be skipped")
	}
	if g.Find(scene.IDStamp) == nil {
		t.Fatalf("stamp should still load")
	}
}

func TestStalePassIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	slow := assets.LoaderFunc(func(ctx context.Context, src string) (image.Image, error) {
		if src == "slow.png" {
			<-release
		}
		return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
	})
	e := NewEngine(slow)
	g := scene.NewGraph()

	first := e.Apply(context.Background(), g, Options{FooterLogoURL: "slow.png"})
	second := e.Apply(context.Background(), g, Options{StampURL: "fast.png"})
	second.Wait()
	close(release)
	first.Wait()

	if g.Find(scene.IDFooterLogo) != nil {
		t.Fatalf("stale logo from the first pass was committed")
	}
	if g.Find(scene.IDStamp) == nil {
		t.Fatalf("current pass image missing")
	}
}

func TestInactiveAndCancelledPassesCommitNothing(t *testing.T) {
	e := NewEngine(imageLoader(10, 10))
	g := scene.NewGraph()
	opts := fullOptions()
	opts.IsActive = func() bool { return false }
	e.Apply(context.Background(), g, opts).Wait()
	if g.Find(scene.IDFooterLogo) != nil || g.Find(scene.IDStamp) != nil {
		t.Fatalf("inactive pass committed images")
	}

	release := make(chan struct{})
	e.Loader = assets.LoaderFunc(func(ctx context.Context, src string) (image.Image, error) {
		<-release
		return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
	})
	p := e.Apply(context.Background(), g, fullOptions())
	e.Cancel()
	close(release)
	p.Wait()
	if g.Find(scene.IDFooterLogo) != nil {
		t.Fatalf("cancelled pass committed images")
	}
}
