/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestProjectJSONRoundTrip(t *testing.T) {
	scene := `{"objects":[]}`
	p := Project{
		Name: "RoundTrip",
		Info: ProjectInfo{ProjectName: "Villa", CustomerName: "Ms. Rao"},
		Pages: []Page{
			{ID: "p1", Name: "Page 1", FabricJSON: &scene},
			{ID: "p2", Name: "Page 2", DefaultLayout: LayoutGrid2Col},
		},
		Table: &TableData{Rows: []Row{{Part: "A", Qty: 2, UnitPrice: 10, Total: 20}}, GrandTotal: 20},
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Project
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != p.Name || got.Info.CustomerName != "Ms. Rao" {
		t.Fatalf("metadata mismatch: %+v", got)
	}
	if len(got.Pages) != 2 || got.Pages[0].SceneJSON() != scene {
		t.Fatalf("unexpected pages: %+v", got.Pages)
	}
	if got.Pages[1].FabricJSON != nil {
		t.Fatalf("fresh page must keep a null scene")
	}
	if !strings.Contains(string(b), `"fabricJSON":null`) {
		t.Fatalf("fresh page scene should serialize as null: %s", b)
	}
	if got.Table == nil || got.Table.GrandTotal != 20 {
		t.Fatalf("table lost: %+v", got.Table)
	}
}

func TestAllDefaultImagesMergesLegacyFields(t *testing.T) {
	p := Page{
		DefaultImages:   []DefaultImage{{URL: "a.png"}, {URL: "b.png"}},
		DefaultImage:    &DefaultImage{URL: "a.png", Type: Image3D},
		DefaultImageURL: "c.png",
	}
	got := p.AllDefaultImages()
	if len(got) != 3 {
		t.Fatalf("expected 3 unique images, got %d", len(got))
	}
	if got[0].URL != "a.png" || got[2].URL != "c.png" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestPageIndex(t *testing.T) {
	p := &Project{Pages: []Page{{ID: "x"}, {ID: "y"}}}
	if p.PageIndex("y") != 1 || p.PageIndex("z") != -1 {
		t.Fatalf("PageIndex mismatch")
	}
}
