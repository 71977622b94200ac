/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the document-store data model exchanged with the editor
// core: pages, their default images and notes, project metadata used by the
// decorations, and the bill-of-materials table.

// Project is a proposal and its pages. It serializes to the human-readable
// proposal.json manifest.
type Project struct {
	Name     string      `json:"name"`
	Info     ProjectInfo `json:"info"`
	Branding Branding    `json:"branding,omitempty"`
	Pages    []Page      `json:"pages"`
	Table    *TableData  `json:"table,omitempty"`
	Captures []Capture   `json:"captures,omitempty"`
}

// PageIndex returns the position of the page with id, or -1.
func (p *Project) PageIndex(id string) int {
	for i := range p.Pages {
		if p.Pages[i].ID == id {
			return i
		}
	}
	return -1
}

// Layout selects the auto-placement template used when a page has no saved scene yet.
type Layout string

const (
	LayoutSingle    Layout = "single"
	LayoutGrid2Col  Layout = "grid-2-col"
	LayoutHeroThree Layout = "hero-three"
	LayoutStack     Layout = "stack"
	LayoutTopGrid   Layout = "top-grid"
	LayoutWallGrid  Layout = "wall-grid"
)

// Layouts lists the known templates in stable order.
func Layouts() []Layout {
	return []Layout{LayoutSingle, LayoutGrid2Col, LayoutHeroThree, LayoutStack, LayoutTopGrid, LayoutWallGrid}
}

// ImageType is the semantic tag of a captured or catalog image.
type ImageType string

const (
	Image2D        ImageType = "2D"
	Image3D        ImageType = "3D"
	ImageIso       ImageType = "Isometric"
	ImageStretched ImageType = "Stretched"
	ImageWall      ImageType = "Wall"
	Image2DDefault ImageType = "2D-Default"
)

// Note is an annotation pinned to an image. X and Y are fractions (0..1) of the
// displayed image width and height.
type Note struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// DefaultImage is an image auto-placed on a fresh page.
type DefaultImage struct {
	URL   string    `json:"url"`
	Type  ImageType `json:"type,omitempty"`
	Notes []Note    `json:"notes,omitempty"`
}

// PageKindBOM marks pages generated from the bill of materials.
const PageKindBOM = "bom"

// Page is one editable sheet. FabricJSON nil means "not yet touched; derive default content".
type Page struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Kind            string         `json:"kind,omitempty"`
	FabricJSON      *string        `json:"fabricJSON"`
	DefaultImages   []DefaultImage `json:"defaultImages,omitempty"`
	DefaultImage    *DefaultImage  `json:"defaultImage,omitempty"`
	DefaultImageURL string         `json:"defaultImageUrl,omitempty"`
	DefaultLayout   Layout         `json:"defaultLayout,omitempty"`
}

// AllDefaultImages merges the three legacy ways of attaching default images,
// dropping duplicates by URL while keeping first-seen order.
func (p Page) AllDefaultImages() []DefaultImage {
	var out []DefaultImage
	seen := map[string]bool{}
	add := func(di DefaultImage) {
		if di.URL == "" || seen[di.URL] {
			return
		}
		seen[di.URL] = true
		out = append(out, di)
	}
	for _, di := range p.DefaultImages {
		add(di)
	}
	if p.DefaultImage != nil {
		add(*p.DefaultImage)
	}
	if p.DefaultImageURL != "" {
		add(DefaultImage{URL: p.DefaultImageURL})
	}
	return out
}

// SceneJSON returns the saved scene, or "" when the page is fresh.
func (p Page) SceneJSON() string {
	if p.FabricJSON == nil {
		return ""
	}
	return *p.FabricJSON
}

// WithScene returns a copy of p whose saved scene is s.
func (p Page) WithScene(s string) Page {
	p.FabricJSON = &s
	return p
}

// ProjectInfo is the project metadata shown in decorations.
type ProjectInfo struct {
	ProjectName   string `json:"projectName"`
	CustomerName  string `json:"customerName"`
	DesignerEmail string `json:"designerEmail,omitempty"`
	MobileNo      string `json:"mobileNo,omitempty"`
}

// Branding holds the configurable header and image assets of a proposal.
type Branding struct {
	HeaderText    string `json:"headerText,omitempty"`
	FooterLogoURL string `json:"footerLogoUrl,omitempty"`
	StampURL      string `json:"stampUrl,omitempty"`
	CoverLogoURL  string `json:"coverLogoUrl,omitempty"`
}

// Row is one bill-of-materials line.
type Row struct {
	Part        string  `json:"part"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unitPrice"`
	Qty         int     `json:"qty"`
	Total       float64 `json:"total"`
}

// TableData is the structured bill of materials.
type TableData struct {
	Rows       []Row   `json:"rows"`
	GrandTotal float64 `json:"grandTotal"`
}

// Capture is a pending 3D scene snapshot waiting to be placed on the first page.
type Capture struct {
	ID      string `json:"id"`
	DataURL string `json:"dataUrl"`
}
