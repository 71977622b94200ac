/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"image"
	"maps"
	"math"

	"proposalwriter/internal/domain"
	"proposalwriter/internal/geom"
)

// Kind is the node type as written to the scene JSON.
type Kind string

const (
	KindText  Kind = "textbox"
	KindImage Kind = "image"
	KindRect  Kind = "rect"
	KindGroup Kind = "group"
)

// normalizeKind maps legacy or foreign type names onto the known kinds.
func normalizeKind(k Kind) Kind {
	switch k {
	case "text", "i-text", "IText", "Textbox":
		return KindText
	case "Image":
		return KindImage
	case "Rect":
		return KindRect
	case "Group":
		return KindGroup
	}
	return k
}

// Meta is the typed metadata bag attached to every node.
type Meta struct {
	ID              string           `json:"id,omitempty"`
	UserLocked      bool             `json:"userLocked,omitempty"`
	ObjectDimmed    bool             `json:"objectDimmed,omitempty"`
	DefaultImageURL string           `json:"defaultImageUrl,omitempty"`
	ImageType       domain.ImageType `json:"imageType,omitempty"`
	BOMUserPlaced   bool             `json:"bomUserPlaced,omitempty"`
	BOMRow          int              `json:"bomRow,omitempty"`
	BOMCol          int              `json:"bomCol,omitempty"`
	CaptureID       string           `json:"captureId,omitempty"`
}

// CharStyle is a per-character override inside a text node.
type CharStyle struct {
	Fill       string `json:"fill,omitempty"`
	FontWeight string `json:"fontWeight,omitempty"`
	FontStyle  string `json:"fontStyle,omitempty"`
	Underline  bool   `json:"underline,omitempty"`
}

// StyleMap indexes character styles by wrapped line, then by character offset.
// Both keys are decimal strings.
type StyleMap map[string]map[string]CharStyle

// TextProps holds the text-only part of a node.
type TextProps struct {
	Text       string   `json:"text"`
	FontFamily string   `json:"fontFamily"`
	FontSize   float64  `json:"fontSize"`
	FontWeight string   `json:"fontWeight,omitempty"`
	FontStyle  string   `json:"fontStyle,omitempty"`
	Underline  bool     `json:"underline,omitempty"`
	TextAlign  string   `json:"textAlign,omitempty"`
	LineHeight float64  `json:"lineHeight,omitempty"`
	Styles     StyleMap `json:"styles"`
}

// ImageProps holds the image-only part of a node. Crop offsets and the
// natural size are in source pixels.
type ImageProps struct {
	Src           string  `json:"src"`
	CropX         float64 `json:"cropX,omitempty"`
	CropY         float64 `json:"cropY,omitempty"`
	NaturalWidth  float64 `json:"naturalWidth,omitempty"`
	NaturalHeight float64 `json:"naturalHeight,omitempty"`

	// Pixels is the decoded source, attached after loading. It never travels in JSON.
	Pixels image.Image `json:"-"`
	// Notes are runtime annotations re-associated from the page model after each load.
	Notes []domain.Note `json:"-"`
}

// GroupProps holds the children of a group. Child coordinates are relative to
// the group's top-left corner.
type GroupProps struct {
	Objects []*Object `json:"objects"`
}

// Control is an interactive handle attached to a node by the canvas layer.
type Control struct {
	Name string
	// X and Y locate the handle as fractions of the box, from -0.5 to 0.5.
	X, Y    float64
	OffsetY float64
	Size    float64
}

// Object is one scene node. Exactly one of the embedded kind payloads is set,
// matching Type; the others are nil.
type Object struct {
	Type        Kind    `json:"type"`
	Left        float64 `json:"left"`
	Top         float64 `json:"top"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ScaleX      float64 `json:"scaleX"`
	ScaleY      float64 `json:"scaleY"`
	Angle       float64 `json:"angle"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Opacity     float64 `json:"opacity"`
	Visible     bool    `json:"visible"`
	Selectable  bool    `json:"selectable"`
	Evented     bool    `json:"evented"`
	HasControls bool    `json:"hasControls"`

	LockMovementX bool `json:"lockMovementX,omitempty"`
	LockMovementY bool `json:"lockMovementY,omitempty"`
	LockScalingX  bool `json:"lockScalingX,omitempty"`
	LockScalingY  bool `json:"lockScalingY,omitempty"`
	LockRotation  bool `json:"lockRotation,omitempty"`

	Data Meta `json:"data"`

	*TextProps
	*ImageProps
	*GroupProps

	Controls []Control `json:"-"`
}

// NewText creates an editable text node at (left, top).
func NewText(text string, left, top, width, fontSize float64) *Object {
	o := newObject(KindText)
	o.Left, o.Top, o.Width = left, top, width
	o.TextProps = &TextProps{
		Text:       text,
		FontFamily: "Helvetica",
		FontSize:   fontSize,
		FontWeight: "normal",
		FontStyle:  "normal",
		TextAlign:  "left",
		LineHeight: 1.16,
		Styles:     StyleMap{},
	}
	o.Height = fontSize * 1.16
	return o
}

// NewImage creates an image node showing the whole of a w x h source.
func NewImage(src string, w, h float64) *Object {
	o := newObject(KindImage)
	o.Width, o.Height = w, h
	o.ImageProps = &ImageProps{Src: src, NaturalWidth: w, NaturalHeight: h}
	return o
}

// NewRect creates a filled rectangle.
func NewRect(left, top, w, h float64, fill string) *Object {
	o := newObject(KindRect)
	o.Left, o.Top, o.Width, o.Height = left, top, w, h
	o.Fill = fill
	return o
}

// NewGroup creates a group at (left, top). Children keep their coordinates,
// which are interpreted relative to the group.
func NewGroup(left, top, w, h float64, children ...*Object) *Object {
	o := newObject(KindGroup)
	o.Left, o.Top, o.Width, o.Height = left, top, w, h
	o.GroupProps = &GroupProps{Objects: children}
	return o
}

func newObject(k Kind) *Object {
	return &Object{
		Type:        k,
		ScaleX:      1,
		ScaleY:      1,
		Opacity:     1,
		Visible:     true,
		Selectable:  true,
		Evented:     true,
		HasControls: true,
	}
}

func (o *Object) IsText() bool  { return o.TextProps != nil }
func (o *Object) IsImage() bool { return o.ImageProps != nil }
func (o *Object) IsGroup() bool { return o.GroupProps != nil }

// IsDecoration reports whether o is an auto-managed page decoration.
func (o *Object) IsDecoration() bool { return IsDecorationID(o.Data.ID) }

// IsBOM reports whether o is any bill-of-materials part or group.
func (o *Object) IsBOM() bool { return IsBOMID(o.Data.ID) }

// IsBOMGroup reports whether o is a composed bill-of-materials table.
func (o *Object) IsBOMGroup() bool { return o.Data.ID == IDBOMGroup }

// IsDefaultImage reports whether o was auto-placed from the page's defaults.
func (o *Object) IsDefaultImage() bool { return o.Data.ID == IDDefaultImage }

// Children returns the group's children, or nil for non-groups.
func (o *Object) Children() []*Object {
	if o.GroupProps == nil {
		return nil
	}
	return o.Objects
}

// ScaledWidth is the displayed width before rotation.
func (o *Object) ScaledWidth() float64 { return o.Width * o.ScaleX }

// ScaledHeight is the displayed height before rotation.
func (o *Object) ScaledHeight() float64 { return o.Height * o.ScaleY }

// Box is the unrotated displayed rectangle in the parent's space.
func (o *Object) Box() geom.Rect {
	return geom.Rect{X: o.Left, Y: o.Top, W: o.ScaledWidth(), H: o.ScaledHeight()}
}

// Center is the rotation pivot.
func (o *Object) Center() geom.Pt { return o.Box().Center() }

// Bounds is the axis-aligned bounding box of the rotated node.
func (o *Object) Bounds() geom.Rect { return geom.RotatedBounds(o.Box(), o.Angle) }

// SetBox moves and resizes the displayed rectangle keeping the scale factors.
func (o *Object) SetBox(r geom.Rect) {
	o.Left, o.Top = r.X, r.Y
	if o.ScaleX != 0 {
		o.Width = r.W / o.ScaleX
	}
	if o.ScaleY != 0 {
		o.Height = r.H / o.ScaleY
	}
}

// MoveBy translates the node.
func (o *Object) MoveBy(dx, dy float64) {
	o.Left += dx
	o.Top += dy
}

// MoveBoundsTo translates the node so that its rotated bounds start at (x, y).
func (o *Object) MoveBoundsTo(x, y float64) {
	b := o.Bounds()
	o.MoveBy(x-b.X, y-b.Y)
}

// Contains reports whether the parent-space point p hits the node.
func (o *Object) Contains(p geom.Pt) bool {
	box := o.Box()
	if o.Angle != 0 {
		p = geom.RotateAbout(-o.Angle, box.Center()).Apply(p)
	}
	return box.Contains(p)
}

// Rotated reports whether the node has a non-zero rotation.
func (o *Object) Rotated() bool {
	a := geom.NormalizeAngle(o.Angle)
	return math.Abs(a) > 1e-9 && math.Abs(a-360) > 1e-9
}

// MovementLocked reports whether both movement axes are locked.
func (o *Object) MovementLocked() bool { return o.LockMovementX && o.LockMovementY }

// SetInteractionLocked toggles every lock flag and the control handles together.
func (o *Object) SetInteractionLocked(locked bool) {
	o.LockMovementX = locked
	o.LockMovementY = locked
	o.LockScalingX = locked
	o.LockScalingY = locked
	o.LockRotation = locked
	o.HasControls = !locked
}

// Walk visits o and every descendant depth-first.
func (o *Object) Walk(fn func(*Object)) {
	fn(o)
	for _, c := range o.Children() {
		c.Walk(fn)
	}
}

// Clone returns a deep copy. Decoded pixels are shared since they are never mutated.
func (o *Object) Clone() *Object {
	c := *o
	if o.TextProps != nil {
		tp := *o.TextProps
		tp.Styles = cloneStyles(o.Styles)
		c.TextProps = &tp
	}
	if o.ImageProps != nil {
		ip := *o.ImageProps
		ip.Notes = append([]domain.Note(nil), o.Notes...)
		c.ImageProps = &ip
	}
	if o.GroupProps != nil {
		gp := GroupProps{Objects: make([]*Object, len(o.Objects))}
		for i, ch := range o.Objects {
			gp.Objects[i] = ch.Clone()
		}
		c.GroupProps = &gp
	}
	c.Controls = append([]Control(nil), o.Controls...)
	return &c
}

func cloneStyles(s StyleMap) StyleMap {
	out := make(StyleMap, len(s))
	for line, chars := range s {
		out[line] = maps.Clone(chars)
	}
	return out
}
