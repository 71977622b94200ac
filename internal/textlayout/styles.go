/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// TextStyle is a reusable text preset for proposal content.
type TextStyle struct {
	Name       string
	Font       FontSpec
	LineHeight float64
	Fill       string
}

var builtinStyles = map[string]TextStyle{
	"Body": {
		Name:       "Body",
		Font:       FontSpec{Family: "Helvetica", Size: 18},
		LineHeight: 1.16,
		Fill:       "#111827",
	},
	"Heading": {
		Name:       "Heading",
		Font:       FontSpec{Family: "Helvetica", Size: 28, Bold: true},
		LineHeight: 1.16,
		Fill:       "#111827",
	},
	"Header": {
		Name:       "Header",
		Font:       FontSpec{Family: "Helvetica", Size: 14, Bold: true},
		LineHeight: 1.2,
		Fill:       "#1f2937",
	},
	"Footer": {
		Name:       "Footer",
		Font:       FontSpec{Family: "Helvetica", Size: 11},
		LineHeight: 1.2,
		Fill:       "#4b5563",
	},
	"Note": {
		Name:       "Note",
		Font:       FontSpec{Family: "Helvetica", Size: 12, Italic: true},
		LineHeight: 1.2,
		Fill:       "#1f2937",
	},
	"Table": {
		Name:       "Table",
		Font:       FontSpec{Family: "Helvetica", Size: 10},
		LineHeight: 1.2,
		Fill:       "#111827",
	},
}

// GetStyle returns a builtin style preset by name. The second return value is false if
// the style is not found.
func GetStyle(name string) (TextStyle, bool) { s, ok := builtinStyles[name]; return s, ok }

// MustStyle returns a builtin preset and panics on an unknown name.
func MustStyle(name string) TextStyle {
	s, ok := builtinStyles[name]
	if !ok {
		panic("textlayout: unknown style " + name)
	}
	return s
}

// ListStyles lists the names of the builtin styles in stable order.
func ListStyles() []string {
	return []string{"Body", "Heading", "Header", "Footer", "Note", "Table"}
}
