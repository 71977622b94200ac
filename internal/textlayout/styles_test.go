/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "testing"

func TestBuiltinStyles(t *testing.T) {
	for _, name := range ListStyles() {
		st, ok := GetStyle(name)
		if !ok {
			t.Fatalf("%s style missing", name)
		}
		if st.Font.Size <= 0 || st.LineHeight <= 0 {
			t.Fatalf("%s has invalid metrics: %+v", name, st)
		}
	}
}

func TestFaceCache_GoFonts(t *testing.T) {
	fc := NewFaceCache(nil)
	defer fc.Close()
	mono := FontSpec{Family: "Courier", Size: 12}
	if Measure(fc, mono, "iii") != Measure(fc, mono, "WWW") {
		t.Fatalf("Courier should resolve to a monospace face")
	}
	sans := FontSpec{Family: "Helvetica", Size: 12}
	if Measure(fc, sans, "iii") >= Measure(fc, sans, "WWW") {
		t.Fatalf("Helvetica should resolve to a proportional face")
	}
	if len(fc.faces) != 2 {
		t.Fatalf("expected 2 cached faces, got %d", len(fc.faces))
	}
}

func TestFaceCache_Fallback(t *testing.T) {
	fc := &FaceCache{Lib: &FontLibrary{}}
	if w := Measure(fc, FontSpec{Family: "Nonexistent", Size: 12}, "Hello"); w != 35 {
		t.Fatalf("expected basic font fallback width 35, got %v", w)
	}
}
