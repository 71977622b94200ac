/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"proposalwriter/internal/domain"
	"proposalwriter/internal/scene"
)

func validateManifest(t *testing.T, path string) *gojsonschema.Result {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	schemaBytes, err := os.ReadFile(filepath.Join("..", "..", "docs", "proposal.schema.json"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(data))
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	return result
}

func TestManifestConformsToSchema(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, domain.Project{
		Name: "Schema Test",
		Info: domain.ProjectInfo{ProjectName: "Villa", CustomerName: "Ada"},
		Pages: []domain.Page{{
			ID:            "p1",
			Name:          "Cover",
			DefaultLayout: domain.LayoutHeroThree,
			DefaultImages: []domain.DefaultImage{{URL: "a.png", Type: domain.Image3D, Notes: []domain.Note{{Text: "door", X: 0.2, Y: 0.4}}}},
		}},
	})
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	if _, err := ImportTable(ph, domain.TableData{Rows: []domain.Row{{Part: "A", Description: "B", UnitPrice: 1, Qty: 1, Total: 1}}, GrandTotal: 1}, scene.UUIDGenerator{}); err != nil {
		t.Fatalf("ImportTable: %v", err)
	}
	if err := Save(ph); err != nil {
		t.Fatalf("Save: %v", err)
	}
	result := validateManifest(t, ph.ManifestPath)
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("manifest does not conform to schema")
	}
}

func TestSchemaRejectsNoteOutsideImage(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ManifestFileName)
	bad := `{"name":"x","info":{"projectName":"a","customerName":"b"},"pages":[{"id":"p","name":"n","fabricJSON":null,"defaultImages":[{"url":"u","notes":[{"text":"t","x":1.5,"y":0}]}]}]}`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if validateManifest(t, path).Valid() {
		t.Fatalf("expected note with x=1.5 to be rejected")
	}
}
