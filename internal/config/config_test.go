/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points the config path at an empty temp file location.
func isolate(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, p)
	return p
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Page.Width != 794 || cfg.Page.Height != 1123 {
		t.Fatalf("unexpected page size %dx%d", cfg.Page.Width, cfg.Page.Height)
	}
	if cfg.Editor.HistoryLimit != 50 || cfg.Editor.TextDebounce() != 120*time.Millisecond {
		t.Fatalf("unexpected editor defaults: %#v", cfg.Editor)
	}
	if cfg.Export.Format != "png" || cfg.Export.JPEGQuality != 92 {
		t.Fatalf("unexpected export defaults: %#v", cfg.Export)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.Branding.HeaderText = "Kitchen Proposal"
	cfg.Export.Format = "jpeg"
	cfg.Editor.SnapThreshold = 8
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Branding.HeaderText != "Kitchen Proposal" || got.Export.Format != "jpeg" || got.Editor.SnapThreshold != 8 {
		t.Fatalf("round trip lost values: %#v", got)
	}
}

func TestMalformedFileFallsBackToDefaults(t *testing.T) {
	p := isolate(t)
	if err := os.WriteFile(p, []byte("page: [this is: not valid"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Page.Width != 794 {
		t.Fatalf("expected defaults, got %#v", cfg.Page)
	}
}

func TestMergeIgnoresInvalidValues(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Export: ExportConfig{Format: "gif", JPEGQuality: 400, Scale: -1}}
	mergeInto(&dst, &src)
	if dst.Export.Format != "png" || dst.Export.JPEGQuality != 92 || dst.Export.Scale != 2 {
		t.Fatalf("invalid values leaked into config: %#v", dst.Export)
	}
	src = AppConfig{Export: ExportConfig{Format: "JPG"}}
	mergeInto(&dst, &src)
	if dst.Export.Format != "jpeg" {
		t.Fatalf("jpg alias not normalized: %q", dst.Export.Format)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/prw.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/prw.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvHeaderText, "Bathroom Proposal")
	t.Setenv(EnvExportFormat, "jpeg")
	t.Setenv(EnvJPEGQuality, "80")
	t.Setenv(EnvHistoryLimit, "20")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogSource, "1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Branding.HeaderText != "Bathroom Proposal" || cfg.Export.Format != "jpeg" || cfg.Export.JPEGQuality != 80 {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if cfg.Editor.HistoryLimit != 20 || cfg.Logging.Level != "error" || !cfg.Logging.Source {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if env, ok := EnvOverrideFor("branding.header_text"); !ok || env != EnvHeaderText {
		t.Fatalf("EnvOverrideFor = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("branding.stamp_url"); ok {
		t.Fatalf("stamp url is not overridden")
	}
}
