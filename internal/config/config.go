/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the per-user YAML configuration and applies PRW_* environment overrides.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	Page          PageConfig     `yaml:"page"`
	Editor        EditorConfig   `yaml:"editor"`
	Export        ExportConfig   `yaml:"export"`
	Branding      BrandingConfig `yaml:"branding"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// PageConfig is the logical page size in pixels.
type PageConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type EditorConfig struct {
	HistoryLimit   int     `yaml:"history_limit"`
	SnapThreshold  float64 `yaml:"snap_threshold"`
	TextDebounceMs int     `yaml:"text_debounce_ms"`
	PasteOffset    float64 `yaml:"paste_offset"`
	ThumbScale     float64 `yaml:"thumb_scale"`
}

type ExportConfig struct {
	Scale        float64 `yaml:"scale"`
	Format       string  `yaml:"format"` // png | jpeg
	JPEGQuality  int     `yaml:"jpeg_quality"`
	CoverLogoURL string  `yaml:"cover_logo_url"`
	Parallel     int     `yaml:"parallel"`
}

type BrandingConfig struct {
	HeaderText    string `yaml:"header_text"`
	FooterLogoURL string `yaml:"footer_logo_url"`
	StampURL      string `yaml:"stamp_url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Page:          PageConfig{Width: 794, Height: 1123},
		Editor:        EditorConfig{HistoryLimit: 50, SnapThreshold: 6, TextDebounceMs: 120, PasteOffset: 20, ThumbScale: 0.25},
		Export:        ExportConfig{Scale: 2, Format: "png", JPEGQuality: 92},
		Branding:      BrandingConfig{HeaderText: "Proposal"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// TextDebounce returns the debounce as a duration.
func (e EditorConfig) TextDebounce() time.Duration {
	return time.Duration(e.TextDebounceMs) * time.Millisecond
}

// Env var names used as overrides.
const (
	EnvHistoryLimit  = "PRW_HISTORY_LIMIT"
	EnvSnapThreshold = "PRW_SNAP_THRESHOLD"
	EnvExportScale   = "PRW_EXPORT_SCALE"
	EnvExportFormat  = "PRW_EXPORT_FORMAT"
	EnvJPEGQuality   = "PRW_JPEG_QUALITY"
	EnvHeaderText    = "PRW_HEADER_TEXT"
	EnvFooterLogoURL = "PRW_FOOTER_LOGO_URL"
	EnvStampURL      = "PRW_STAMP_URL"
	EnvCoverLogoURL  = "PRW_COVER_LOGO_URL"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "PRW_LOG_LEVEL"
	EnvLogFormat = "PRW_LOG_FORMAT"
	EnvLogSource = "PRW_LOG_SOURCE"
	EnvLogFile   = "PRW_LOG_FILE"
	// EnvConfigPath points at an explicit config file.
	EnvConfigPath = "PRW_CONFIG"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "ProposalWriter")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ProposalWriter")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "proposalwriter")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "proposalwriter")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// A malformed file is ignored; the defaults plus env still apply.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Page.Width > 0 {
		dst.Page.Width = src.Page.Width
	}
	if src.Page.Height > 0 {
		dst.Page.Height = src.Page.Height
	}
	if src.Editor.HistoryLimit > 0 {
		dst.Editor.HistoryLimit = src.Editor.HistoryLimit
	}
	if src.Editor.SnapThreshold > 0 {
		dst.Editor.SnapThreshold = src.Editor.SnapThreshold
	}
	if src.Editor.TextDebounceMs > 0 {
		dst.Editor.TextDebounceMs = src.Editor.TextDebounceMs
	}
	if src.Editor.PasteOffset > 0 {
		dst.Editor.PasteOffset = src.Editor.PasteOffset
	}
	if src.Editor.ThumbScale > 0 {
		dst.Editor.ThumbScale = src.Editor.ThumbScale
	}
	if src.Export.Scale > 0 {
		dst.Export.Scale = src.Export.Scale
	}
	if f := normalizeFormat(src.Export.Format); f != "" {
		dst.Export.Format = f
	}
	if src.Export.JPEGQuality > 0 && src.Export.JPEGQuality <= 100 {
		dst.Export.JPEGQuality = src.Export.JPEGQuality
	}
	if s := strings.TrimSpace(src.Export.CoverLogoURL); s != "" {
		dst.Export.CoverLogoURL = s
	}
	if src.Export.Parallel > 0 {
		dst.Export.Parallel = src.Export.Parallel
	}
	if s := strings.TrimSpace(src.Branding.HeaderText); s != "" {
		dst.Branding.HeaderText = s
	}
	if s := strings.TrimSpace(src.Branding.FooterLogoURL); s != "" {
		dst.Branding.FooterLogoURL = s
	}
	if s := strings.TrimSpace(src.Branding.StampURL); s != "" {
		dst.Branding.StampURL = s
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func normalizeFormat(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return "png"
	case "jpg", "jpeg":
		return "jpeg"
	}
	return ""
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvHistoryLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.HistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapThreshold)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Editor.SnapThreshold = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportScale)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Export.Scale = f
		}
	}
	if f := normalizeFormat(os.Getenv(EnvExportFormat)); f != "" {
		cfg.Export.Format = f
	}
	if v := strings.TrimSpace(os.Getenv(EnvJPEGQuality)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			cfg.Export.JPEGQuality = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHeaderText)); v != "" {
		cfg.Branding.HeaderText = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFooterLogoURL)); v != "" {
		cfg.Branding.FooterLogoURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStampURL)); v != "" {
		cfg.Branding.StampURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCoverLogoURL)); v != "" {
		cfg.Export.CoverLogoURL = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var overrides = map[string]string{
	"editor.history_limit":     EnvHistoryLimit,
	"editor.snap_threshold":    EnvSnapThreshold,
	"export.scale":             EnvExportScale,
	"export.format":            EnvExportFormat,
	"export.jpeg_quality":      EnvJPEGQuality,
	"export.cover_logo_url":    EnvCoverLogoURL,
	"branding.header_text":     EnvHeaderText,
	"branding.footer_logo_url": EnvFooterLogoURL,
	"branding.stamp_url":       EnvStampURL,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := overrides[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
