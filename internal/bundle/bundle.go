/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bundle packs a proposal folder into a single .zip for hand-off and
// unpacks such archives into a new proposal folder.
package bundle

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "proposalwriter/internal/log"
	"proposalwriter/internal/storage"
	"proposalwriter/internal/version"
)

// ManifestName is the human readable note stored at the archive root.
const ManifestName = "bundle.manifest.txt"

// ErrUnsafePath is returned for archive entries that would escape the target folder.
var ErrUnsafePath = errors.New("unsafe path in bundle")

// packed lists the top-level entries of a proposal folder that travel in a bundle.
// The index, backups and exports are derived data and stay behind.
var packed = []string{storage.ManifestFileName, storage.AssetsDirName, storage.PagesDirName}

// Pack zips the proposal at projectRoot into destZip and returns the number
// of files added, not counting the manifest note.
func Pack(projectRoot, destZip string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "pack").With(slog.String("project", projectRoot))
	if strings.TrimSpace(projectRoot) == "" {
		return 0, errors.New("projectRoot is required")
	}
	if strings.TrimSpace(destZip) == "" {
		return 0, errors.New("destZip is required")
	}
	if _, err := os.Stat(filepath.Join(projectRoot, storage.ManifestFileName)); err != nil {
		return 0, fmt.Errorf("not a proposal folder: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(destZip), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	tmp := destZip + ".tmp"
	zf, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	zw := zip.NewWriter(zf)

	added, err := writeEntries(zw, projectRoot)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := zf.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		l.Error("zip build failed", slog.Any("err", err))
		return 0, fmt.Errorf("build zip: %w", err)
	}
	if err := os.Rename(tmp, destZip); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("finalize zip: %w", err)
	}
	l.Info("bundle written", slog.Int("files", added), slog.String("zip", destZip))
	return added, nil
}

func writeEntries(zw *zip.Writer, root string) (int, error) {
	note := fmt.Sprintf("Proposal Writer bundle\nCreated: %s\nVersion: %s\n",
		time.Now().Format(time.RFC3339), version.String())
	w, err := zw.Create(ManifestName)
	if err != nil {
		return 0, err
	}
	if _, err := io.WriteString(w, note); err != nil {
		return 0, err
	}
	added := 0
	for _, top := range packed {
		start := filepath.Join(root, top)
		if _, err := os.Stat(start); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if err := addFile(zw, path, filepath.ToSlash(rel)); err != nil {
				return err
			}
			added++
			return nil
		})
		if err != nil {
			return added, err
		}
	}
	return added, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	fw, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(fw, f)
	return err
}

// Unpack extracts a bundle into destRoot, which must not already hold a
// proposal, opens the result and seeds a fresh index from its saved pages.
func Unpack(ctx context.Context, zipPath, destRoot string) (*storage.ProjectHandle, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "unpack").With(slog.String("project", destRoot))
	if strings.TrimSpace(destRoot) == "" {
		return nil, errors.New("destRoot is required")
	}
	if _, err := os.Stat(filepath.Join(destRoot, storage.ManifestFileName)); err == nil {
		return nil, fmt.Errorf("%s already contains a proposal", destRoot)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()

	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return nil, err
	}
	n := 0
	for _, f := range r.File {
		if f.Name == ManifestName || f.FileInfo().IsDir() {
			continue
		}
		target, err := safeJoin(destRoot, f.Name)
		if err != nil {
			return nil, err
		}
		if err := extract(f, target); err != nil {
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		n++
	}
	ph, err := storage.Open(destRoot)
	if err != nil {
		return nil, fmt.Errorf("bundle has no usable proposal: %w", err)
	}
	for _, d := range []string{storage.BackupsDirName, storage.ExportsDirName} {
		if err := os.MkdirAll(filepath.Join(destRoot, d), 0o755); err != nil {
			return nil, err
		}
	}
	if err := storage.RebuildIndex(ctx, destRoot, ph.Project); err != nil {
		l.Warn("index seed failed", slog.Any("err", err))
	}
	l.Info("bundle unpacked", slog.Int("files", n))
	return ph, nil
}

func safeJoin(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return filepath.Join(root, clean), nil
}

func extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
