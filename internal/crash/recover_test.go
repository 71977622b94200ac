/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"proposalwriter/internal/domain"
	"proposalwriter/internal/storage"
)

// TestRecoverWritesReportAndAutosave panics inside a guarded call and checks
// the report, the manifest autosave and the intercepted exit code.
func TestRecoverWritesReportAndAutosave(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	root := t.TempDir()
	ph, err := storage.InitProject(root, domain.Project{Name: "Saved"})
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	ph.Project.Name = "Unsaved"

	func() {
		defer Recover(ph)
		panic("boom")
	}()

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
	bdir := filepath.Join(root, storage.BackupsDirName)
	files, _ := os.ReadDir(bdir)
	var report, autosave string
	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log"):
			report = filepath.Join(bdir, f.Name())
		case strings.HasSuffix(f.Name(), ".autosave"):
			autosave = filepath.Join(bdir, f.Name())
		}
	}
	if report == "" || autosave == "" {
		t.Fatalf("expected crash report and autosave under backups, got %v", files)
	}
	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) || !bytes.Contains(b, []byte("Pages: 1")) {
		t.Fatalf("report content incomplete: %s", string(b))
	}
	b, err = os.ReadFile(autosave)
	if err != nil {
		t.Fatalf("read autosave: %v", err)
	}
	var p domain.Project
	if err := json.Unmarshal(b, &p); err != nil || p.Name != "Unsaved" {
		t.Fatalf("autosave should hold the in-memory proposal, got %q err %v", p.Name, err)
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()
	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("exit must not be called without a panic")
	}
}

func TestRecoverWithResolvesHandleLate(t *testing.T) {
	oldStderr := os.Stderr
	_, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
	}()
	code := 0
	oldExit := exitFn
	exitFn = func(c int) { code = c }
	defer func() { exitFn = oldExit }()

	var ph *storage.ProjectHandle
	root := t.TempDir()
	func() {
		defer RecoverWith(func() *storage.ProjectHandle { return ph })
		ph = &storage.ProjectHandle{Root: root, ManifestPath: filepath.Join(root, storage.ManifestFileName)}
		panic("late")
	}()
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	files, _ := os.ReadDir(filepath.Join(root, storage.BackupsDirName))
	if len(files) == 0 {
		t.Fatalf("expected crash files under the late handle's backups dir")
	}
}
