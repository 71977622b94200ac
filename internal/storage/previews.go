/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Preview kinds stored in the previews table.
//   - thumb: scaled page raster (PNG) for page lists
//   - page: full-size page raster reused by exports until the page changes
const (
	PreviewKindThumb = "thumb"
	PreviewKindPage  = "page"
)

// EnvPreviewsMaxBytes caps the total size of cached previews.
const EnvPreviewsMaxBytes = "PRW_PREVIEWS_MAX_BYTES"

const defaultPreviewsMaxBytes = 256 * 1024 * 1024

func ensurePreviewsTable(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS previews (
			id          INTEGER PRIMARY KEY,
			page_id     TEXT    NOT NULL,
			kind        TEXT    NOT NULL DEFAULT 'thumb',
			w           INTEGER NOT NULL DEFAULT 0,
			h           INTEGER NOT NULL DEFAULT 0,
			blob        BLOB    NOT NULL,
			size        INTEGER NOT NULL DEFAULT 0,
			updated_at  TEXT    NOT NULL,
			last_access TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_previews_variant ON previews(page_id, kind, w, h);`,
		// LRU eviction walks by access time.
		`CREATE INDEX IF NOT EXISTS idx_previews_access ON previews(last_access);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure previews table: %w", err)
		}
	}
	return nil
}

func validKind(kind string) error {
	if kind != PreviewKindThumb && kind != PreviewKindPage {
		return fmt.Errorf("invalid kind: %s", kind)
	}
	return nil
}

// GetPreview returns the cached bytes for a preview variant and updates last_access.
// A miss returns nil without error.
func GetPreview(ctx context.Context, projectRoot, pageID, kind string, w, h int) ([]byte, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	var blob []byte
	err = db.QueryRowContext(ctx, `SELECT blob FROM previews WHERE page_id=? AND kind=? AND w=? AND h=?`, pageID, kind, w, h).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preview: %w", err)
	}
	now := time.Now().UTC().Format(tsLayout)
	_, _ = db.ExecContext(ctx, `UPDATE previews SET last_access=? WHERE page_id=? AND kind=? AND w=? AND h=?`, now, pageID, kind, w, h)
	return blob, nil
}

// PutPreview upserts a preview blob and enforces the cache size cap via LRU eviction.
func PutPreview(ctx context.Context, projectRoot, pageID, kind string, w, h int, blob []byte) error {
	if err := validKind(kind); err != nil {
		return err
	}
	if len(blob) == 0 {
		return errors.New("empty preview")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	now := time.Now().UTC().Format(tsLayout)
	_, err = db.ExecContext(ctx, `INSERT INTO previews(page_id,kind,w,h,blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(page_id,kind,w,h) DO UPDATE SET blob=excluded.blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		pageID, kind, w, h, blob, len(blob), now, now)
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	if capBytes := MaxPreviewsBytesFromEnv(); capBytes > 0 {
		if err := EvictPreviewsToFit(ctx, db, capBytes); err != nil {
			return err
		}
	}
	return nil
}

// GetOrCreatePreview fetches a preview or generates and stores it using the provided generator.
func GetOrCreatePreview(ctx context.Context, projectRoot, pageID, kind string, w, h int, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := GetPreview(ctx, projectRoot, pageID, kind, w, h); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	if gen == nil {
		return nil, nil
	}
	data, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	if err := PutPreview(ctx, projectRoot, pageID, kind, w, h, data); err != nil {
		return nil, err
	}
	return data, nil
}

// InvalidatePreviews drops every cached variant of a page.
func InvalidatePreviews(ctx context.Context, projectRoot, pageID string) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, `DELETE FROM previews WHERE page_id=?`, pageID); err != nil {
		return fmt.Errorf("invalidate previews: %w", err)
	}
	return nil
}

// EvictPreviewsToFit deletes least-recently-used rows until total size <= capBytes.
func EvictPreviewsToFit(ctx context.Context, db *sql.DB, capBytes int64) error {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return fmt.Errorf("sum previews size: %w", err)
	}
	if total <= capBytes {
		return nil
	}
	// Oldest access first, rows never read before anything else.
	rows, err := db.QueryContext(ctx, `SELECT id, size FROM previews ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	toDelete := make([]any, 0, 32)
	cur := total
	for rows.Next() {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		toDelete = append(toDelete, id)
		cur -= sz
		if cur <= capBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// Close the cursor before writing.
	if err := rows.Close(); err != nil {
		return err
	}
	if len(toDelete) == 0 {
		return nil
	}
	q := `DELETE FROM previews WHERE id IN (?` + strings.Repeat(",?", len(toDelete)-1) + `)`
	if _, err := db.ExecContext(ctx, q, toDelete...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// TotalPreviewBytes returns total bytes tracked by previews.size
func TotalPreviewBytes(ctx context.Context, projectRoot string) (int64, error) {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// MaxPreviewsBytesFromEnv reads PRW_PREVIEWS_MAX_BYTES, defaulting to 256MB if unset.
func MaxPreviewsBytesFromEnv() int64 {
	v := os.Getenv(EnvPreviewsMaxBytes)
	if v == "" {
		return defaultPreviewsMaxBytes
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return defaultPreviewsMaxBytes
	}
	return n
}
