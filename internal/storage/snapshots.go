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
	"time"
)

// HistoryCap matches the editor's undo bound; older page snapshots are pruned.
const HistoryCap = 50

// tsLayout is fixed width so stored timestamps sort lexicographically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(page_id, ts, scene_json, reason, bytes) VALUES (?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, scene_json FROM snapshots WHERE page_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, reason, scene_json FROM snapshots WHERE page_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE page_id = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE page_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// language=SQL
// dialect=SQLite
const deleteSnapshotsSQL = `DELETE FROM snapshots WHERE page_id = ?`

// Snapshot is one stored page scene.
type Snapshot struct {
	TS     time.Time
	Reason string
	Scene  []byte
}

func insertSnapshot(ctx context.Context, db *sql.DB, pageID string, scene []byte, reason string, ts time.Time) error {
	if _, err := db.ExecContext(ctx, insertSnapshotSQL, pageID, ts.UTC().Format(tsLayout), scene, reason, len(scene)); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// SaveSnapshot persists a page scene with a timestamp.
// It opens the project's index database if needed and inserts the record.
func SaveSnapshot(ctx context.Context, ph *ProjectHandle, pageID string, scene []byte, reason string, ts time.Time) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return insertSnapshot(ctx, db, pageID, scene, reason, ts)
}

// GetLatestSnapshot returns the latest scene for a page or nil if none.
func GetLatestSnapshot(ctx context.Context, ph *ProjectHandle, pageID string) ([]byte, time.Time, error) {
	if ph == nil {
		return nil, time.Time{}, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var blob []byte
	err = db.QueryRowContext(ctx, selectLatestSnapshotSQL, pageID).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	ts, err := time.Parse(tsLayout, tsStr)
	if err != nil {
		return blob, time.Time{}, nil // return blob even if ts parse fails
	}
	return blob, ts, nil
}

// ListSnapshots returns up to limit most recent snapshots for a page, newest first.
func ListSnapshots(ctx context.Context, ph *ProjectHandle, pageID string, limit int) ([]Snapshot, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = HistoryCap
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, pageID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var tsStr string
		if err := rows.Scan(&tsStr, &s.Reason, &s.Scene); err != nil {
			return nil, err
		}
		s.TS, _ = time.Parse(tsLayout, tsStr)
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneOldSnapshots keeps at most keepLast snapshots for the page and deletes older ones.
func PruneOldSnapshots(ctx context.Context, ph *ProjectHandle, pageID string, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, pageID, pageID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteSnapshots removes the whole history of a page.
func DeleteSnapshots(ctx context.Context, ph *ProjectHandle, pageID string) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, deleteSnapshotsSQL, pageID)
	return err
}
