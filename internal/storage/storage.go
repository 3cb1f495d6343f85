package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"mediamerge/internal/content"
)

const timeLayout = "2006-01-02 15:04:05"

// Cleanup states for recorded duplicates.
const (
	StatusPending = "pending"
	StatusCleaned = "cleaned"
	StatusFailed  = "failed"
)

// RunRecord summarizes one consolidation run.
type RunRecord struct {
	ID              string
	Root            string
	StartedAt       time.Time
	Duration        time.Duration
	EntitiesBefore  int
	EntitiesAfter   int
	Merged          int
	GroupsConfirmed int
	MergeFailures   int
}

// GroupRecord is a confirmed duplicate group persisted for later review.
type GroupRecord struct {
	ID      int64
	RunID   string
	Key     string
	Members []string
}

// DuplicateRecord tracks a redundant file flagged for cleanup.
type DuplicateRecord struct {
	ID     int64
	RunID  string
	Path   string
	Size   int64
	Status string
}

// Store handles persistence of file signatures, run history and
// duplicate groups.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens the database at dbPath, creating it and its parent
// directory if needed.
func NewStore(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Current schema version
const schemaVersion = 2

// migrations defines all schema migrations
// Each migration should be idempotent (safe to run multiple times)
var migrations = []struct {
	version     int
	description string
	up          string
}{
	{
		version:     1,
		description: "Initial schema",
		up:          "", // Handled by base schema creation
	},
	{
		version:     2,
		description: "Track the hash algorithm per signature",
		up: `
			ALTER TABLE signatures ADD COLUMN algorithm TEXT DEFAULT '';
		`,
	},
}

// init creates the database schema
func (s *Store) init() error {
	// Create schema_version table first
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// Create base schema
	schema := `
	CREATE TABLE IF NOT EXISTS signatures (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mtime_ns INTEGER NOT NULL,
		fingerprint TEXT NOT NULL DEFAULT '',
		hash TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		entities_before INTEGER NOT NULL,
		entities_after INTEGER NOT NULL,
		merged INTEGER NOT NULL,
		groups_confirmed INTEGER NOT NULL,
		merge_failures INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		key TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_groups_run_id ON groups(run_id);

	CREATE TABLE IF NOT EXISTS group_files (
		group_id INTEGER NOT NULL,
		path TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_group_files_group_id ON group_files(group_id);

	CREATE TABLE IF NOT EXISTS duplicates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		cleaned_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_duplicates_status ON duplicates(status);
	`

	_, err = s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Run migrations
	if err := s.migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// migrate runs pending schema migrations
func (s *Store) migrate() error {
	currentVersion := s.getSchemaVersion()

	for _, m := range migrations {
		if m.version <= currentVersion || m.up == "" {
			continue
		}

		// Check if migration is needed (column might already exist)
		if m.version == 2 {
			if s.columnExists("signatures", "algorithm") {
				s.setSchemaVersion(m.version)
				continue
			}
		}

		// Execute migration
		if _, err := s.db.Exec(m.up); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
		}

		s.setSchemaVersion(m.version)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

// setSchemaVersion records a migration as applied
func (s *Store) setSchemaVersion(version int) {
	s.db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, version)
}

// columnExists checks if a column exists in a table
func (s *Store) columnExists(table, column string) bool {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?
	`, table, column).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadCache seeds the cache with stored signatures whose files are
// unchanged on disk. A hash computed under a different algorithm is
// dropped while the algorithm-independent fingerprint is kept.
// Returns the number of entries seeded.
func (s *Store) LoadCache(cache *content.Cache, algorithm string) (int, error) {
	rows, err := s.db.Query(`SELECT path, size, mtime_ns, fingerprint, hash, algorithm FROM signatures`)
	if err != nil {
		return 0, fmt.Errorf("failed to query signatures: %w", err)
	}
	defer rows.Close()

	seeded := 0
	for rows.Next() {
		var (
			path        string
			size        int64
			mtimeNS     int64
			fingerprint string
			hash        string
			algo        sql.NullString
		)
		if err := rows.Scan(&path, &size, &mtimeNS, &fingerprint, &hash, &algo); err != nil {
			return seeded, fmt.Errorf("failed to scan row: %w", err)
		}

		info, err := os.Stat(path)
		if err != nil || info.Size() != size || info.ModTime().UnixNano() != mtimeNS {
			continue
		}

		sig := content.Signature{Size: size, Fingerprint: fingerprint}
		if algo.String == algorithm {
			sig.Hash = hash
		}
		cache.Seed(path, sig)
		seeded++
	}

	return seeded, nil
}

// StoreCache persists every cache entry whose file still matches the
// recorded size, so later runs can skip recomputing digests.
func (s *Store) StoreCache(cache *content.Cache, algorithm string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO signatures (path, size, mtime_ns, fingerprint, hash, algorithm)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for path, sig := range cache.Snapshot() {
		info, err := os.Stat(path)
		if err != nil || info.Size() != sig.Size {
			continue
		}
		if _, err := stmt.Exec(path, sig.Size, info.ModTime().UnixNano(), sig.Fingerprint, sig.Hash, algorithm); err != nil {
			return fmt.Errorf("failed to store signature for %s: %w", path, err)
		}
	}

	return tx.Commit()
}

// RecordRun saves the summary of a completed run.
func (s *Store) RecordRun(run RunRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO runs (id, root, started_at, duration_ms, entities_before, entities_after, merged, groups_confirmed, merge_failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Root, run.StartedAt.UTC().Format(timeLayout), run.Duration.Milliseconds(),
		run.EntitiesBefore, run.EntitiesAfter, run.Merged, run.GroupsConfirmed, run.MergeFailures)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run, or nil when none are recorded.
func (s *Store) LatestRun() (*RunRecord, error) {
	runs, err := s.ListRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, root, started_at, duration_ms, entities_before, entities_after, merged, groups_confirmed, merge_failures
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var startedAt string
		var durationMS int64
		err := rows.Scan(
			&run.ID,
			&run.Root,
			&startedAt,
			&durationMS,
			&run.EntitiesBefore,
			&run.EntitiesAfter,
			&run.Merged,
			&run.GroupsConfirmed,
			&run.MergeFailures,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		run.StartedAt, _ = time.Parse(timeLayout, startedAt)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}

	return runs, nil
}

// RecordGroups saves the confirmed duplicate groups of a run.
func (s *Store) RecordGroups(runID string, groups []GroupRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	groupStmt, err := tx.Prepare(`INSERT INTO groups (run_id, key) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer groupStmt.Close()

	fileStmt, err := tx.Prepare(`INSERT INTO group_files (group_id, path) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer fileStmt.Close()

	for _, g := range groups {
		res, err := groupStmt.Exec(runID, g.Key)
		if err != nil {
			return fmt.Errorf("failed to insert group %s: %w", g.Key, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read group id: %w", err)
		}
		for _, path := range g.Members {
			if _, err := fileStmt.Exec(id, path); err != nil {
				return fmt.Errorf("failed to insert group member %s: %w", path, err)
			}
		}
	}

	return tx.Commit()
}

// GroupsForRun returns the duplicate groups recorded for a run, with
// their member paths.
func (s *Store) GroupsForRun(runID string) ([]GroupRecord, error) {
	rows, err := s.db.Query(`SELECT id, run_id, key FROM groups WHERE run_id = ? ORDER BY key`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []GroupRecord
	for rows.Next() {
		var g GroupRecord
		if err := rows.Scan(&g.ID, &g.RunID, &g.Key); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		groups = append(groups, g)
	}

	for i := range groups {
		members, err := s.groupMembers(groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Members = members
	}

	return groups, nil
}

func (s *Store) groupMembers(groupID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM group_files WHERE group_id = ? ORDER BY path`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		members = append(members, path)
	}

	return members, nil
}

// RecordDuplicates saves redundant files flagged by a run for cleanup.
func (s *Store) RecordDuplicates(runID string, dups []DuplicateRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO duplicates (run_id, path, size, status) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, d := range dups {
		status := d.Status
		if status == "" {
			status = StatusPending
		}
		if _, err := stmt.Exec(runID, d.Path, d.Size, status); err != nil {
			return fmt.Errorf("failed to insert duplicate %s: %w", d.Path, err)
		}
	}

	return tx.Commit()
}

// PendingDuplicates returns flagged files not yet cleaned up.
func (s *Store) PendingDuplicates() ([]DuplicateRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, path, size, status
		FROM duplicates
		WHERE status = ?
		ORDER BY path
	`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicates: %w", err)
	}
	defer rows.Close()

	var dups []DuplicateRecord
	for rows.Next() {
		var d DuplicateRecord
		if err := rows.Scan(&d.ID, &d.RunID, &d.Path, &d.Size, &d.Status); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		dups = append(dups, d)
	}

	return dups, nil
}

// MarkDuplicateCleaned records that the file was removed or quarantined.
func (s *Store) MarkDuplicateCleaned(id int64) error {
	_, err := s.db.Exec(`UPDATE duplicates SET status = ?, cleaned_at = CURRENT_TIMESTAMP WHERE id = ?`, StatusCleaned, id)
	return err
}

// MarkDuplicateFailed records that cleanup of the file did not succeed.
func (s *Store) MarkDuplicateFailed(id int64) error {
	_, err := s.db.Exec(`UPDATE duplicates SET status = ? WHERE id = ?`, StatusFailed, id)
	return err
}
