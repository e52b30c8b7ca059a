package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/unicode/norm"
)

// DefaultBusyTimeout is used when Open is given a zero timeout.
const DefaultBusyTimeout = 5 * time.Second

// ErrEmptyCommit is returned for a commit without Latin or Bengali text.
var ErrEmptyCommit = errors.New("store: empty commit")

// Store is the SQLite commit journal.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the journal at path and runs migrations.
func Open(path string) (*Store, error) {
	return OpenWithTimeout(path, DefaultBusyTimeout)
}

// OpenWithTimeout is Open with an explicit SQLite busy timeout, so the IBus
// engine and banglakeyctl can share one database.
func OpenWithTimeout(path string, busy time.Duration) (*Store, error) {
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d", path, busy.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := ValidateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// MigrationStatus reports the applied and pending schema migrations.
func (s *Store) MigrationStatus() (*MigrationStatus, error) {
	return GetMigrationStatus(s.db)
}

// RollbackSchema undoes the newest applied migration. The journal must be
// reopened, which migrates forward again, before it is used.
func (s *Store) RollbackSchema() error {
	return RollbackMigration(s.db)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordCommit stores a converted word and bumps its count, atomically.
func (s *Store) RecordCommit(c *CommitRecord) (int64, error) {
	if c.Latin == "" || c.Bengali == "" {
		return 0, ErrEmptyCommit
	}
	if c.TimestampNs == 0 {
		c.TimestampNs = time.Now().UnixNano()
	}
	// Overlay glyphs may arrive decomposed; counts key on the NFC form.
	c.Bengali = norm.NFC.String(c.Bengali)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO commits (latin, bengali, source, timestamp_ns)
		VALUES (?, ?, ?, ?)`,
		c.Latin, c.Bengali, c.Source, c.TimestampNs,
	)
	if err != nil {
		return 0, fmt.Errorf("insert commit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO word_counts (latin, bengali, count, last_used_ns)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(latin, bengali) DO UPDATE SET
			count = count + 1,
			last_used_ns = MAX(last_used_ns, excluded.last_used_ns)`,
		c.Latin, c.Bengali, c.TimestampNs,
	); err != nil {
		return 0, fmt.Errorf("update word count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	c.ID = id
	return id, nil
}

// Recent returns the newest n commits, newest first.
func (s *Store) Recent(n int) ([]CommitRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT id, latin, bengali, source, timestamp_ns
		FROM commits
		ORDER BY timestamp_ns DESC, id DESC
		LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent commits: %w", err)
	}
	defer rows.Close()

	return scanCommits(rows)
}

// CommitsBetween returns commits in [start, end], oldest first.
func (s *Store) CommitsBetween(start, end time.Time) ([]CommitRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, latin, bengali, source, timestamp_ns
		FROM commits
		WHERE timestamp_ns >= ? AND timestamp_ns <= ?
		ORDER BY timestamp_ns ASC, id ASC`, start.UnixNano(), end.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("query commits by range: %w", err)
	}
	defer rows.Close()

	return scanCommits(rows)
}

// TopWords returns the n most used words, most frequent first. Ties go to
// the most recently used.
func (s *Store) TopWords(n int) ([]WordCount, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT latin, bengali, count, last_used_ns
		FROM word_counts
		ORDER BY count DESC, last_used_ns DESC
		LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query top words: %w", err)
	}
	defer rows.Close()

	return scanWordCounts(rows)
}

// WordsFor returns every recorded conversion of a Latin spelling, most
// frequent first. Different overlays can turn one spelling into several
// words.
func (s *Store) WordsFor(latin string) ([]WordCount, error) {
	rows, err := s.db.Query(`
		SELECT latin, bengali, count, last_used_ns
		FROM word_counts
		WHERE latin = ?
		ORDER BY count DESC, last_used_ns DESC`, latin,
	)
	if err != nil {
		return nil, fmt.Errorf("query words for %q: %w", latin, err)
	}
	defer rows.Close()

	return scanWordCounts(rows)
}

// Prune deletes commits older than before and returns how many were
// removed. Word counts are kept.
func (s *Store) Prune(before time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM commits WHERE timestamp_ns < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune commits: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}

// PruneDays deletes commits older than days days. Zero or less is a no-op.
func (s *Store) PruneDays(days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	return s.Prune(time.Now().AddDate(0, 0, -days))
}

// RebuildWordCounts recomputes word_counts from the commits still in the
// journal, discarding counts for pruned commits.
func (s *Store) RebuildWordCounts() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM word_counts`); err != nil {
		return fmt.Errorf("clear word counts: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO word_counts (latin, bengali, count, last_used_ns)
		SELECT latin, bengali, COUNT(*), MAX(timestamp_ns)
		FROM commits
		GROUP BY latin, bengali`); err != nil {
		return fmt.Errorf("recount words: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Stats summarises the journal.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{BySource: make(map[string]int64)}

	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(MIN(timestamp_ns), 0), COALESCE(MAX(timestamp_ns), 0)
		FROM commits`,
	).Scan(&st.Commits, &st.OldestNs, &st.NewestNs)
	if err != nil {
		return nil, fmt.Errorf("count commits: %w", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM word_counts`).Scan(&st.UniqueWords); err != nil {
		return nil, fmt.Errorf("count words: %w", err)
	}

	rows, err := s.db.Query(`SELECT source, COUNT(*) FROM commits GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var n int64
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan source count: %w", err)
		}
		if source == "" {
			source = "unknown"
		}
		st.BySource[source] += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source counts: %w", err)
	}

	return st, nil
}

// Vacuum reclaims space after a large prune.
func (s *Store) Vacuum() error {
	if _, err := s.db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

func scanCommits(rows *sql.Rows) ([]CommitRecord, error) {
	var out []CommitRecord
	for rows.Next() {
		var c CommitRecord
		if err := rows.Scan(&c.ID, &c.Latin, &c.Bengali, &c.Source, &c.TimestampNs); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}
	return out, nil
}

func scanWordCounts(rows *sql.Rows) ([]WordCount, error) {
	var out []WordCount
	for rows.Next() {
		var w WordCount
		if err := rows.Scan(&w.Latin, &w.Bengali, &w.Count, &w.LastUsedNs); err != nil {
			return nil, fmt.Errorf("scan word count: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate word counts: %w", err)
	}
	return out, nil
}

// isBusy reports whether err means another connection holds the lock.
func isBusy(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}
