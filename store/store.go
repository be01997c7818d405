// Package store keeps looked up disc metadata and the history of ripped
// tracks in a SQLite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"

	"github.com/rabidaudio/cdrip/cddb"
)

const schema = `
	CREATE TABLE IF NOT EXISTS lookups (
		disc_id TEXT PRIMARY KEY,
		matches INTEGER NOT NULL,
		fetched_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		disc_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		category TEXT,
		artist TEXT,
		title TEXT,
		genre TEXT,
		ext_data TEXT,
		year INTEGER NOT NULL DEFAULT -1,
		tracks INTEGER NOT NULL,
		UNIQUE (disc_id, idx)
	);
	CREATE TABLE IF NOT EXISTS tracks (
		record_id INTEGER NOT NULL,
		track INTEGER NOT NULL,
		title TEXT,
		artist TEXT,
		length INTEGER NOT NULL,
		PRIMARY KEY (record_id, track)
	);
	CREATE TABLE IF NOT EXISTS rips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		disc_id TEXT NOT NULL,
		track INTEGER NOT NULL,
		path TEXT NOT NULL,
		bytes INTEGER NOT NULL,
		ripped_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS rips_disc ON rips (disc_id, track);
	`

// Store is a SQLite backed cache. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	s.db = db
	s.log.Debug().Str("path", path).Msg("store: database initialized")
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func nullString(v string, ok bool) sql.NullString {
	return sql.NullString{String: v, Valid: ok}
}

// SaveResults replaces the cached lookup of res.DiscID. Empty results are
// cached too, so a disc the service doesn't know isn't looked up again.
func (s *Store) SaveResults(res *cddb.Results) error {
	if res == nil || res.DiscID == "" {
		return errors.New("store: results without disc id")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM tracks WHERE record_id IN (SELECT id FROM records WHERE disc_id = ?)`, res.DiscID)
	if err != nil {
		return fmt.Errorf("failed to clear tracks of %s: %w", res.DiscID, err)
	}
	if _, err := tx.Exec(`DELETE FROM records WHERE disc_id = ?`, res.DiscID); err != nil {
		return fmt.Errorf("failed to clear records of %s: %w", res.DiscID, err)
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO lookups (disc_id, matches, fetched_at) VALUES (?, ?, ?)`,
		res.DiscID, res.Len(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save lookup of %s: %w", res.DiscID, err)
	}

	for i, r := range res.Records() {
		if err := saveRecord(tx, res.DiscID, i, r); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results of %s: %w", res.DiscID, err)
	}
	s.log.Debug().Str("disc_id", res.DiscID).Int("records", res.Len()).Msg("store: results saved")
	return nil
}

func saveRecord(tx *sql.Tx, discID string, idx int, r *cddb.Record) error {
	result, err := tx.Exec(`INSERT INTO records
		(disc_id, idx, category, artist, title, genre, ext_data, year, tracks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		discID, idx,
		nullString(r.Category()),
		nullString(r.Artist()),
		nullString(r.Title()),
		nullString(r.Genre()),
		nullString(r.ExtData()),
		r.Year(),
		r.NumTracks(),
	)
	if err != nil {
		return fmt.Errorf("failed to save record %d of %s: %w", idx, discID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	for n := 1; n <= r.NumTracks(); n++ {
		_, err := tx.Exec(`INSERT INTO tracks (record_id, track, title, artist, length) VALUES (?, ?, ?, ?, ?)`,
			id, n, nullString(r.TrackTitle(n)), nullString(r.TrackArtist(n)), r.TrackLength(n))
		if err != nil {
			return fmt.Errorf("failed to save track %d of %s: %w", n, discID, err)
		}
	}
	return nil
}

// LoadResults returns the cached lookup of discID. It reports false if
// the disc was never looked up.
func (s *Store) LoadResults(discID string) (*cddb.Results, bool, error) {
	var matches int
	err := s.db.QueryRow(`SELECT matches FROM lookups WHERE disc_id = ?`, discID).Scan(&matches)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load lookup of %s: %w", discID, err)
	}

	rows, err := s.db.Query(`SELECT id, category, artist, title, genre, ext_data, year, tracks
		FROM records WHERE disc_id = ? ORDER BY idx`, discID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load records of %s: %w", discID, err)
	}
	defer rows.Close()

	var ids []int64
	var records []*cddb.Record
	for rows.Next() {
		var (
			id                                    int64
			category, artist, title, genre, extra sql.NullString
			year, tracks                          int
		)
		if err := rows.Scan(&id, &category, &artist, &title, &genre, &extra, &year, &tracks); err != nil {
			return nil, false, err
		}
		r := cddb.NewRecord(tracks)
		set(category, r.SetCategory)
		set(artist, r.SetArtist)
		set(title, r.SetTitle)
		set(genre, r.SetGenre)
		set(extra, r.SetExtData)
		r.SetYear(year)
		ids = append(ids, id)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	rows.Close()

	for i, id := range ids {
		if err := s.loadTracks(id, records[i]); err != nil {
			return nil, false, fmt.Errorf("failed to load tracks of %s: %w", discID, err)
		}
	}
	if len(records) != matches {
		s.log.Warn().Str("disc_id", discID).Int("matches", matches).Int("records", len(records)).
			Msg("store: cached lookup is incomplete")
	}
	return cddb.NewResults(discID, records...), true, nil
}

func set(v sql.NullString, fn func(string)) {
	if v.Valid {
		fn(v.String)
	}
}

func (s *Store) loadTracks(recordID int64, r *cddb.Record) error {
	rows, err := s.db.Query(`SELECT track, title, artist, length FROM tracks WHERE record_id = ? ORDER BY track`, recordID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			n, length     int
			title, artist sql.NullString
		)
		if err := rows.Scan(&n, &title, &artist, &length); err != nil {
			return err
		}
		if title.Valid {
			if err := r.SetTrackTitle(n, title.String); err != nil {
				return err
			}
		}
		if artist.Valid {
			if err := r.SetTrackArtist(n, artist.String); err != nil {
				return err
			}
		}
		if err := r.SetTrackLength(n, length); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Rip is one extracted track.
type Rip struct {
	RunID    string
	DiscID   string
	Track    int
	Path     string
	Bytes    int64
	RippedAt time.Time
}

// RecordRip adds r to the rip history.
func (s *Store) RecordRip(r Rip) error {
	if r.RippedAt.IsZero() {
		r.RippedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO rips (run_id, disc_id, track, path, bytes, ripped_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, r.DiscID, r.Track, r.Path, r.Bytes, r.RippedAt)
	if err != nil {
		return fmt.Errorf("failed to record rip of %s track %d: %w", r.DiscID, r.Track, err)
	}
	return nil
}

// IsRipped reports whether track of discID has been ripped before.
func (s *Store) IsRipped(discID string, track int) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM rips WHERE disc_id = ? AND track = ?`, discID, track).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check rip of %s track %d: %w", discID, track, err)
	}
	return count > 0, nil
}

// Rips returns the rip history of discID, oldest first.
func (s *Store) Rips(discID string) ([]Rip, error) {
	rows, err := s.db.Query(`SELECT run_id, disc_id, track, path, bytes, ripped_at
		FROM rips WHERE disc_id = ? ORDER BY id`, discID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rips of %s: %w", discID, err)
	}
	defer rows.Close()

	var rips []Rip
	for rows.Next() {
		var r Rip
		if err := rows.Scan(&r.RunID, &r.DiscID, &r.Track, &r.Path, &r.Bytes, &r.RippedAt); err != nil {
			return nil, err
		}
		rips = append(rips, r)
	}
	return rips, rows.Err()
}
