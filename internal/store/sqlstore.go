package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/media-luna/fftrack/configs"
	"github.com/media-luna/fftrack/internal/ferrors"
	"github.com/media-luna/fftrack/internal/fingerprint"
)

// sqlStore is the shared implementation behind both backends; only DDL,
// placeholder syntax and the track insert differ between MySQL and PostgreSQL.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	header  Header
}

// dialect hides the handful of places MySQL and PostgreSQL syntax diverge:
// placeholder style, auto-increment primary keys, and how the new track id
// is read back (LastInsertId vs RETURNING).
type dialect struct {
	name string

	placeholder func(i int) string // 1-based parameter index -> SQL text

	createHeaderTable   string
	createTracksTable   string
	createPostingsTable string
	createPostingsIndex string // "" if the index is declared inline

	// insertTrack must insert a row into tracks and return the new track_id.
	insertTrack func(ctx context.Context, tx *sql.Tx, meta TrackMeta) (int64, error)
}

// Open connects to the configured database, creates the schema if absent,
// and validates the persisted header against the runtime configuration
// (spec §6: "Any mismatch ... MUST cause SchemaMismatch before any
// operation succeeds").
func Open(ctx context.Context, cfg configs.DatabaseConfig, runtime Header) (Store, error) {
	d, err := dialectFor(cfg.Type)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName(cfg.Type), cfg.DSN)
	if err != nil {
		return nil, ferrors.New(ferrors.Internal, "open %s: %v", cfg.Type, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, ferrors.New(ferrors.Internal, "connect %s: %v", cfg.Type, err)
	}

	s := &sqlStore{db: db, dialect: d}

	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	header, found, err := s.readHeader(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if !found {
		if err := s.writeHeader(ctx, runtime); err != nil {
			db.Close()
			return nil, err
		}
		header = runtime
	} else if header != runtime {
		db.Close()
		return nil, ferrors.New(ferrors.SchemaMismatch,
			"store header %+v does not match runtime configuration %+v", header, runtime)
	}

	s.header = header
	return s, nil
}

func driverName(dbType string) string {
	if dbType == "postgres" {
		return "postgres"
	}
	return "mysql"
}

func dialectFor(dbType string) (dialect, error) {
	switch dbType {
	case "", "mysql":
		return mysqlDialect(), nil
	case "postgres":
		return postgresDialect(), nil
	default:
		return dialect{}, ferrors.New(ferrors.Internal, "unsupported database type %q", dbType)
	}
}

func (s *sqlStore) ensureSchema(ctx context.Context) error {
	stmts := []string{s.dialect.createHeaderTable, s.dialect.createTracksTable, s.dialect.createPostingsTable}
	if s.dialect.createPostingsIndex != "" {
		stmts = append(stmts, s.dialect.createPostingsIndex)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return ferrors.New(ferrors.Internal, "create schema: %v", err)
		}
	}
	return nil
}

func (s *sqlStore) readHeader(ctx context.Context) (Header, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT schema_version, sample_rate, window_size, hop_size, hot_hash_cap FROM fftrack_header`)

	var h Header
	err := row.Scan(&h.SchemaVersion, &h.SampleRate, &h.WindowSize, &h.HopSize, &h.HotHashCap)
	if err == sql.ErrNoRows {
		return Header{}, false, nil
	}
	if err != nil {
		return Header{}, false, ferrors.New(ferrors.StoreCorruption, "read header: %v", err)
	}
	return h, true, nil
}

func (s *sqlStore) writeHeader(ctx context.Context, h Header) error {
	q := fmt.Sprintf(
		`INSERT INTO fftrack_header (schema_version, sample_rate, window_size, hop_size, hot_hash_cap) VALUES (%s, %s, %s, %s, %s)`,
		s.dialect.placeholder(1), s.dialect.placeholder(2), s.dialect.placeholder(3), s.dialect.placeholder(4), s.dialect.placeholder(5))
	_, err := s.db.ExecContext(ctx, q, h.SchemaVersion, h.SampleRate, h.WindowSize, h.HopSize, h.HotHashCap)
	if err != nil {
		return ferrors.New(ferrors.Internal, "write header: %v", err)
	}
	return nil
}

func (s *sqlStore) SchemaVersion() int { return s.header.SchemaVersion }

func (s *sqlStore) InsertTrack(ctx context.Context, meta TrackMeta, postings []fingerprint.Posting) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, ferrors.New(ferrors.Internal, "begin tx: %v", err)
	}
	defer tx.Rollback() // no-op once committed

	trackID, err := s.dialect.insertTrack(ctx, tx, meta)
	if err != nil {
		return 0, errors.Wrap(err, "insert track")
	}

	if err := s.insertPostings(ctx, tx, trackID, postings); err != nil {
		return 0, errors.Wrap(err, "insert postings")
	}

	if err := tx.Commit(); err != nil {
		if ctx.Err() != nil {
			return 0, ferrors.New(ferrors.Cancelled, "ingest cancelled: %v", err)
		}
		return 0, ferrors.New(ferrors.Internal, "commit ingest: %v", err)
	}
	return trackID, nil
}

// batchSize caps the number of posting rows per multi-row INSERT, staying
// well clear of both backends' bound-parameter and statement-length limits.
const batchSize = 500

func (s *sqlStore) insertPostings(ctx context.Context, tx *sql.Tx, trackID int64, postings []fingerprint.Posting) error {
	for start := 0; start < len(postings); start += batchSize {
		end := start + batchSize
		if end > len(postings) {
			end = len(postings)
		}
		batch := postings[start:end]

		var sb strings.Builder
		sb.WriteString("INSERT INTO postings (hash, track_id, anchor_t) VALUES ")
		args := make([]interface{}, 0, len(batch)*3)
		for i, p := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			n := len(args)
			sb.WriteString(fmt.Sprintf("(%s, %s, %s)",
				s.dialect.placeholder(n+1), s.dialect.placeholder(n+2), s.dialect.placeholder(n+3)))
			args = append(args, int64(uint32(p.Hash)), trackID, p.AnchorT)
		}

		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqlStore) Lookup(ctx context.Context, hash fingerprint.Hash) ([]PostingRow, error) {
	hotCap := s.header.HotHashCap
	q := fmt.Sprintf(
		`SELECT track_id, anchor_t FROM postings WHERE hash = %s`,
		s.dialect.placeholder(1))
	if hotCap > 0 {
		q += fmt.Sprintf(" LIMIT %d", hotCap+1)
	}

	rows, err := s.db.QueryContext(ctx, q, int64(uint32(hash)))
	if err != nil {
		return nil, ferrors.New(ferrors.Internal, "lookup hash: %v", err)
	}
	defer rows.Close()

	var out []PostingRow
	for rows.Next() {
		var p PostingRow
		if err := rows.Scan(&p.TrackID, &p.AnchorT); err != nil {
			return nil, ferrors.New(ferrors.StoreCorruption, "scan posting: %v", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.New(ferrors.Internal, "iterate postings: %v", err)
	}

	// Hot-hash policy (spec §4.E): a list exceeding the cap is non-selective
	// and excluded from matching entirely.
	if hotCap > 0 && len(out) > hotCap {
		return nil, nil
	}
	return out, nil
}

func (s *sqlStore) DeleteTrack(ctx context.Context, trackID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ferrors.New(ferrors.Internal, "begin tx: %v", err)
	}
	defer tx.Rollback()

	// Explicit posting delete keeps behavior identical across backends
	// regardless of whether ON DELETE CASCADE is honored by a given driver
	// configuration.
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM postings WHERE track_id = %s`, s.dialect.placeholder(1)), trackID); err != nil {
		return ferrors.New(ferrors.Internal, "delete postings: %v", err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM tracks WHERE track_id = %s`, s.dialect.placeholder(1)), trackID); err != nil {
		return ferrors.New(ferrors.Internal, "delete track: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return ferrors.New(ferrors.Internal, "commit delete: %v", err)
	}
	return nil
}

func (s *sqlStore) GetTrack(ctx context.Context, trackID int64) (Track, error) {
	q := fmt.Sprintf(
		`SELECT track_id, title, artist, duration_ms, source_hash, created_at FROM tracks WHERE track_id = %s`,
		s.dialect.placeholder(1))
	row := s.db.QueryRowContext(ctx, q, trackID)

	var t Track
	if err := row.Scan(&t.TrackID, &t.Title, &t.Artist, &t.DurationMs, &t.SourceHash, &t.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Track{}, ferrors.New(ferrors.Internal, "track %d not found", trackID)
		}
		return Track{}, ferrors.New(ferrors.StoreCorruption, "read track %d: %v", trackID, err)
	}
	return t, nil
}

func (s *sqlStore) ListTracks(ctx context.Context) ([]Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_id, title, artist, duration_ms, source_hash, created_at FROM tracks ORDER BY track_id`)
	if err != nil {
		return nil, ferrors.New(ferrors.Internal, "list tracks: %v", err)
	}
	defer rows.Close()

	var out []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.TrackID, &t.Title, &t.Artist, &t.DurationMs, &t.SourceHash, &t.CreatedAt); err != nil {
			return nil, ferrors.New(ferrors.StoreCorruption, "scan track: %v", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
