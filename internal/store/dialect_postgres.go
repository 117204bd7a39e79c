package store

import (
	"context"
	"database/sql"
	"fmt"
)

func postgresDialect() dialect {
	return dialect{
		name:        "postgres",
		placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },

		createHeaderTable: `CREATE TABLE IF NOT EXISTS fftrack_header (
			schema_version INT NOT NULL,
			sample_rate INT NOT NULL,
			window_size INT NOT NULL,
			hop_size INT NOT NULL,
			hot_hash_cap INT NOT NULL
		)`,

		createTracksTable: `CREATE TABLE IF NOT EXISTS tracks (
			track_id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			duration_ms BIGINT NOT NULL,
			source_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		createPostingsTable: `CREATE TABLE IF NOT EXISTS postings (
			hash BIGINT NOT NULL,
			track_id BIGINT NOT NULL REFERENCES tracks(track_id) ON DELETE CASCADE,
			anchor_t INT NOT NULL
		)`,
		createPostingsIndex: `CREATE INDEX IF NOT EXISTS idx_postings_hash ON postings (hash)`,

		insertTrack: func(ctx context.Context, tx *sql.Tx, meta TrackMeta) (int64, error) {
			var id int64
			err := tx.QueryRowContext(ctx,
				`INSERT INTO tracks (title, artist, duration_ms, source_hash) VALUES ($1, $2, $3, $4) RETURNING track_id`,
				meta.Title, meta.Artist, meta.DurationMs, meta.SourceHash).Scan(&id)
			if err != nil {
				return 0, err
			}
			return id, nil
		},
	}
}
