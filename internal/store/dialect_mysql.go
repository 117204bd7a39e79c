package store

import (
	"context"
	"database/sql"
	"fmt"
)

func mysqlDialect() dialect {
	return dialect{
		name:        "mysql",
		placeholder: func(i int) string { return "?" },

		createHeaderTable: `CREATE TABLE IF NOT EXISTS fftrack_header (
			schema_version INT NOT NULL,
			sample_rate INT NOT NULL,
			window_size INT NOT NULL,
			hop_size INT NOT NULL,
			hot_hash_cap INT NOT NULL
		)`,

		createTracksTable: `CREATE TABLE IF NOT EXISTS tracks (
			track_id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(512) NOT NULL,
			artist VARCHAR(512) NOT NULL,
			duration_ms BIGINT NOT NULL,
			source_hash VARCHAR(40) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		createPostingsTable: `CREATE TABLE IF NOT EXISTS postings (
			hash BIGINT UNSIGNED NOT NULL,
			track_id BIGINT UNSIGNED NOT NULL,
			anchor_t INT NOT NULL,
			INDEX idx_postings_hash (hash),
			FOREIGN KEY (track_id) REFERENCES tracks(track_id) ON DELETE CASCADE
		)`,

		insertTrack: func(ctx context.Context, tx *sql.Tx, meta TrackMeta) (int64, error) {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO tracks (title, artist, duration_ms, source_hash) VALUES (?, ?, ?, ?)`,
				meta.Title, meta.Artist, meta.DurationMs, meta.SourceHash)
			if err != nil {
				return 0, err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return 0, fmt.Errorf("read last insert id: %w", err)
			}
			return id, nil
		},
	}
}
