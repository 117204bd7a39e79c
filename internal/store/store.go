// Package store implements the persistent index (spec §4.E) and catalog
// (spec §4.G) as a single SQL-backed store, mirroring the teacher's own
// internal/database.Database interface which combines song metadata and
// fingerprint postings behind one abstraction. Two concrete backends are
// wired: MySQL (github.com/go-sql-driver/mysql) and PostgreSQL
// (github.com/lib/pq), selected by configs.DatabaseConfig.Type.
package store

import (
	"context"
	"time"

	"github.com/media-luna/fftrack/internal/fingerprint"
)

// Track is an immutable catalog record (spec §3). Created at ingest time,
// never mutated, removed only by DeleteTrack.
type Track struct {
	TrackID    int64
	Title      string
	Artist     string
	DurationMs int64
	SourceHash string // sha1 of the decoded PCM; used by the cleanup command
	CreatedAt  time.Time
}

// TrackMeta is the subset of Track an ingest operation supplies; TrackID and
// CreatedAt are assigned by the store.
type TrackMeta struct {
	Title      string
	Artist     string
	DurationMs int64
	SourceHash string
}

// PostingRow is one (track_id, anchor_t) occurrence of a looked-up hash.
type PostingRow struct {
	TrackID int64
	AnchorT int
}

// Store is the combined index + catalog interface the matcher and engine
// depend on (spec §4.E, §4.G).
type Store interface {
	// InsertTrack is atomic: either the new track and every posting become
	// visible, or neither does (spec §4.E, §5).
	InsertTrack(ctx context.Context, meta TrackMeta, postings []fingerprint.Posting) (int64, error)

	// Lookup returns the postings for a hash, or nil if the hash is hot
	// (its posting count exceeds the store's configured cap) or unknown
	// (spec §4.E Hot-hash policy).
	Lookup(ctx context.Context, hash fingerprint.Hash) ([]PostingRow, error)

	// DeleteTrack removes the track row and every posting tagged with it.
	// A concurrent lookup never observes postings for a deleted track
	// after this returns (spec §4.E, §5).
	DeleteTrack(ctx context.Context, trackID int64) error

	GetTrack(ctx context.Context, trackID int64) (Track, error)
	ListTracks(ctx context.Context) ([]Track, error)

	// SchemaVersion reports the version advertised by the opened store's
	// header (spec §4.E, §6).
	SchemaVersion() int

	Close() error
}

// Header is recorded in the store on first open and checked against the
// runtime configuration on every subsequent open (spec §6).
type Header struct {
	SchemaVersion int
	SampleRate    int
	WindowSize    int
	HopSize       int
	HotHashCap    int
}
