package domain

import "time"

// SyncStats holds statistics about a sync run.
type SyncStats struct {
	SessionID    int64
	Fetched      int
	New          int
	Updated      int
	Unchanged    int
	Enriched     int
	EnrichErrors int
	Published    int
	Errors       int
	Rebuilt      bool
	Duration     time.Duration
}

// SyncState is the persisted cursor for a sync source.
type SyncState struct {
	ID           int64     `db:"id"`
	SourceID     string    `db:"source_id"`
	LastSyncedAt time.Time `db:"last_synced_at"`
	LastSession  int64     `db:"last_session_id"`
	TotalSynced  int64     `db:"total_synced"`
}
