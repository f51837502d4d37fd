package engine

import "time"

// Config is the engine's immutable-per-run tunable set (spec §6). The engine
// holds it behind an atomic pointer (see DESIGN NOTES' "process-wide state"
// mapping); a hot-reload replaces the pointer, and the new value is only
// consulted at the next run boundary.
type Config struct {
	IndexerEnabled bool `mapstructure:"indexer_enabled" yaml:"indexer_enabled"`

	// InstantIndexingLimit caps wanted_ids on the first-ever delta update
	// after a full update (see DESIGN.md's Open Question decision).
	InstantIndexingLimit int `mapstructure:"instant_indexing_limit" yaml:"instant_indexing_limit"`

	FullUpdateIntervalMs int64 `mapstructure:"full_update_interval_ms" yaml:"full_update_interval_ms"`
	FullUpdateLimit      int   `mapstructure:"full_update_limit" yaml:"full_update_limit"`
	DeltaUpdateLimit     int   `mapstructure:"delta_update_limit" yaml:"delta_update_limit"`

	UpsertBatch int `mapstructure:"upsert_batch" yaml:"upsert_batch"`
	DeleteBatch int `mapstructure:"delete_batch" yaml:"delete_batch"`
	QueryBatch  int `mapstructure:"query_batch" yaml:"query_batch"`
}

// DefaultConfig returns the engine's built-in default tunables.
func DefaultConfig() Config {
	return Config{
		IndexerEnabled:        true,
		InstantIndexingLimit:  1000,
		FullUpdateIntervalMs:  int64(30 * 24 * time.Hour / time.Millisecond),
		FullUpdateLimit:       10000,
		DeltaUpdateLimit:      1000,
		UpsertBatch:           50,
		DeleteBatch:           500,
		QueryBatch:            100,
	}
}
