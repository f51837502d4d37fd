package engine

import "errors"

// Sentinel errors for engine control flow. The failure taxonomy proper
// (source_unavailable, store_internal_error, ...) is recorded per-run in
// stats.Code, not duplicated here — these are states of the engine itself.
var (
	// ErrShutDown is returned by any call submitted after Shutdown.
	ErrShutDown = errors.New("engine: shut down")

	// ErrIndexerDisabled is returned when a run is requested while
	// Config.IndexerEnabled is false.
	ErrIndexerDisabled = errors.New("engine: indexer disabled")
)
