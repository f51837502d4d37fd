// Package stats holds UpdateStats: per-run counters and result-code
// sets, distinguishing update vs delete and success vs failure.
package stats

import (
	"sync"

	"github.com/google/uuid"
)

// UpdateType distinguishes a full update run from a delta run.
type UpdateType int

const (
	UpdateTypeUnknown UpdateType = iota
	UpdateTypeDelta
	UpdateTypeFull
)

func (t UpdateType) String() string {
	switch t {
	case UpdateTypeDelta:
		return "delta"
	case UpdateTypeFull:
		return "full"
	default:
		return "unknown"
	}
}

// Code is an error-code tag recorded in a result-code set, or CodeSuccess.
type Code string

const (
	CodeSuccess             Code = "success"
	CodeSourceUnavailable   Code = "source_unavailable"
	CodeSourceDecode        Code = "source_decode_error"
	CodeStoreInternal       Code = "store_internal_error"
	CodeStoreOutOfSpace     Code = "store_out_of_space"
	CodeSettingsIO          Code = "settings_io_error"
)

// codeSet aggregates result codes per the contract in spec §4.6: success is
// a singleton CodeSuccess until any failure is observed, at which point
// success is dropped and only the distinct failure codes remain.
type codeSet struct {
	codes map[Code]struct{}
}

func newCodeSet() codeSet {
	return codeSet{codes: map[Code]struct{}{CodeSuccess: {}}}
}

func (s *codeSet) record(code Code) {
	if code == CodeSuccess {
		return
	}
	if _, ok := s.codes[CodeSuccess]; ok {
		delete(s.codes, CodeSuccess)
	}
	s.codes[code] = struct{}{}
}

// Codes returns the set's members. For an all-success run this is exactly
// {CodeSuccess}; otherwise it is the distinct failure codes observed.
func (s *codeSet) Codes() []Code {
	out := make([]Code, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	return out
}

func (s *codeSet) ok() bool {
	_, success := s.codes[CodeSuccess]
	return success
}

// UpdateStats is the in-memory record of one engine run, created at run
// start and logged/discarded at run end. The batcher's serial store-call
// chain runs its completion callback on a goroutine distinct from the
// engine's worker, so counters and code sets are mutex-guarded.
type UpdateStats struct {
	RunID       uuid.UUID
	Type        UpdateType
	StartTimeMs int64

	mu          sync.Mutex
	updateCodes codeSet
	deleteCodes codeSet

	contactsInserted     int
	contactsUpdated      int
	contactsSkipped      int
	contactsDeleted      int
	contactsUpdateFailed int
	contactsDeleteFailed int
}

// New creates an UpdateStats for a run of the given type starting at
// startTimeMs, tagged with a fresh correlation id.
func New(updateType UpdateType, startTimeMs int64) *UpdateStats {
	return &UpdateStats{
		RunID:       uuid.New(),
		Type:        updateType,
		StartTimeMs: startTimeMs,
		updateCodes: newCodeSet(),
		deleteCodes: newCodeSet(),
	}
}

// RecordUpdateResult folds a result code into the update-phase code set.
func (s *UpdateStats) RecordUpdateResult(code Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCodes.record(code)
}

// RecordDeleteResult folds a result code into the delete-phase code set.
func (s *UpdateStats) RecordDeleteResult(code Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCodes.record(code)
}

// UpdateCodes returns the update phase's result-code set.
func (s *UpdateStats) UpdateCodes() []Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCodes.Codes()
}

// DeleteCodes returns the delete phase's result-code set.
func (s *UpdateStats) DeleteCodes() []Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteCodes.Codes()
}

// UpdateOK reports whether the update phase recorded only successes.
func (s *UpdateStats) UpdateOK() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCodes.ok()
}

// DeleteOK reports whether the delete phase recorded only successes.
func (s *UpdateStats) DeleteOK() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteCodes.ok()
}

// AddInserted adds n to the inserted-contacts counter.
func (s *UpdateStats) AddInserted(n int) { s.mu.Lock(); s.contactsInserted += n; s.mu.Unlock() }

// AddUpdated adds n to the updated-contacts counter.
func (s *UpdateStats) AddUpdated(n int) { s.mu.Lock(); s.contactsUpdated += n; s.mu.Unlock() }

// AddSkipped adds n to the skipped-contacts counter.
func (s *UpdateStats) AddSkipped(n int) { s.mu.Lock(); s.contactsSkipped += n; s.mu.Unlock() }

// AddDeleted adds n to the deleted-contacts counter.
func (s *UpdateStats) AddDeleted(n int) { s.mu.Lock(); s.contactsDeleted += n; s.mu.Unlock() }

// AddUpdateFailed adds n to the update-failed counter.
func (s *UpdateStats) AddUpdateFailed(n int) {
	s.mu.Lock()
	s.contactsUpdateFailed += n
	s.mu.Unlock()
}

// AddDeleteFailed adds n to the delete-failed counter.
func (s *UpdateStats) AddDeleteFailed(n int) {
	s.mu.Lock()
	s.contactsDeleteFailed += n
	s.mu.Unlock()
}

// Counters is a point-in-time snapshot of the run's counters, for logging.
type Counters struct {
	Inserted     int
	Updated      int
	Skipped      int
	Deleted      int
	UpdateFailed int
	DeleteFailed int
}

// Snapshot returns the current counter values.
func (s *UpdateStats) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counters{
		Inserted:     s.contactsInserted,
		Updated:      s.contactsUpdated,
		Skipped:      s.contactsSkipped,
		Deleted:      s.contactsDeleted,
		UpdateFailed: s.contactsUpdateFailed,
		DeleteFailed: s.contactsDeleteFailed,
	}
}
