package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/cpindexer/cpindexer/internal/events"
	"github.com/cpindexer/cpindexer/internal/settings"
	"github.com/cpindexer/cpindexer/internal/stats"
)

// fullUpdate is the full-update procedure (spec §4.5). It always runs to
// completion on the worker goroutine; ctx is consulted cooperatively between
// indexer batches, not mid-batch.
func (e *Engine) fullUpdate(ctx context.Context) error {
	cfg := e.currentConfig()
	if !cfg.IndexerEnabled {
		return ErrIndexerDisabled
	}

	now := e.nowMs()
	s := stats.New(stats.UpdateTypeFull, now)
	e.publishStarted(s, events.EventTypeEngineFullStarted)

	updated, err := e.source.UpdatedIDsSince(ctx, 0)
	if err != nil {
		s.RecordUpdateResult(stats.CodeSourceUnavailable)
		e.finishRun(s)
		e.publishFailed(s, err)
		return fmt.Errorf("engine: full update: list updated ids: %w", err)
	}
	wanted := updated.IDs
	if cfg.FullUpdateLimit > 0 && len(wanted) > cfg.FullUpdateLimit {
		wanted = wanted[:cfg.FullUpdateLimit]
	}

	known, err := e.store.ListAllIDs(ctx)
	if err != nil {
		s.RecordUpdateResult(stats.CodeStoreInternal)
		e.finishRun(s)
		e.publishFailed(s, err)
		return fmt.Errorf("engine: full update: list store ids: %w", err)
	}
	unwanted := setDifference(known, updated.IDs)

	if err := e.indexerFor(cfg).UpdatePersonCorpus(ctx, wanted, unwanted, known, s); err != nil {
		e.finishRun(s)
		e.publishFailed(s, err)
		return fmt.Errorf("engine: full update: %w", err)
	}

	e.settingsStore.Persist(settings.Settings{
		LastFullUpdateMs:  now,
		LastDeltaUpdateMs: now,
		LastDeltaDeleteMs: now,
	})
	e.finishRun(s)
	e.publishCompleted(s, events.EventTypeEngineFullCompleted)
	return nil
}

// deltaUpdate is the delta-update procedure (spec §4.5). The pending flag is
// cleared before reading watermarks, so a notification arriving during this
// run's execution queues a fresh one rather than being lost.
func (e *Engine) deltaUpdate(ctx context.Context) error {
	e.deltaPending.Store(false)

	cfg := e.currentConfig()
	if !cfg.IndexerEnabled {
		return ErrIndexerDisabled
	}

	cur := e.settingsStore.Load()
	if cur.LastFullUpdateMs == 0 {
		e.logger.Info("engine: delta deferred, no prior full update")
		return nil
	}
	if e.source.SyncInProgress(ctx) {
		e.logger.Info("engine: delta deferred, source sync in progress")
		return nil
	}

	now := e.nowMs()
	s := stats.New(stats.UpdateTypeDelta, now)
	e.publishStarted(s, events.EventTypeEngineDeltaStarted)

	updated, err := e.source.UpdatedIDsSince(ctx, cur.LastDeltaUpdateMs)
	if err != nil {
		s.RecordUpdateResult(stats.CodeSourceUnavailable)
		e.finishRun(s)
		e.publishFailed(s, err)
		return fmt.Errorf("engine: delta update: updated ids since: %w", err)
	}
	deleted, err := e.source.DeletedIDsSince(ctx, cur.LastDeltaDeleteMs)
	if err != nil {
		s.RecordDeleteResult(stats.CodeSourceUnavailable)
		e.finishRun(s)
		e.publishFailed(s, err)
		return fmt.Errorf("engine: delta update: deleted ids since: %w", err)
	}

	wanted := updated.IDs
	// First-ever delta window after a full update: cap wanted_ids at
	// instant_indexing_limit (see DESIGN.md's Open Question decision).
	if cur.LastDeltaUpdateMs == cur.LastFullUpdateMs && cfg.InstantIndexingLimit > 0 && len(wanted) > cfg.InstantIndexingLimit {
		wanted = wanted[:cfg.InstantIndexingLimit]
	}
	if cfg.DeltaUpdateLimit > 0 && len(wanted) > cfg.DeltaUpdateLimit {
		wanted = wanted[:cfg.DeltaUpdateLimit]
	}

	// No cheap known-ids set is available for a delta run (unlike full
	// update, the delta procedure never lists the store's ids), so every
	// upserted record here is credited to contacts_updated rather than
	// contacts_inserted — see internal/batch.Batcher.Add's isNew contract.
	if err := e.indexerFor(cfg).UpdatePersonCorpus(ctx, wanted, deleted.IDs, nil, s); err != nil {
		e.finishRun(s)
		e.publishFailed(s, err)
		return fmt.Errorf("engine: delta update: %w", err)
	}

	e.settingsStore.Persist(settings.Settings{
		LastFullUpdateMs:  cur.LastFullUpdateMs,
		LastDeltaUpdateMs: updated.MaxTSMs,
		LastDeltaDeleteMs: deleted.MaxTSMs,
	})
	e.finishRun(s)
	e.publishCompleted(s, events.EventTypeEngineDeltaCompleted)
	return nil
}

func (e *Engine) publishStarted(s *stats.UpdateStats, t events.EventType) {
	if e.bus == nil {
		return
	}
	switch t {
	case events.EventTypeEngineFullStarted:
		e.bus.Publish(events.EngineFullStartedEvent{BaseEvent: events.NewBaseEvent(t, time.Now()), RunID: s.RunID.String()})
	case events.EventTypeEngineDeltaStarted:
		e.bus.Publish(events.EngineDeltaStartedEvent{BaseEvent: events.NewBaseEvent(t, time.Now()), RunID: s.RunID.String()})
	}
}

func (e *Engine) publishCompleted(s *stats.UpdateStats, t events.EventType) {
	if e.bus == nil {
		return
	}
	snap := s.Snapshot()
	switch t {
	case events.EventTypeEngineFullCompleted:
		e.bus.Publish(events.EngineFullCompletedEvent{
			BaseEvent: events.NewBaseEvent(t, time.Now()), RunID: s.RunID.String(),
			ContactsInserted: snap.Inserted, ContactsUpdated: snap.Updated, ContactsDeleted: snap.Deleted,
		})
	case events.EventTypeEngineDeltaCompleted:
		e.bus.Publish(events.EngineDeltaCompletedEvent{
			BaseEvent: events.NewBaseEvent(t, time.Now()), RunID: s.RunID.String(),
			ContactsInserted: snap.Inserted, ContactsUpdated: snap.Updated, ContactsDeleted: snap.Deleted,
		})
	}
}

func (e *Engine) publishFailed(s *stats.UpdateStats, err error) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.EngineRunFailedEvent{
		BaseEvent: events.NewBaseEvent(events.EventTypeEngineRunFailed, time.Now()),
		RunID:     s.RunID.String(),
		Err:       err,
	})
}

// setDifference returns the elements of a not present in b (B \ A in spec
// notation, where a is the store's known ids and b is the source's updated
// ids).
func setDifference(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	var out []string
	for _, id := range a {
		if _, ok := inB[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
