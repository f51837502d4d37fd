// Package batch implements the batcher (C3): accumulates decoded Person
// records and flushes fixed-size batches to the store, chaining each flush's
// store call strictly after the previous one completes.
package batch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cpindexer/cpindexer/internal/model"
	"github.com/cpindexer/cpindexer/internal/ports"
	"github.com/cpindexer/cpindexer/internal/stats"
)

// DefaultUpsertBatch is the default upsert batch size per spec §6.
const DefaultUpsertBatch = 50

// Batcher accumulates Person records and flushes them in fixed-size batches.
// It is not safe for concurrent Add/Flush calls from multiple goroutines —
// like the rest of the engine, it is driven from a single worker — but its
// in-flight store calls run on their own goroutine, bounded to one at a time
// via group.SetLimit(1), so Add can return before the prior flush's store
// call has completed.
type Batcher struct {
	size  int
	store ports.ContactStore
	stats *stats.UpdateStats

	mu    sync.Mutex
	queue []queuedPerson

	group    *errgroup.Group
	groupCtx context.Context
}

// queuedPerson pairs a decoded record with whether the indexer classified it
// as a new id (absent from the store before this run) or an existing one, so
// a successful flush can split contacts_inserted from contacts_updated
// rather than crediting every upsert to one bucket.
type queuedPerson struct {
	person model.Person
	isNew  bool
}

// New builds a Batcher of the given size (DefaultUpsertBatch if size <= 0)
// writing to store and recording outcomes into s. ctx bounds every store
// call the batcher issues.
func New(ctx context.Context, size int, store ports.ContactStore, s *stats.UpdateStats) *Batcher {
	if size <= 0 {
		size = DefaultUpsertBatch
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(1)
	return &Batcher{
		size:     size,
		store:    store,
		stats:    s,
		group:    group,
		groupCtx: groupCtx,
	}
}

// Add enqueues person, triggering an async flush once the queue reaches the
// configured size. isNew tells the batcher whether the indexer classified
// this id as absent from the store before this run (true) or already
// present (false); a nil known-id set upstream means the indexer could not
// tell, in which case callers pass false and the record is credited to
// contacts_updated, never contacts_inserted. Add itself never blocks on the
// store call; it only blocks if a prior flush's store call is still in
// flight and this call's flush would exceed the one-in-flight limit
// (backpressure, per spec §4.3).
func (b *Batcher) Add(person model.Person, isNew bool) {
	b.mu.Lock()
	b.queue = append(b.queue, queuedPerson{person: person, isNew: isNew})
	full := len(b.queue) >= b.size
	var batch []queuedPerson
	if full {
		batch = b.queue
		b.queue = nil
	}
	b.mu.Unlock()

	if full {
		b.scheduleFlush(batch)
	}
}

// Flush detaches any remaining queued records, schedules their store call,
// and waits for the whole chain (including every previously scheduled
// flush) to drain.
func (b *Batcher) Flush() error {
	b.mu.Lock()
	batch := b.queue
	b.queue = nil
	b.mu.Unlock()

	if len(batch) > 0 {
		b.scheduleFlush(batch)
	}
	return b.group.Wait()
}

func (b *Batcher) scheduleFlush(batch []queuedPerson) {
	b.group.Go(func() error {
		people := make([]model.Person, len(batch))
		inserted := 0
		for i, qp := range batch {
			people[i] = qp.person
			if qp.isNew {
				inserted++
			}
		}

		err := b.store.Upsert(b.groupCtx, people)
		if err != nil {
			b.stats.RecordUpdateResult(stats.CodeStoreInternal)
			b.stats.AddUpdateFailed(len(people))
			return fmt.Errorf("batch: upsert %d records: %w", len(people), err)
		}
		if inserted > 0 {
			b.stats.AddInserted(inserted)
		}
		if updated := len(people) - inserted; updated > 0 {
			b.stats.AddUpdated(updated)
		}
		return nil
	})
}
