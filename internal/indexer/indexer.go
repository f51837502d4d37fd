// Package indexer implements the indexing pipeline: given wanted and
// unwanted id sets, deletes unwanted ids in batches, then queries and
// decodes wanted ids in batches, feeding the result through the batcher.
package indexer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cpindexer/cpindexer/internal/batch"
	"github.com/cpindexer/cpindexer/internal/decode"
	"github.com/cpindexer/cpindexer/internal/ports"
	"github.com/cpindexer/cpindexer/internal/stats"
)

// Default chunk sizes per spec §6.
const (
	DefaultDeleteBatch = 500
	DefaultQueryBatch  = 100
)

// queryColumns is the fixed column set requested on every cursor open,
// covering every mime-type handler the decoder dispatches to.
var queryColumns = map[string]struct{}{
	ports.ColID:                 {},
	ports.ColContactID:          {},
	ports.ColLookupKey:          {},
	ports.ColPhotoThumbnailURI:  {},
	ports.ColDisplayNamePrimary: {},
	ports.ColPhoneticName:       {},
	ports.ColRawContactID:       {},
	ports.ColNameRawContactID:   {},
	ports.ColStarred:            {},
	ports.ColIsPrimary:          {},
	ports.ColIsSuperPrimary:     {},
	ports.ColAddress:            {},
	ports.ColType:               {},
	ports.ColLabel:              {},
	ports.ColRelationName:       {},
	ports.ColOrgTitle:           {},
	ports.ColOrgDepartment:      {},
	ports.ColOrgCompany:         {},
	ports.ColNote:               {},
	ports.ColGivenName:          {},
	ports.ColMiddleName:         {},
	ports.ColFamilyName:         {},
}

// Indexer drives C4's delete-then-update pipeline.
type Indexer struct {
	source ports.ContactSource
	store  ports.ContactStore
	decoder *decode.Decoder

	deleteBatch int
	queryBatch  int
	upsertBatch int

	logger *slog.Logger
}

// New builds an Indexer. Zero/negative batch sizes fall back to the
// package defaults.
func New(source ports.ContactSource, store ports.ContactStore, decoder *decode.Decoder, deleteBatch, queryBatch, upsertBatch int, logger *slog.Logger) *Indexer {
	if deleteBatch <= 0 {
		deleteBatch = DefaultDeleteBatch
	}
	if queryBatch <= 0 {
		queryBatch = DefaultQueryBatch
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		source:      source,
		store:       store,
		decoder:     decoder,
		deleteBatch: deleteBatch,
		queryBatch:  queryBatch,
		upsertBatch: upsertBatch,
		logger:      logger,
	}
}

// UpdatePersonCorpus runs one pass of the pipeline: deletes complete fully
// before any upsert is issued, per spec §4.4. known is the set of ids the
// store already held before this run began (the full-update procedure has
// this from its own ListAllIDs call; the delta procedure has no cheap way
// to get it and passes nil), used only to split contacts_inserted from
// contacts_updated in s — it has no bearing on which ids are queried or
// written.
func (ix *Indexer) UpdatePersonCorpus(ctx context.Context, wanted, unwanted, known []string, s *stats.UpdateStats) error {
	ix.runDeletes(ctx, unwanted, s)

	var knownSet map[string]struct{}
	if known != nil {
		knownSet = make(map[string]struct{}, len(known))
		for _, id := range known {
			knownSet[id] = struct{}{}
		}
	}

	b := batch.New(ctx, ix.upsertBatch, ix.store, s)

	for _, chunk := range chunk(wanted, ix.queryBatch) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ix.updateChunk(ctx, chunk, knownSet, b, s); err != nil {
			// Drain whatever is already in flight before reporting failure;
			// its outcome does not change the fact this run failed, but it
			// keeps the store's in-flight call count bounded before we
			// return control to the caller.
			_ = b.Flush()
			return err
		}
	}

	return b.Flush()
}

// runDeletes partitions unwanted into delete-batch chunks. A chunk failure
// is logged and swallowed — it never aborts subsequent deletes or the
// update phase that follows, per spec §4.4 step 1.
func (ix *Indexer) runDeletes(ctx context.Context, unwanted []string, s *stats.UpdateStats) {
	for _, c := range chunk(unwanted, ix.deleteBatch) {
		if err := ix.store.DeleteByID(ctx, c); err != nil {
			ix.logger.Warn("indexer: delete chunk failed, continuing", "count", len(c), "error", err)
			s.RecordDeleteResult(stats.CodeStoreInternal)
			s.AddDeleteFailed(len(c))
			continue
		}
		s.RecordDeleteResult(stats.CodeSuccess)
		s.AddDeleted(len(c))
	}
}

// updateChunk queries one chunk of wanted ids, decodes the resulting cursor,
// and feeds the decoded Person records into the batcher. A record failing
// model.Person.Validate() is logged and counted as skipped rather than
// handed to the batcher — the decoder's own invariants make this
// unreachable in practice (it always sets a non-empty id and never builds
// two ContactPoints for the same label), but it is the one place a
// malformed record could still surface before reaching the store.
func (ix *Indexer) updateChunk(ctx context.Context, ids []string, known map[string]struct{}, b *batch.Batcher, s *stats.UpdateStats) error {
	cur, err := ix.source.QueryContacts(ctx, ids, queryColumns)
	if err != nil {
		s.RecordUpdateResult(stats.CodeSourceUnavailable)
		s.AddUpdateFailed(len(ids))
		return fmt.Errorf("indexer: query contacts: %w", err)
	}
	if cur == nil {
		s.RecordUpdateResult(stats.CodeSourceUnavailable)
		s.AddUpdateFailed(len(ids))
		return fmt.Errorf("indexer: source returned no cursor for %d ids", len(ids))
	}

	people, err := ix.decoder.Decode(ctx, cur)
	if err != nil {
		s.RecordUpdateResult(stats.CodeSourceDecode)
		s.AddUpdateFailed(len(ids))
		return fmt.Errorf("indexer: decode chunk: %w", err)
	}

	for _, p := range people {
		if err := p.Validate(); err != nil {
			ix.logger.Warn("indexer: skipping invalid person", "id", p.ID, "error", err)
			s.AddSkipped(1)
			continue
		}
		_, isKnown := known[p.ID]
		b.Add(p, known != nil && !isKnown)
	}
	s.RecordUpdateResult(stats.CodeSuccess)
	return nil
}

// chunk splits ids into slices of at most size elements. A nil or empty ids
// yields no chunks.
func chunk(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	var out [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[i:end])
	}
	return out
}
