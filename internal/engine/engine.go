// Package engine implements the update scheduler / state machine (C5): the
// single-writer executor that debounces source change notifications into
// at-most-one pending delta update, runs full updates on trigger, and reads
// and writes the settings watermarks around each run.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cpindexer/cpindexer/internal/decode"
	"github.com/cpindexer/cpindexer/internal/events"
	"github.com/cpindexer/cpindexer/internal/indexer"
	"github.com/cpindexer/cpindexer/internal/ports"
	"github.com/cpindexer/cpindexer/internal/settings"
	"github.com/cpindexer/cpindexer/internal/stats"
)

// task is a unit of work run on the engine's single worker goroutine.
type task func(ctx context.Context)

// Engine is the single-writer synchronization engine. All mutation of
// Settings, all calls into the indexer pipeline, and all batcher operations
// happen on its one worker goroutine; external callbacks only ever touch the
// deltaPending flag and submit tasks.
type Engine struct {
	source        ports.ContactSource
	store         ports.ContactStore
	settingsStore *settings.Store
	decoder       *decode.Decoder
	logger        *slog.Logger
	onRun         func(*stats.UpdateStats)
	bus           *events.Bus

	config atomic.Pointer[Config]

	deltaPending atomic.Bool
	tasks        chan task
	done         chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup

	unsubscribe func()

	nowMs func() int64
}

// New builds an Engine. cfg is copied into the atomic config slot; onRun, if
// non-nil, is called with every run's stats after the run completes
// (success or failure) for logging/observability, before the stats are
// discarded, per spec §3's UpdateStats lifecycle.
func New(source ports.ContactSource, store ports.ContactStore, settingsStore *settings.Store, decoder *decode.Decoder, cfg Config, logger *slog.Logger, bus *events.Bus, onRun func(*stats.UpdateStats)) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		source:        source,
		store:         store,
		settingsStore: settingsStore,
		decoder:       decoder,
		logger:        logger,
		onRun:         onRun,
		bus:           bus,
		tasks:         make(chan task, 16),
		done:          make(chan struct{}),
		nowMs:         func() int64 { return time.Now().UnixMilli() },
	}
	e.config.Store(&cfg)
	return e
}

// SetConfig atomically swaps the config consulted at the next run boundary —
// the engine never re-reads config mid-run.
func (e *Engine) SetConfig(cfg Config) {
	e.config.Store(&cfg)
}

func (e *Engine) currentConfig() Config {
	return *e.config.Load()
}

func (e *Engine) indexerFor(cfg Config) *indexer.Indexer {
	return indexer.New(e.source, e.store, e.decoder, cfg.DeleteBatch, cfg.QueryBatch, cfg.UpsertBatch, e.logger)
}

// Start launches the worker goroutine and subscribes to source change
// notifications. ctx bounds every task the worker executes; cancelling it
// does not stop the worker loop itself (use Shutdown for that) but is
// observed cooperatively inside each run.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(1)
	go e.runWorker(ctx)
	e.unsubscribe = e.source.SubscribeChanges(e.NotifyChange)
}

func (e *Engine) runWorker(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case t := <-e.tasks:
			t(ctx)
		case <-e.done:
			return
		}
	}
}

// NotifyChange is the debounced delta entry point (C7's change-notification
// edge). It may be called from any goroutine. Only the false→true CAS
// transition enqueues a delta task; notifications that arrive while that task
// is still queued are folded into it. The task clears the flag when it
// starts running, so a notification arriving during a run queues one more.
func (e *Engine) NotifyChange() {
	if !e.deltaPending.CompareAndSwap(false, true) {
		return
	}
	t := func(ctx context.Context) {
		if err := e.deltaUpdate(ctx); err != nil {
			e.logger.Warn("engine: delta update failed", "error", err)
		}
	}
	select {
	case e.tasks <- t:
	case <-e.done:
	}
}

// RunFullUpdate submits a full-update run to the worker and blocks until it
// completes or ctx is cancelled. This is C7's maintenance-job edge.
func (e *Engine) RunFullUpdate(ctx context.Context) error {
	return e.runOnWorker(ctx, e.fullUpdate)
}

func (e *Engine) runOnWorker(ctx context.Context, fn func(context.Context) error) error {
	select {
	case <-e.done:
		return ErrShutDown
	default:
	}
	resultCh := make(chan error, 1)
	t := func(taskCtx context.Context) {
		resultCh <- fn(taskCtx)
	}
	select {
	case e.tasks <- t:
	case <-e.done:
		return ErrShutDown
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-resultCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown unregisters the change subscription and stops the worker,
// waiting up to grace for in-flight work to drain. Submits after Shutdown
// returns ErrShutDown. A grace of 0 uses the default of 30s.
func (e *Engine) Shutdown(grace time.Duration) {
	if grace <= 0 {
		grace = 30 * time.Second
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	e.closeOnce.Do(func() { close(e.done) })

	waited := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(grace):
		e.logger.Warn("engine: shutdown grace period exceeded")
	}
	if e.bus != nil {
		e.bus.Publish(events.EngineShutdownEvent{BaseEvent: events.NewBaseEvent(events.EventTypeEngineShutdown, time.Now())})
	}
}

func (e *Engine) finishRun(s *stats.UpdateStats) {
	if e.onRun != nil {
		e.onRun(s)
	}
}
