package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cpindexer/cpindexer/internal/decode"
	"github.com/cpindexer/cpindexer/internal/decode/label"
	"github.com/cpindexer/cpindexer/internal/engine"
	"github.com/cpindexer/cpindexer/internal/events"
	"github.com/cpindexer/cpindexer/internal/ports"
	"github.com/cpindexer/cpindexer/internal/settings"
	"github.com/cpindexer/cpindexer/internal/stats"
	"github.com/cpindexer/cpindexer/internal/testutil/mocks"
)

func newEngine(t *testing.T, source *mocks.ContactSource, store *mocks.ContactStore, cfg engine.Config, onRun func(*stats.UpdateStats)) (*engine.Engine, *settings.Store) {
	t.Helper()
	source.On("SubscribeChanges", mock.Anything).Return(func() {})
	settingsStore := settings.New(t.TempDir()+"/watermarks", nil)
	decoder := decode.New(label.NewResolver("en-US"))
	bus := events.NewBus()
	e := engine.New(source, store, settingsStore, decoder, cfg, nil, bus, onRun)
	return e, settingsStore
}

func TestRunFullUpdate_PersistsWatermarksOnSuccess(t *testing.T) {
	source := new(mocks.ContactSource)
	store := new(mocks.ContactStore)

	source.On("UpdatedIDsSince", mock.Anything, int64(0)).Return(ports.IDTimestamp{IDs: []string{"1", "2"}}, nil)
	store.On("ListAllIDs", mock.Anything).Return([]string{"1", "3"}, nil)
	store.On("DeleteByID", mock.Anything, []string{"3"}).Return(nil)
	source.On("QueryContacts", mock.Anything, []string{"1", "2"}, mock.Anything).Return(emptyCursor{}, nil)
	store.On("Upsert", mock.Anything, mock.Anything).Return(nil).Maybe()

	e, settingsStore := newEngine(t, source, store, engine.DefaultConfig(), nil)
	e.Start(context.Background())
	defer e.Shutdown(time.Second)

	err := e.RunFullUpdate(context.Background())
	require.NoError(t, err)

	got := settingsStore.Load()
	assert.NotZero(t, got.LastFullUpdateMs)
	assert.Equal(t, got.LastFullUpdateMs, got.LastDeltaUpdateMs)
}

func TestRunFullUpdate_DisabledReturnsError(t *testing.T) {
	source := new(mocks.ContactSource)
	store := new(mocks.ContactStore)

	cfg := engine.DefaultConfig()
	cfg.IndexerEnabled = false
	e, _ := newEngine(t, source, store, cfg, nil)
	e.Start(context.Background())
	defer e.Shutdown(time.Second)

	err := e.RunFullUpdate(context.Background())
	assert.ErrorIs(t, err, engine.ErrIndexerDisabled)
}

func TestRunFullUpdate_SourceErrorDoesNotPersist(t *testing.T) {
	source := new(mocks.ContactSource)
	store := new(mocks.ContactStore)

	source.On("UpdatedIDsSince", mock.Anything, int64(0)).Return(ports.IDTimestamp{}, errors.New("network"))

	e, settingsStore := newEngine(t, source, store, engine.DefaultConfig(), nil)
	e.Start(context.Background())
	defer e.Shutdown(time.Second)

	err := e.RunFullUpdate(context.Background())
	assert.Error(t, err)
	assert.Zero(t, settingsStore.Load().LastFullUpdateMs)
}

func TestNotifyChange_DebouncesBeforeWorkerStarts(t *testing.T) {
	source := new(mocks.ContactSource)
	store := new(mocks.ContactStore)
	source.On("SubscribeChanges", mock.Anything).Return(func() {})

	settingsStore := settings.New(t.TempDir()+"/watermarks", nil)
	settingsStore.Persist(settings.Settings{LastFullUpdateMs: 1, LastDeltaUpdateMs: 1, LastDeltaDeleteMs: 1})
	decoder := decode.New(label.NewResolver("en-US"))
	e := engine.New(source, store, settingsStore, decoder, engine.DefaultConfig(), nil, nil, nil)
	source.On("SyncInProgress", mock.Anything).Return(false)

	// Worker not started: only the first NotifyChange's CAS can succeed.
	for i := 0; i < 5; i++ {
		e.NotifyChange()
	}

	done := make(chan struct{})
	source.On("UpdatedIDsSince", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		close(done)
	}).Return(ports.IDTimestamp{}, errors.New("stop here"))

	e.Start(context.Background())
	defer e.Shutdown(time.Second)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delta task never ran")
	}
	time.Sleep(50 * time.Millisecond)
	source.AssertNumberOfCalls(t, "UpdatedIDsSince", 1)
}

func TestShutdown_PublishesShutdownEvent(t *testing.T) {
	source := new(mocks.ContactSource)
	store := new(mocks.ContactStore)
	source.On("SubscribeChanges", mock.Anything).Return(func() {})

	settingsStore := settings.New(t.TempDir()+"/watermarks", nil)
	decoder := decode.New(label.NewResolver("en-US"))
	bus := events.NewBus()

	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeEngineShutdown, func(ev events.Event) { received <- ev })

	e := engine.New(source, store, settingsStore, decoder, engine.DefaultConfig(), nil, bus, nil)
	e.Start(context.Background())
	e.Shutdown(time.Second)

	select {
	case ev := <-received:
		assert.Equal(t, events.EventTypeEngineShutdown, ev.Type())
	case <-time.After(time.Second):
		t.Fatal("shutdown event never published")
	}
}

type emptyCursor struct{}

func (emptyCursor) Next(ctx context.Context) bool { return false }
func (emptyCursor) Row() ports.Row                { return nil }
func (emptyCursor) Err() error                    { return nil }
func (emptyCursor) Close() error                  { return nil }
