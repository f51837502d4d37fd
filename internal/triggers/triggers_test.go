package triggers_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cpindexer/cpindexer/internal/decode"
	"github.com/cpindexer/cpindexer/internal/decode/label"
	"github.com/cpindexer/cpindexer/internal/engine"
	"github.com/cpindexer/cpindexer/internal/ports"
	"github.com/cpindexer/cpindexer/internal/settings"
	"github.com/cpindexer/cpindexer/internal/testutil/mocks"
	"github.com/cpindexer/cpindexer/internal/triggers"
)

type emptyCursor struct{}

func (emptyCursor) Next(ctx context.Context) bool { return false }
func (emptyCursor) Row() ports.Row                { return nil }
func (emptyCursor) Err() error                     { return nil }
func (emptyCursor) Close() error                   { return nil }

func TestStart_SchedulesFullUpdateWhenNeverRun(t *testing.T) {
	source := new(mocks.ContactSource)
	store := new(mocks.ContactStore)
	source.On("SubscribeChanges", mock.Anything).Return(func() {})

	ran := make(chan struct{})
	source.On("UpdatedIDsSince", mock.Anything, int64(0)).Run(func(args mock.Arguments) {
		close(ran)
	}).Return(ports.IDTimestamp{}, nil)
	store.On("ListAllIDs", mock.Anything).Return(nil, nil)
	store.On("DeleteByID", mock.Anything, mock.Anything).Return(nil)

	settingsStore := settings.New(t.TempDir()+"/watermarks", nil)
	decoder := decode.New(label.NewResolver("en-US"))
	eng := engine.New(source, store, settingsStore, decoder, engine.DefaultConfig(), nil, nil, nil)

	tr := triggers.New(eng, settingsStore, time.Hour, nil)
	tr.Start(context.Background())
	defer tr.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("maintenance full update never ran")
	}
}

func TestStart_SkipsFullUpdateWhenRecentlyRun(t *testing.T) {
	source := new(mocks.ContactSource)
	store := new(mocks.ContactStore)
	source.On("SubscribeChanges", mock.Anything).Return(func() {})

	settingsStore := settings.New(t.TempDir()+"/watermarks", nil)
	settingsStore.Persist(settings.Settings{LastFullUpdateMs: time.Now().UnixMilli()})

	decoder := decode.New(label.NewResolver("en-US"))
	eng := engine.New(source, store, settingsStore, decoder, engine.DefaultConfig(), nil, nil, nil)

	tr := triggers.New(eng, settingsStore, time.Hour, nil)
	tr.Start(context.Background())
	defer tr.Stop()

	time.Sleep(100 * time.Millisecond)
	source.AssertNotCalled(t, "UpdatedIDsSince", mock.Anything, mock.Anything)
}

func TestOnChange_DelegatesToEngine(t *testing.T) {
	source := new(mocks.ContactSource)
	store := new(mocks.ContactStore)
	source.On("SubscribeChanges", mock.Anything).Return(func() {})

	ran := make(chan struct{})
	source.On("SyncInProgress", mock.Anything).Return(false)
	source.On("UpdatedIDsSince", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		close(ran)
	}).Return(ports.IDTimestamp{}, nil)
	source.On("DeletedIDsSince", mock.Anything, mock.Anything).Return(ports.IDTimestamp{}, nil)

	settingsStore := settings.New(t.TempDir()+"/watermarks", nil)
	settingsStore.Persist(settings.Settings{LastFullUpdateMs: time.Now().UnixMilli()})
	decoder := decode.New(label.NewResolver("en-US"))
	eng := engine.New(source, store, settingsStore, decoder, engine.DefaultConfig(), nil, nil, nil)

	tr := triggers.New(eng, settingsStore, time.Hour, nil)
	tr.Start(context.Background())
	defer tr.Stop()

	tr.OnChange()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("delta update never ran")
	}
}
