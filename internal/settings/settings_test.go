package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpindexer/cpindexer/internal/settings"
)

func TestLoad_MissingFileDegradesToZero(t *testing.T) {
	store := settings.New(filepath.Join(t.TempDir(), "absent"), nil)
	assert.Equal(t, settings.Settings{}, store.Load())
}

func TestPersistThenLoad_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watermarks")
	store := settings.New(path, nil)

	want := settings.Settings{LastDeltaUpdateMs: 111, LastDeltaDeleteMs: 222, LastFullUpdateMs: 333}
	store.Persist(want)

	got := store.Load()
	assert.Equal(t, want, got)
}

func TestLoad_MalformedLineDegradesToZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watermarks")
	require.NoError(t, os.WriteFile(path, []byte("not,enough,fields"), 0o644))

	store := settings.New(path, nil)
	assert.Equal(t, settings.Settings{}, store.Load())
}

func TestLoad_UnparseableTimestampDegradesToZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watermarks")
	require.NoError(t, os.WriteFile(path, []byte("1,abc,2,3"), 0o644))

	store := settings.New(path, nil)
	assert.Equal(t, settings.Settings{}, store.Load())
}

func TestLoad_UnknownVersionStillAccepted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watermarks")
	require.NoError(t, os.WriteFile(path, []byte("99,10,20,30"), 0o644))

	store := settings.New(path, nil)
	assert.Equal(t, settings.Settings{LastDeltaUpdateMs: 10, LastDeltaDeleteMs: 20, LastFullUpdateMs: 30}, store.Load())
}

func TestPersist_CreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "watermarks")
	store := settings.New(path, nil)
	store.Persist(settings.Settings{LastFullUpdateMs: 42})

	got := store.Load()
	assert.Equal(t, int64(42), got.LastFullUpdateMs)
}
