package storemeta

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLastPreparationMissingReturnsFalse(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.LastPreparation("tenant-a", "default")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRecordPreparationThenLastPreparationReturnsIt(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordPreparation("tenant-a", "default", 10, 10, 42, now))

	got, ok, err := s.LastPreparation("tenant-a", "default")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 10, got.Parsed)
	require.Equal(t, int64(42), got.TotalTimeMs)
}

func TestRecordPreparationUpsertsOnSecondCall(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordPreparation("tenant-a", "default", 5, 5, 10, now))
	require.NoError(t, s.RecordPreparation("tenant-a", "default", 20, 20, 99, now.Add(time.Hour)))

	got, ok, err := s.LastPreparation("tenant-a", "default")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 20, got.Parsed)
	require.Equal(t, int64(99), got.TotalTimeMs)
}
