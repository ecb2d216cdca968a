package waterhistory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymledger/gymledger/internal/domain"
	"github.com/gymledger/gymledger/internal/storage/kvstore"
)

// store is the behavior both backends must share.
type store interface {
	Append(domain.DailyRecord) (bool, error)
	All() ([]domain.DailyRecord, error)
	Find(domain.DayKey) (domain.DailyRecord, bool, error)
}

func day(d int) domain.DayKey {
	return domain.DayKey{Day: d, Month: time.March, Year: 2024}
}

func withBackends(t *testing.T, fn func(t *testing.T, s store)) {
	t.Helper()

	t.Run("kv", func(t *testing.T) {
		kv, err := kvstore.New(t.TempDir())
		require.NoError(t, err)
		fn(t, NewKVStore(kv))
	})

	t.Run("wal", func(t *testing.T) {
		s, err := NewWALStore(t.TempDir())
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, s.Close())
		}()
		fn(t, s)
	})
}

func TestAppendAndFind(t *testing.T) {
	withBackends(t, func(t *testing.T, s store) {
		inserted, err := s.Append(domain.NewDailyRecord(day(5), 1250))
		require.NoError(t, err)
		assert.True(t, inserted)

		record, ok, err := s.Find(day(5))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1250, record.AmountMl)

		_, ok, err = s.Find(day(6))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAppendFirstWriteWins(t *testing.T) {
	withBackends(t, func(t *testing.T, s store) {
		inserted, err := s.Append(domain.NewDailyRecord(day(5), 1250))
		require.NoError(t, err)
		assert.True(t, inserted)

		// second append for the same date is silently ignored
		inserted, err = s.Append(domain.NewDailyRecord(day(5), 9999))
		require.NoError(t, err)
		assert.False(t, inserted)

		record, ok, err := s.Find(day(5))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1250, record.AmountMl)

		all, err := s.All()
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestAllOnEmptyStore(t *testing.T) {
	withBackends(t, func(t *testing.T, s store) {
		all, err := s.All()
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestAllKeepsDistinctDays(t *testing.T) {
	withBackends(t, func(t *testing.T, s store) {
		for d := 1; d <= 4; d++ {
			_, err := s.Append(domain.NewDailyRecord(day(d), d*500))
			require.NoError(t, err)
		}

		all, err := s.All()
		require.NoError(t, err)
		require.Len(t, all, 4)

		seen := make(map[domain.DayKey]int)
		for _, record := range all {
			seen[record.Date] = record.AmountMl
		}
		for d := 1; d <= 4; d++ {
			assert.Equal(t, d*500, seen[day(d)])
		}
	})
}

func TestKVStoreReadsLegacyDocument(t *testing.T) {
	kv, err := kvstore.New(t.TempDir())
	require.NoError(t, err)

	// document shape the mobile app wrote
	legacy := `[{"date":"5-3-2024","amount":1250},{"date":"6-3-2024","amount":2000}]`
	require.NoError(t, kv.Set("WATER_HISTORY", []byte(legacy)))

	s := NewKVStore(kv)

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 2)

	record, ok, err := s.Find(day(6))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2000, record.AmountMl)
}

func TestKVStoreCorruptDocumentIsAnError(t *testing.T) {
	kv, err := kvstore.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, kv.Set("WATER_HISTORY", []byte("{not json")))

	s := NewKVStore(kv)

	_, err = s.All()
	assert.Error(t, err)
}

func TestWALStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewWALStore(dir)
	require.NoError(t, err)

	_, err = s.Append(domain.NewDailyRecord(day(5), 1250))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, reopened.Close())
	}()

	record, ok, err := reopened.Find(day(5))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1250, record.AmountMl)

	// the index still dedupes after a restart
	inserted, err := reopened.Append(domain.NewDailyRecord(day(5), 7777))
	require.NoError(t, err)
	assert.False(t, inserted)
}
