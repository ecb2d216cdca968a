package rollover

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymledger/gymledger/internal/domain"
	"github.com/gymledger/gymledger/internal/services/ledger"
	"github.com/gymledger/gymledger/internal/storage/kvstore"
	"github.com/gymledger/gymledger/internal/storage/waterhistory"
)

func TestStartStop(t *testing.T) {
	kv, err := kvstore.New(t.TempDir())
	require.NoError(t, err)

	l := ledger.New(kv, waterhistory.NewKVStore(kv), nil)

	s := New(l, nil)
	require.NoError(t, s.Start())
	s.Stop()
}

func TestTickRollsOverStaleDay(t *testing.T) {
	kv, err := kvstore.New(t.TempDir())
	require.NoError(t, err)

	history := waterhistory.NewKVStore(kv)
	l := ledger.New(kv, history, nil)

	yesterday := domain.NewDayKey(time.Now().AddDate(0, 0, -1))
	_, err = l.RecordDelta(yesterday, 1250)
	require.NoError(t, err)

	s := New(l, nil)
	s.tick()

	record, ok, err := history.Find(yesterday)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1250, record.AmountMl)

	snap, err := l.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 0, snap.CurrentAmountMl)
	assert.Equal(t, domain.NewDayKey(time.Now()), snap.LastRecorded)

	// same day again, nothing more to archive
	s.tick()

	all, err := history.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
