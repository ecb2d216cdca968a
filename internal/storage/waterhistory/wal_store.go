package waterhistory

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/gymledger/gymledger/internal/domain"
)

const (
	segmentLimit = 1000
	maxSegments  = 10

	recordKeyPrefix = "water_"
)

// WALStore persists the archive as one append-only WAL entry per day, keyed by
// the day's wire string. It is the per-record alternative to the whole-array
// KVStore; the append-once-per-date rule is enforced by an in-memory index
// rebuilt from the log on startup.
type WALStore struct {
	wal *gowal.Wal

	mu      sync.RWMutex
	byDate  map[domain.DayKey]domain.DailyRecord
	ordered []domain.DailyRecord
}

// NewWALStore opens (or creates) the WAL in dir and rebuilds the date index.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		return nil, errors.New("waterhistory: wal dir is required")
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "history_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init history WAL")
	}

	s := &WALStore{
		wal:    wal,
		byDate: make(map[domain.DayKey]domain.DailyRecord),
	}

	for m := range wal.Iterator() {
		var record domain.DailyRecord
		if err := json.Unmarshal(m.Value, &record); err != nil {
			_ = wal.Close()
			return nil, errors.Wrapf(err, "decode history record %s", m.Key)
		}

		if _, ok := s.byDate[record.Date]; ok {
			continue
		}

		s.byDate[record.Date] = record
		s.ordered = append(s.ordered, record)
	}

	return s, nil
}

// Append writes the record unless its date is already archived. Returns true
// when an insert happened.
func (s *WALStore) Append(record domain.DailyRecord) (bool, error) {
	if s == nil || s.wal == nil {
		return false, errors.New("history store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byDate[record.Date]; ok {
		return false, nil
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return false, errors.Wrap(err, "marshal history record")
	}

	key := recordKeyPrefix + record.Date.String()
	if err := s.wal.Write(s.wal.CurrentIndex()+1, key, payload); err != nil {
		return false, errors.Wrapf(err, "write history record %s", key)
	}

	s.byDate[record.Date] = record
	s.ordered = append(s.ordered, record)

	return true, nil
}

// All returns a snapshot of every archived day in insertion order.
func (s *WALStore) All() ([]domain.DailyRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("history store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DailyRecord, len(s.ordered))
	copy(out, s.ordered)

	return out, nil
}

// Find looks up the record for a single day.
func (s *WALStore) Find(date domain.DayKey) (domain.DailyRecord, bool, error) {
	if s == nil || s.wal == nil {
		return domain.DailyRecord{}, false, errors.New("history store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byDate[date]

	return record, ok, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
