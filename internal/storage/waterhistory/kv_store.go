package waterhistory

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/gymledger/gymledger/internal/domain"
	"github.com/gymledger/gymledger/internal/storage/kvstore"
)

// historyKey is the legacy storage key the history array lives under.
const historyKey = "WATER_HISTORY"

// KVStore keeps the archive as a JSON array under the WATER_HISTORY key,
// byte-compatible with data the app has already written. Appends are
// first-write-wins: a date present in the array is never touched again.
type KVStore struct {
	kv *kvstore.Store
}

// NewKVStore creates the layout-compatible history store.
func NewKVStore(kv *kvstore.Store) *KVStore {
	return &KVStore{kv: kv}
}

// Append inserts the record unless a record for its date already exists.
// Returns true when an insert happened.
func (s *KVStore) Append(record domain.DailyRecord) (bool, error) {
	inserted := false

	err := s.kv.Update(historyKey, func(current []byte) ([]byte, error) {
		records, err := decodeHistory(current)
		if err != nil {
			return nil, err
		}

		for _, existing := range records {
			if existing.Date == record.Date {
				// first write wins, keep the document as is
				return current, nil
			}
		}

		records = append(records, record)
		inserted = true

		return json.Marshal(records)
	})
	if err != nil {
		return false, errors.Wrap(err, "append history record")
	}

	return inserted, nil
}

// All returns a snapshot of every archived day.
func (s *KVStore) All() ([]domain.DailyRecord, error) {
	raw, err := s.kv.Get(historyKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []domain.DailyRecord{}, nil
		}

		return nil, errors.Wrap(err, "read history")
	}

	return decodeHistory(raw)
}

// Find looks up the record for a single day.
func (s *KVStore) Find(date domain.DayKey) (domain.DailyRecord, bool, error) {
	records, err := s.All()
	if err != nil {
		return domain.DailyRecord{}, false, err
	}

	for _, record := range records {
		if record.Date == date {
			return record, true, nil
		}
	}

	return domain.DailyRecord{}, false, nil
}

func decodeHistory(raw []byte) ([]domain.DailyRecord, error) {
	if len(raw) == 0 {
		return []domain.DailyRecord{}, nil
	}

	var records []domain.DailyRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, errors.Wrap(err, "decode history document")
	}

	if records == nil {
		records = []domain.DailyRecord{}
	}

	return records, nil
}
