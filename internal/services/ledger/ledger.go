package ledger

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gymledger/gymledger/internal/domain"
	"github.com/gymledger/gymledger/internal/storage/kvstore"
)

const (
	amountKey = "DAILY_WATER"
	dateKey   = "LAST_WATER_DATE"
	goalKey   = "WATER_GOAL"

	// DefaultGoalMl is used until the user configures a goal.
	DefaultGoalMl = 2500
	// MinGoalMl is the lower clamp for a configured goal.
	MinGoalMl = 500
)

// History is where completed days are archived. Append is first-write-wins,
// so re-archiving the same date is harmless.
type History interface {
	Append(record domain.DailyRecord) (bool, error)
}

// RolloverResult reports what a rollover did.
type RolloverResult struct {
	// Archived is the record moved into history, nil when no day was completed.
	Archived *domain.DailyRecord
	// CurrentAmountMl is the live counter after the call.
	CurrentAmountMl int
}

// Ledger owns the live daily water counter and its rollover into history.
// State lives under the legacy DAILY_WATER / LAST_WATER_DATE / WATER_GOAL
// keys. All methods are safe for concurrent use; writes toward storage are
// at-least-once: a failed persist keeps the in-memory state and surfaces the
// error.
type Ledger struct {
	kv      *kvstore.Store
	history History
	logger  *zap.Logger

	mu     sync.Mutex
	state  domain.LedgerSnapshot
	loaded bool
}

// New creates a Ledger. State is loaded lazily on first use.
func New(kv *kvstore.Store, history History, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ledger{kv: kv, history: history, logger: logger}
}

// RolloverIfNeeded archives the previous day's total and resets the counter
// when today differs from the last recorded day. Calling it again on the same
// day is a no-op.
func (l *Ledger) RolloverIfNeeded(today domain.DayKey) (RolloverResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.rolloverLocked(today)
}

// RecordDelta adds delta (negative for corrections) to today's counter,
// clamped at zero, and persists the counter together with its day. The
// rollover check runs first, so a write can never land on a stale day.
func (l *Ledger) RecordDelta(today domain.DayKey, delta int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.rolloverLocked(today); err != nil {
		return l.state.CurrentAmountMl, err
	}

	next := l.state.CurrentAmountMl + delta
	if next < 0 {
		next = 0
	}

	l.state.CurrentAmountMl = next
	l.state.LastRecorded = today

	if err := l.persistCounterLocked(); err != nil {
		l.logger.Error("failed to persist water amount", zap.Error(err))
		return next, err
	}

	return next, nil
}

// SetGoal stores the daily goal, clamped to MinGoalMl, and returns the value
// actually stored.
func (l *Ledger) SetGoal(goalMl int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoadedLocked(); err != nil {
		return 0, err
	}

	if goalMl < MinGoalMl {
		goalMl = MinGoalMl
	}

	l.state.DailyGoalMl = goalMl

	if err := l.kv.Set(goalKey, []byte(strconv.Itoa(goalMl))); err != nil {
		l.logger.Error("failed to persist water goal", zap.Error(err))
		return goalMl, errors.Wrap(err, "persist goal")
	}

	return goalMl, nil
}

// Snapshot returns a copy of the current ledger state.
func (l *Ledger) Snapshot() (domain.LedgerSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoadedLocked(); err != nil {
		return domain.LedgerSnapshot{}, err
	}

	return l.state, nil
}

func (l *Ledger) rolloverLocked(today domain.DayKey) (RolloverResult, error) {
	if err := l.ensureLoadedLocked(); err != nil {
		return RolloverResult{}, err
	}

	if l.state.LastRecorded == today {
		return RolloverResult{CurrentAmountMl: l.state.CurrentAmountMl}, nil
	}

	var archived *domain.DailyRecord
	if l.state.CurrentAmountMl > 0 && !l.state.LastRecorded.IsZero() {
		record := domain.NewDailyRecord(l.state.LastRecorded, l.state.CurrentAmountMl)

		inserted, err := l.history.Append(record)
		if err != nil {
			return RolloverResult{CurrentAmountMl: l.state.CurrentAmountMl},
				errors.Wrap(err, "archive completed day")
		}

		if inserted {
			archived = &record
			l.logger.Info("archived completed day",
				zap.String("date", record.Date.String()),
				zap.Int("amount_ml", record.AmountMl))
		}
	}

	l.state.CurrentAmountMl = 0
	l.state.LastRecorded = today

	if err := l.persistCounterLocked(); err != nil {
		l.logger.Error("failed to persist rollover", zap.Error(err))
		return RolloverResult{Archived: archived}, err
	}

	return RolloverResult{Archived: archived}, nil
}

// persistCounterLocked writes the counter and its day in one operation; the
// two keys are only ever written together.
func (l *Ledger) persistCounterLocked() error {
	if err := l.kv.Set(amountKey, []byte(strconv.Itoa(l.state.CurrentAmountMl))); err != nil {
		return errors.Wrap(err, "persist amount")
	}

	if err := l.kv.Set(dateKey, []byte(l.state.LastRecorded.String())); err != nil {
		return errors.Wrap(err, "persist last recorded date")
	}

	return nil
}

func (l *Ledger) ensureLoadedLocked() error {
	if l.loaded {
		return nil
	}

	amount, err := l.readInt(amountKey, 0)
	if err != nil {
		return err
	}

	goal, err := l.readInt(goalKey, DefaultGoalMl)
	if err != nil {
		return err
	}

	var last domain.DayKey

	raw, err := l.kv.Get(dateKey)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		// first run, nothing recorded yet
	case err != nil:
		return errors.Wrap(err, "read last recorded date")
	default:
		last, err = domain.ParseDayKey(string(raw))
		if err != nil {
			return errors.Wrap(err, "stored last recorded date is corrupt")
		}
	}

	l.state = domain.LedgerSnapshot{
		CurrentAmountMl: amount,
		LastRecorded:    last,
		DailyGoalMl:     goal,
	}
	l.loaded = true

	return nil
}

func (l *Ledger) readInt(key string, fallback int) (int, error) {
	raw, err := l.kv.Get(key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return fallback, nil
		}

		return 0, errors.Wrapf(err, "read %s", key)
	}

	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, errors.Wrapf(err, "stored %s is corrupt", key)
	}

	if n < 0 {
		n = 0
	}

	return n, nil
}
