package internal

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gymledger/gymledger/config"
	"github.com/gymledger/gymledger/internal/domain"
	"github.com/gymledger/gymledger/internal/locale"
	"github.com/gymledger/gymledger/internal/services/aggregate"
	"github.com/gymledger/gymledger/internal/services/ledger"
	"github.com/gymledger/gymledger/internal/services/rollover"
	"github.com/gymledger/gymledger/internal/services/workouts"
	"github.com/gymledger/gymledger/internal/storage/kvstore"
	"github.com/gymledger/gymledger/internal/storage/waterhistory"
)

// historyStore is the archive behavior the tracker needs; both backends
// implement it.
type historyStore interface {
	ledger.History
	All() ([]domain.DailyRecord, error)
	Find(date domain.DayKey) (domain.DailyRecord, bool, error)
}

// Tracker is the composition root the embedding UI layer talks to. It wires
// the key-value store, the selected history backend and the services, and
// offers the derived views ready for rendering.
type Tracker struct {
	cfg     config.Config
	logger  *zap.Logger
	kv      *kvstore.Store
	history historyStore

	Ledger   *ledger.Ledger
	Workouts *workouts.Service
	Locale   *locale.Provider

	scheduler *rollover.Scheduler
}

// NewTracker builds a tracker from the configuration. The returned value must
// be closed when the embedder shuts down.
func NewTracker(cfg config.Config, logger *zap.Logger) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	kv, err := kvstore.New(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	history, err := newHistoryStore(cfg, kv)
	if err != nil {
		return nil, err
	}

	t := &Tracker{
		cfg:      cfg,
		logger:   logger,
		kv:       kv,
		history:  history,
		Ledger:   ledger.New(kv, history, logger.Named("ledger")),
		Workouts: workouts.New(kv, logger.Named("workouts")),
	}

	t.Locale, err = locale.New(kv, cfg.DeviceLocale)
	if err != nil {
		t.closeHistory()
		return nil, err
	}

	if cfg.MidnightRollover {
		t.scheduler = rollover.New(t.Ledger, logger.Named("rollover"))
		if err := t.scheduler.Start(); err != nil {
			t.closeHistory()
			return nil, errors.Wrap(err, "start rollover scheduler")
		}
	}

	return t, nil
}

// newHistoryStore is the single dispatch point for history backends.
func newHistoryStore(cfg config.Config, kv *kvstore.Store) (historyStore, error) {
	switch cfg.HistoryBackend {
	case config.BackendKV:
		return waterhistory.NewKVStore(kv), nil
	case config.BackendWAL:
		return waterhistory.NewWALStore(cfg.WALDir)
	default:
		return nil, errors.Errorf("unsupported history backend %q", cfg.HistoryBackend)
	}
}

// WeeklyView is the weekly chart data with labels already localized.
type WeeklyView struct {
	Days []WeeklyDay
	// MaxMl is the chart scale: the series maximum floored at the goal.
	MaxMl int
	// GoalMl is the active daily goal.
	GoalMl int
}

// WeeklyDay is one localized bar of the weekly chart.
type WeeklyDay struct {
	Date     domain.DayKey
	Label    string
	AmountMl int
	// Percent is the bar's share of the goal in [0, 1].
	Percent float64
}

// Weekly rolls the ledger over if needed and returns the 7-day view ending
// today.
func (t *Tracker) Weekly() (WeeklyView, error) {
	today := domain.NewDayKey(time.Now())

	if _, err := t.Ledger.RolloverIfNeeded(today); err != nil {
		return WeeklyView{}, err
	}

	snap, err := t.Ledger.Snapshot()
	if err != nil {
		return WeeklyView{}, err
	}

	history, err := t.history.All()
	if err != nil {
		return WeeklyView{}, err
	}

	series := aggregate.Weekly(history, snap, today)

	view := WeeklyView{
		Days:   make([]WeeklyDay, 0, len(series)),
		MaxMl:  aggregate.MaxOf(series, snap.DailyGoalMl),
		GoalMl: snap.DailyGoalMl,
	}

	for _, d := range series {
		view.Days = append(view.Days, WeeklyDay{
			Date:     d.Date,
			Label:    t.Locale.DayLabel(d.LabelKey),
			AmountMl: d.AmountMl,
			Percent:  aggregate.PercentOfGoal(d.AmountMl, snap.DailyGoalMl),
		})
	}

	return view, nil
}

// Monthly rolls the ledger over if needed and returns this month's total.
func (t *Tracker) Monthly() (int, error) {
	today := domain.NewDayKey(time.Now())

	if _, err := t.Ledger.RolloverIfNeeded(today); err != nil {
		return 0, err
	}

	snap, err := t.Ledger.Snapshot()
	if err != nil {
		return 0, err
	}

	history, err := t.history.All()
	if err != nil {
		return 0, err
	}

	return aggregate.Monthly(history, snap, today), nil
}

// History exposes the archive for custom views.
func (t *Tracker) History() ([]domain.DailyRecord, error) {
	return t.history.All()
}

// Close stops the scheduler and releases storage resources.
func (t *Tracker) Close() error {
	if t.scheduler != nil {
		t.scheduler.Stop()
	}

	return t.closeHistory()
}

func (t *Tracker) closeHistory() error {
	if closer, ok := t.history.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
