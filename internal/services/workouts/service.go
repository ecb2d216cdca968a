package workouts

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gymledger/gymledger/internal/domain"
	"github.com/gymledger/gymledger/internal/storage/kvstore"
)

const workoutsKey = "WORKOUTS"

var (
	// ErrNotFound is returned for an unknown workout or exercise id.
	ErrNotFound = errors.New("not found")
	// ErrNameRequired is returned when a workout or exercise name is empty.
	ErrNameRequired = errors.New("name is required")
	// ErrNoSets is returned when an exercise is saved without any sets.
	ErrNoSets = errors.New("at least one set is required")
)

// Service manages workouts, their exercises and sets. Everything lives in the
// single WORKOUTS document; every mutation is a whole-document
// read-modify-write under the store's per-key write lock, and every lookup is
// id-based.
type Service struct {
	kv     *kvstore.Store
	logger *zap.Logger
}

// New creates the workout service.
func New(kv *kvstore.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{kv: kv, logger: logger}
}

// List returns all workouts. A missing document is an empty list.
func (s *Service) List() ([]domain.Workout, error) {
	raw, err := s.kv.Get(workoutsKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []domain.Workout{}, nil
		}

		return nil, errors.Wrap(err, "read workouts")
	}

	return decodeWorkouts(raw)
}

// Get returns one workout by id.
func (s *Service) Get(id string) (domain.Workout, error) {
	list, err := s.List()
	if err != nil {
		return domain.Workout{}, err
	}

	for _, w := range list {
		if w.ID == id {
			return w, nil
		}
	}

	return domain.Workout{}, errors.Wrapf(ErrNotFound, "workout %s", id)
}

// Create adds a new workout with a generated id.
func (s *Service) Create(name, image string) (domain.Workout, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Workout{}, ErrNameRequired
	}

	workout := domain.NewWorkout(name, image)

	err := s.mutate(func(list []domain.Workout) ([]domain.Workout, error) {
		return append(list, workout), nil
	})
	if err != nil {
		return domain.Workout{}, err
	}

	s.logger.Info("workout created", zap.String("id", workout.ID), zap.String("name", name))

	return workout, nil
}

// Rename updates a workout's name and image.
func (s *Service) Rename(id, name, image string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}

	return s.mutate(func(list []domain.Workout) ([]domain.Workout, error) {
		for i := range list {
			if list[i].ID == id {
				list[i].Name = name
				list[i].Image = image
				return list, nil
			}
		}

		return nil, errors.Wrapf(ErrNotFound, "workout %s", id)
	})
}

// Delete removes a workout and everything under it.
func (s *Service) Delete(id string) error {
	return s.mutate(func(list []domain.Workout) ([]domain.Workout, error) {
		for i := range list {
			if list[i].ID == id {
				return append(list[:i], list[i+1:]...), nil
			}
		}

		return nil, errors.Wrapf(ErrNotFound, "workout %s", id)
	})
}

// AddExercise appends a new exercise to a workout. The exercise needs a name
// and at least one set.
func (s *Service) AddExercise(workoutID, name, image string, sets []domain.Set) (domain.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Exercise{}, ErrNameRequired
	}

	if len(sets) == 0 {
		return domain.Exercise{}, ErrNoSets
	}

	exercise := domain.NewExercise(name, image, sets)

	err := s.mutate(func(list []domain.Workout) ([]domain.Workout, error) {
		for i := range list {
			if list[i].ID == workoutID {
				list[i].Exercises = append(list[i].Exercises, exercise)
				return list, nil
			}
		}

		return nil, errors.Wrapf(ErrNotFound, "workout %s", workoutID)
	})
	if err != nil {
		return domain.Exercise{}, err
	}

	return exercise, nil
}

// DeleteExercise removes one exercise from a workout.
func (s *Service) DeleteExercise(workoutID, exerciseID string) error {
	return s.mutate(func(list []domain.Workout) ([]domain.Workout, error) {
		for i := range list {
			if list[i].ID != workoutID {
				continue
			}

			for j := range list[i].Exercises {
				if list[i].Exercises[j].ID == exerciseID {
					list[i].Exercises = append(list[i].Exercises[:j], list[i].Exercises[j+1:]...)
					return list, nil
				}
			}

			return nil, errors.Wrapf(ErrNotFound, "exercise %s", exerciseID)
		}

		return nil, errors.Wrapf(ErrNotFound, "workout %s", workoutID)
	})
}

// ReplaceSets overwrites an exercise's sets wholesale, the way the exercise
// detail screen saves them.
func (s *Service) ReplaceSets(workoutID, exerciseID string, sets []domain.Set) error {
	if sets == nil {
		sets = []domain.Set{}
	}

	return s.mutate(func(list []domain.Workout) ([]domain.Workout, error) {
		for i := range list {
			if list[i].ID != workoutID {
				continue
			}

			for j := range list[i].Exercises {
				if list[i].Exercises[j].ID == exerciseID {
					list[i].Exercises[j].Sets = sets
					return list, nil
				}
			}

			return nil, errors.Wrapf(ErrNotFound, "exercise %s", exerciseID)
		}

		return nil, errors.Wrapf(ErrNotFound, "workout %s", workoutID)
	})
}

func (s *Service) mutate(fn func(list []domain.Workout) ([]domain.Workout, error)) error {
	return s.kv.Update(workoutsKey, func(current []byte) ([]byte, error) {
		list, err := decodeWorkouts(current)
		if err != nil {
			return nil, err
		}

		next, err := fn(list)
		if err != nil {
			return nil, err
		}

		return json.Marshal(next)
	})
}

func decodeWorkouts(raw []byte) ([]domain.Workout, error) {
	if len(raw) == 0 {
		return []domain.Workout{}, nil
	}

	var list []domain.Workout
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errors.Wrap(err, "decode workouts document")
	}

	if list == nil {
		list = []domain.Workout{}
	}

	return list, nil
}
