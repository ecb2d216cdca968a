package domain

import (
	"time"

	"github.com/google/uuid"
)

// Set is a single weight/reps entry of an exercise. Weight and reps stay
// strings because that is how the stored WORKOUTS document carries them.
type Set struct {
	ID     string `json:"id"`
	Weight string `json:"weight"`
	Reps   string `json:"reps"`
	Date   string `json:"date"`
}

// Exercise groups the sets performed for one movement.
type Exercise struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Sets  []Set  `json:"sets"`
}

// Workout is a named collection of exercises.
type Workout struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Image     string     `json:"image,omitempty"`
	Exercises []Exercise `json:"exercises"`
}

// NewWorkout creates an empty workout with a generated id. Identity is always
// id-based, never the position in the stored list.
func NewWorkout(name, image string) Workout {
	return Workout{
		ID:        uuid.NewString(),
		Name:      name,
		Image:     image,
		Exercises: []Exercise{},
	}
}

// NewExercise creates an exercise with a generated id.
func NewExercise(name, image string, sets []Set) Exercise {
	if sets == nil {
		sets = []Set{}
	}

	return Exercise{
		ID:    uuid.NewString(),
		Name:  name,
		Image: image,
		Sets:  sets,
	}
}

// NewSet creates a set stamped with the current day in ISO form, matching the
// format the stored documents already use for set dates.
func NewSet(weight, reps string, now time.Time) Set {
	return Set{
		ID:     uuid.NewString(),
		Weight: weight,
		Reps:   reps,
		Date:   now.Format("2006-01-02"),
	}
}
