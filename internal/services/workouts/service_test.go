package workouts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymledger/gymledger/internal/domain"
	"github.com/gymledger/gymledger/internal/storage/kvstore"
)

func newTestService(t *testing.T) (*Service, *kvstore.Store) {
	t.Helper()

	kv, err := kvstore.New(t.TempDir())
	require.NoError(t, err)

	return New(kv, nil), kv
}

func someSets(t *testing.T) []domain.Set {
	t.Helper()

	now := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.Local)

	return []domain.Set{domain.NewSet("80", "8", now), domain.NewSet("85", "6", now)}
}

func TestListOnEmptyStore(t *testing.T) {
	s, _ := newTestService(t)

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateRequiresName(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Create("   ", "")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestCreateAndGet(t *testing.T) {
	s, _ := newTestService(t)

	created, err := s.Create("Push Day", "file:///push.jpg")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Push Day", got.Name)
	assert.Equal(t, "file:///push.jpg", got.Image)
	assert.Empty(t, got.Exercises)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRename(t *testing.T) {
	s, _ := newTestService(t)

	created, err := s.Create("Push Day", "")
	require.NoError(t, err)

	require.NoError(t, s.Rename(created.ID, "Pull Day", "img"))

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pull Day", got.Name)
	assert.Equal(t, "img", got.Image)

	assert.ErrorIs(t, s.Rename("missing", "X", ""), ErrNotFound)
}

func TestDeleteKeepsOtherIDsStable(t *testing.T) {
	s, _ := newTestService(t)

	a, err := s.Create("A", "")
	require.NoError(t, err)
	b, err := s.Create("B", "")
	require.NoError(t, err)
	c, err := s.Create("C", "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(b.ID))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)

	assert.ErrorIs(t, s.Delete(b.ID), ErrNotFound)
}

func TestAddExerciseValidation(t *testing.T) {
	s, _ := newTestService(t)

	w, err := s.Create("Legs", "")
	require.NoError(t, err)

	_, err = s.AddExercise(w.ID, "", "", someSets(t))
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = s.AddExercise(w.ID, "Squat", "", nil)
	assert.ErrorIs(t, err, ErrNoSets)

	_, err = s.AddExercise("missing", "Squat", "", someSets(t))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddAndDeleteExercise(t *testing.T) {
	s, _ := newTestService(t)

	w, err := s.Create("Legs", "")
	require.NoError(t, err)

	squat, err := s.AddExercise(w.ID, "Squat", "", someSets(t))
	require.NoError(t, err)
	lunge, err := s.AddExercise(w.ID, "Lunge", "", someSets(t))
	require.NoError(t, err)

	got, err := s.Get(w.ID)
	require.NoError(t, err)
	require.Len(t, got.Exercises, 2)

	require.NoError(t, s.DeleteExercise(w.ID, squat.ID))

	got, err = s.Get(w.ID)
	require.NoError(t, err)
	require.Len(t, got.Exercises, 1)
	assert.Equal(t, lunge.ID, got.Exercises[0].ID)

	assert.ErrorIs(t, s.DeleteExercise(w.ID, squat.ID), ErrNotFound)
}

func TestReplaceSets(t *testing.T) {
	s, _ := newTestService(t)

	w, err := s.Create("Legs", "")
	require.NoError(t, err)
	ex, err := s.AddExercise(w.ID, "Squat", "", someSets(t))
	require.NoError(t, err)

	now := time.Date(2024, time.March, 6, 9, 0, 0, 0, time.Local)
	replacement := []domain.Set{domain.NewSet("100", "5", now)}

	require.NoError(t, s.ReplaceSets(w.ID, ex.ID, replacement))

	got, err := s.Get(w.ID)
	require.NoError(t, err)
	require.Len(t, got.Exercises[0].Sets, 1)
	assert.Equal(t, "100", got.Exercises[0].Sets[0].Weight)

	assert.ErrorIs(t, s.ReplaceSets(w.ID, "missing", replacement), ErrNotFound)
}

func TestReadsLegacyDocument(t *testing.T) {
	s, kv := newTestService(t)

	// document shape the mobile app wrote, with timestamp ids
	legacy := `[{"id":"1709640000000","name":"Push Day","exercises":[` +
		`{"id":"1709640001000","name":"Bench","sets":[` +
		`{"id":"1709640002000","weight":"80","reps":"8","date":"2024-03-05"}]}]}]`
	require.NoError(t, kv.Set("WORKOUTS", []byte(legacy)))

	got, err := s.Get("1709640000000")
	require.NoError(t, err)
	assert.Equal(t, "Push Day", got.Name)
	require.Len(t, got.Exercises, 1)
	require.Len(t, got.Exercises[0].Sets, 1)
	assert.Equal(t, "80", got.Exercises[0].Sets[0].Weight)
}
