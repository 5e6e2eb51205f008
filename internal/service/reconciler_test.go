package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zlatko/internal/model"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func newReconciler(store *memStore) (*Reconciler, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewReconciler(store, store, pub, newTestMetrics()), pub
}

func TestReconcileScenario(t *testing.T) {
	store := newMemStore()
	p1 := store.addProspect(model.Prospect{ID: "p1", UserID: "u1", Company: "P1", LastContactDate: day(2024, 1, 5)})
	store.addComm(model.Communication{UserID: "u1", ProspectID: p1.ID, CreatedAt: at(2024, 1, 5, 9)})
	store.addComm(model.Communication{UserID: "u1", ProspectID: p1.ID, CreatedAt: at(2024, 3, 10, 17)})

	r, pub := newReconciler(store)
	result, err := r.Run(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, []string{"P1: 2024-01-05 → 2024-03-10"}, result.Details)
	assert.Equal(t, "2024-03-10", model.FormatDay(store.prospect("p1").LastContactDate))
	assert.Equal(t, []string{"prospects.update"}, pub.tables())
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.addProspect(model.Prospect{ID: "a", UserID: "u1", Company: "Stale", LastContactDate: day(2023, 12, 1)})
	store.addProspect(model.Prospect{ID: "b", UserID: "u1", Company: "Null"})
	store.addProspect(model.Prospect{ID: "c", UserID: "u1", Company: "Fresh", LastContactDate: day(2024, 2, 2)})
	store.addProspect(model.Prospect{ID: "d", UserID: "u1", Company: "Empty", LastContactDate: day(2020, 1, 1)})
	store.addComm(model.Communication{UserID: "u1", ProspectID: "a", CreatedAt: at(2024, 1, 1, 8)})
	store.addComm(model.Communication{UserID: "u1", ProspectID: "b", CreatedAt: at(2024, 1, 2, 23)})
	store.addComm(model.Communication{UserID: "u1", ProspectID: "c", CreatedAt: at(2024, 2, 2, 15)})

	r, _ := newReconciler(store)

	first, err := r.Run(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Updated)
	assert.Equal(t, 2, first.Skipped)
	assert.Equal(t, 4, first.Total)
	assert.Equal(t, []string{"Stale: 2023-12-01 → 2024-01-01", "Null: none → 2024-01-02"}, first.Details)

	second, err := r.Run(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 4, second.Skipped)
	assert.Empty(t, second.Details)
}

func TestReconcileLeavesProspectsWithoutCommunications(t *testing.T) {
	store := newMemStore()
	store.addProspect(model.Prospect{ID: "null", UserID: "u1", Company: "Null"})
	store.addProspect(model.Prospect{ID: "stale", UserID: "u1", Company: "Stale", LastContactDate: day(2021, 6, 1)})

	r, pub := newReconciler(store)
	result, err := r.Run(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 2, result.Skipped)
	assert.Nil(t, store.prospect("null").LastContactDate)
	assert.Equal(t, "2021-06-01", model.FormatDay(store.prospect("stale").LastContactDate))
	assert.Equal(t, 0, store.setLastCalls)
	assert.Empty(t, pub.tables())
}

func TestReconcileSkipsArchivedAndOtherUsers(t *testing.T) {
	store := newMemStore()
	store.addProspect(model.Prospect{ID: "arch", UserID: "u1", Company: "Archived", Archived: true})
	store.addProspect(model.Prospect{ID: "other", UserID: "u2", Company: "Other"})
	store.addComm(model.Communication{UserID: "u1", ProspectID: "arch", CreatedAt: at(2024, 1, 1, 0)})
	store.addComm(model.Communication{UserID: "u2", ProspectID: "other", CreatedAt: at(2024, 1, 1, 0)})

	r, _ := newReconciler(store)
	result, err := r.Run(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Total)
	assert.Nil(t, store.prospect("arch").LastContactDate)
	assert.Nil(t, store.prospect("other").LastContactDate)
}

func TestReconcileContinuesAfterPerProspectFailures(t *testing.T) {
	store := newMemStore()
	store.addProspect(model.Prospect{ID: "a", UserID: "u1", Company: "WriteFails"})
	store.addProspect(model.Prospect{ID: "b", UserID: "u1", Company: "ReadFails"})
	store.addProspect(model.Prospect{ID: "c", UserID: "u1", Company: "Works"})
	for _, id := range []string{"a", "b", "c"} {
		store.addComm(model.Communication{UserID: "u1", ProspectID: id, CreatedAt: at(2024, 5, 1, 10)})
	}
	store.setLastErr["a"] = errors.New("deadlock")
	store.latestErr["b"] = errors.New("timeout")

	r, _ := newReconciler(store)
	result, err := r.Run(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, []string{"Works: none → 2024-05-01"}, result.Details)
}

func TestReconcileListingFailureIsFatal(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("connection refused")

	r, _ := newReconciler(store)
	_, err := r.Run(context.Background(), "u1")
	assert.Error(t, err)

	_, err = r.Run(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestReconcileLabelFallsBackToID(t *testing.T) {
	store := newMemStore()
	store.addProspect(model.Prospect{ID: "p-42", UserID: "u1"})
	store.addComm(model.Communication{UserID: "u1", ProspectID: "p-42", CreatedAt: at(2024, 7, 4, 12)})

	r, _ := newReconciler(store)
	result, err := r.Run(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p-42: none → 2024-07-04"}, result.Details)
}
