package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"zlatko/internal/config"
	"zlatko/internal/model"
	"zlatko/internal/service"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ListEnabledCredentials(ctx context.Context) ([]model.SyncCredential, error) {
	args := m.Called(ctx)
	creds, _ := args.Get(0).([]model.SyncCredential)
	return creds, args.Error(1)
}

func (m *mockDirectory) ListSyncableProspects(ctx context.Context, userID string) ([]model.Prospect, error) {
	args := m.Called(ctx, userID)
	prospects, _ := args.Get(0).([]model.Prospect)
	return prospects, args.Error(1)
}

func (m *mockDirectory) ListProspectOwners(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	owners, _ := args.Get(0).([]string)
	return owners, args.Error(1)
}

type mockSyncer struct {
	mock.Mock
}

func (m *mockSyncer) SyncProspect(ctx context.Context, req service.SyncRequest) (*service.SyncResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*service.SyncResult)
	return res, args.Error(1)
}

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) Run(ctx context.Context, userID string) (*service.ReconcileResult, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).(*service.ReconcileResult)
	return res, args.Error(1)
}

func TestSchedulerRestart(t *testing.T) {
	sched := New(
		config.SyncConfig{AutoSync: true, IntervalMinutes: 60},
		config.ReconcileConfig{Enabled: true, Schedule: "0 0 3 * * *"},
		&mockDirectory{}, &mockSyncer{}, &mockReconciler{},
	)

	require.NoError(t, sched.Start())
	assert.True(t, sched.IsRunning())
	assert.Error(t, sched.Start())

	status := sched.Status()
	assert.True(t, status.Running)
	assert.False(t, status.NextSync.IsZero())
	assert.False(t, status.NextReconcile.IsZero())
	assert.Equal(t, status.NextSync, sched.GetNextRun())

	require.NoError(t, sched.Stop())
	assert.False(t, sched.IsRunning())
	assert.True(t, sched.GetNextRun().IsZero())

	require.NoError(t, sched.Start())
	assert.True(t, sched.IsRunning())
	assert.NoError(t, sched.ctx.Err())
	require.NoError(t, sched.Stop())
}

func TestSchedulerHonorsLongSyncInterval(t *testing.T) {
	sched := New(
		config.SyncConfig{AutoSync: true, IntervalMinutes: 90},
		config.ReconcileConfig{},
		&mockDirectory{}, &mockSyncer{}, &mockReconciler{},
	)

	started := time.Now()
	require.NoError(t, sched.Start())
	defer sched.Stop()

	next := sched.GetNextRun()
	assert.WithinDuration(t, started.Add(90*time.Minute), next, time.Minute)
}

func TestSchedulerRejectsBadReconcileSchedule(t *testing.T) {
	sched := New(
		config.SyncConfig{AutoSync: true, IntervalMinutes: 5},
		config.ReconcileConfig{Enabled: true, Schedule: "not a schedule"},
		&mockDirectory{}, &mockSyncer{}, &mockReconciler{},
	)

	assert.Error(t, sched.Start())
	assert.False(t, sched.IsRunning())
}

func TestRunSyncOnce(t *testing.T) {
	dir := &mockDirectory{}
	syncer := &mockSyncer{}
	sched := New(config.SyncConfig{}, config.ReconcileConfig{}, dir, syncer, &mockReconciler{})

	dir.On("ListEnabledCredentials", mock.Anything).Return([]model.SyncCredential{
		{UserID: "u1", Provider: model.ProviderGmail},
		{UserID: "u2", Provider: model.ProviderGmail},
		{UserID: "u3", Provider: model.ProviderGmail},
	}, nil)
	dir.On("ListSyncableProspects", mock.Anything, "u1").Return([]model.Prospect{
		{ID: "p1", Email: "a@corp.com"},
		{ID: "p2", Email: "b@corp.com"},
	}, nil)
	dir.On("ListSyncableProspects", mock.Anything, "u2").Return([]model.Prospect{
		{ID: "p3", Email: "c@corp.com"},
		{ID: "p4", Email: "d@corp.com"},
	}, nil)
	dir.On("ListSyncableProspects", mock.Anything, "u3").Return(nil, errors.New("db down"))

	syncer.On("SyncProspect", mock.Anything, service.SyncRequest{UserID: "u1", Provider: "gmail", ProspectID: "p1", ProspectEmail: "a@corp.com"}).
		Return(&service.SyncResult{Imported: 2, Skipped: 1, Total: 3}, nil)
	syncer.On("SyncProspect", mock.Anything, service.SyncRequest{UserID: "u1", Provider: "gmail", ProspectID: "p2", ProspectEmail: "b@corp.com"}).
		Return(nil, errors.New("listing failed"))
	syncer.On("SyncProspect", mock.Anything, mock.MatchedBy(func(req service.SyncRequest) bool { return req.ProspectID == "p3" })).
		Return(nil, service.ErrTokenRefresh)

	result, err := sched.RunSyncOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &CycleResult{Users: 2, Passes: 3, Failures: 3, Imported: 2, Skipped: 1}, result)
	syncer.AssertNotCalled(t, "SyncProspect", mock.Anything, mock.MatchedBy(func(req service.SyncRequest) bool { return req.ProspectID == "p4" }))
}

func TestRunSyncOnceListingError(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("ListEnabledCredentials", mock.Anything).Return(nil, errors.New("db down"))
	sched := New(config.SyncConfig{}, config.ReconcileConfig{}, dir, &mockSyncer{}, &mockReconciler{})

	_, err := sched.RunSyncOnce(context.Background())
	assert.Error(t, err)
}

func TestRunReconcileOnce(t *testing.T) {
	dir := &mockDirectory{}
	rec := &mockReconciler{}
	sched := New(config.SyncConfig{}, config.ReconcileConfig{}, dir, &mockSyncer{}, rec)

	dir.On("ListProspectOwners", mock.Anything).Return([]string{"u1", "u2"}, nil)
	rec.On("Run", mock.Anything, "u1").Return(&service.ReconcileResult{Updated: 2, Skipped: 1, Failed: 1, Total: 4}, nil)
	rec.On("Run", mock.Anything, "u2").Return(nil, errors.New("db down"))

	result, err := sched.RunReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &CycleResult{Users: 1, Passes: 2, Failures: 2, Updated: 2, Skipped: 1}, result)
}

func TestCycleSkippedWhenStopped(t *testing.T) {
	dir := &mockDirectory{}
	sched := New(config.SyncConfig{}, config.ReconcileConfig{}, dir, &mockSyncer{}, &mockReconciler{})

	sched.syncCycle()
	sched.reconcileCycle()
	sched.Wait()

	dir.AssertNotCalled(t, "ListEnabledCredentials", mock.Anything)
	dir.AssertNotCalled(t, "ListProspectOwners", mock.Anything)
}
