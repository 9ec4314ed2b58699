package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/entities"
	"fieldservice-admin/internal/repositories"
	"fieldservice-admin/internal/workflow"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/restclient"
)

type fakeTx struct{ calls int }

func (f *fakeTx) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fakeJournalRepo struct {
	mu         sync.Mutex
	runs       []entities.WorkflowRun
	failures   map[uint64]*entities.LinkFailure
	nextID     uint64
	lastFilter repositories.JournalFilter
	saveErr    error
	// resolveAfterFind имитирует параллельный повтор, закрывший запись
	// между чтением и обновлением
	resolveAfterFind bool
}

func newFakeJournalRepo() *fakeJournalRepo {
	return &fakeJournalRepo{failures: map[uint64]*entities.LinkFailure{}}
}

func (r *fakeJournalRepo) SaveRun(_ context.Context, _ pgx.Tx, run *entities.WorkflowRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.runs = append(r.runs, *run)
	return nil
}

func (r *fakeJournalRepo) SaveFailures(_ context.Context, _ pgx.Tx, failures []entities.LinkFailure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range failures {
		r.nextID++
		f.ID = r.nextID
		f.Attempts = 1
		failure := f
		r.failures[f.ID] = &failure
	}
	return nil
}

func (r *fakeJournalRepo) FindFailure(_ context.Context, id uint64) (*entities.LinkFailure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.failures[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *f
	if r.resolveAfterFind {
		f.ResolvedAt = null.TimeFrom(time.Now())
	}
	return &copied, nil
}

func (r *fakeJournalRepo) ListFailures(_ context.Context, filter repositories.JournalFilter) ([]entities.LinkFailure, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	out := make([]entities.LinkFailure, 0, len(r.failures))
	for _, f := range r.failures {
		out = append(out, *f)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeJournalRepo) MarkResolved(_ context.Context, id uint64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.failures[id]
	if !ok || f.Resolved() {
		return apperrors.ErrNotFound
	}
	f.Attempts++
	f.ResolvedAt = null.TimeFrom(at)
	return nil
}

func (r *fakeJournalRepo) RecordAttempt(_ context.Context, id uint64, errMsg string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.failures[id]
	if !ok || f.Resolved() {
		return apperrors.ErrNotFound
	}
	f.Attempts++
	f.Error = errMsg
	f.LastAttemptAt = null.TimeFrom(at)
	return nil
}

func newJournalFixture(t *testing.T) (*fakeUpstream, *fakeJournalRepo, *fakeTx, JournalServiceInterface) {
	upstream := newFakeUpstream(t)
	repo := newFakeJournalRepo()
	tx := &fakeTx{}
	svc := NewJournalService(repo, tx, workflow.NewRunner(upstream.client(), zap.NewNop()), zap.NewNop())
	return upstream, repo, tx, svc
}

func failedReport() *workflow.Report {
	return &workflow.Report{
		Entity:   "worker",
		ParentID: "42",
		Links: []workflow.LinkOutcome{
			{AssociationType: "client", AssociationID: "3", Path: "/worker/42/3"},
			{AssociationType: "role", AssociationID: "7", Path: "/worker/role/42/7",
				Err: &restclient.RequestError{Status: 404, Message: "Role not found"}},
		},
	}
}

func TestJournalService_RecordStoresRunAndFailures(t *testing.T) {
	_, repo, tx, svc := newJournalFixture(t)
	runID := uuid.New()

	require.NoError(t, svc.Record(context.Background(), runID, 5, failedReport()))

	assert.Equal(t, 1, tx.calls)
	require.Len(t, repo.runs, 1)
	assert.Equal(t, runID, repo.runs[0].ID)
	assert.Equal(t, 2, repo.runs[0].LinksTotal)
	assert.Equal(t, 1, repo.runs[0].LinksFailed)

	require.Len(t, repo.failures, 1)
	f := repo.failures[1]
	assert.Equal(t, "role", f.AssociationType)
	assert.Equal(t, "7", f.AssociationID)
	assert.Equal(t, "Role not found", f.Error)
	assert.True(t, f.LastAttemptAt.Valid)
}

func TestJournalService_RecordError(t *testing.T) {
	_, repo, _, svc := newJournalFixture(t)
	repo.saveErr = errors.New("db down")

	err := svc.Record(context.Background(), uuid.New(), 5, failedReport())
	assert.EqualError(t, err, "db down")
	assert.Empty(t, repo.failures)
}

func TestJournalService_ListFailuresConvertsFilter(t *testing.T) {
	_, repo, _, svc := newJournalFixture(t)
	require.NoError(t, svc.Record(context.Background(), uuid.New(), 5, failedReport()))

	items, total, err := svc.ListFailures(context.Background(), dto.LinkFailureFilterDTO{
		Entity: "worker", From: "2024-01-01", To: "2024-01-31", Limit: 10, Page: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].ResolvedAt)
	assert.NotNil(t, items[0].LastAttemptAt)

	assert.Equal(t, "worker", repo.lastFilter.Entity)
	assert.Equal(t, uint64(10), repo.lastFilter.Limit)
	assert.Equal(t, uint64(20), repo.lastFilter.Offset)
	require.NotNil(t, repo.lastFilter.From)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *repo.lastFilter.From)

	_, _, err = svc.ListFailures(context.Background(), dto.LinkFailureFilterDTO{})
	require.NoError(t, err)
	assert.Equal(t, uint64(defaultJournalLimit), repo.lastFilter.Limit)
	assert.Nil(t, repo.lastFilter.From)
}

func TestJournalService_RetrySuccessResolves(t *testing.T) {
	upstream, repo, _, svc := newJournalFixture(t)
	require.NoError(t, svc.Record(context.Background(), uuid.New(), 5, failedReport()))

	outcome, err := svc.RetryFailure(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.Equal(t, "/worker/role/42/7", outcome.Path)
	assert.Equal(t, []string{"PUT /worker/role/42/7"}, upstream.sortedCalls())

	assert.True(t, repo.failures[1].Resolved())
	assert.Equal(t, 2, repo.failures[1].Attempts)

	_, err = svc.RetryFailure(context.Background(), 1)
	var httpErr *apperrors.HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestJournalService_RetryFailureRecordsAttempt(t *testing.T) {
	upstream, repo, _, svc := newJournalFixture(t)
	upstream.on(http.MethodPut, "/worker/role/42/7", http.StatusInternalServerError, `{"error":"still broken"}`)
	require.NoError(t, svc.Record(context.Background(), uuid.New(), 5, failedReport()))

	outcome, err := svc.RetryFailure(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Equal(t, "still broken", outcome.Error)

	assert.False(t, repo.failures[1].Resolved())
	assert.Equal(t, 2, repo.failures[1].Attempts)
	assert.Equal(t, "still broken", repo.failures[1].Error)
}

func TestJournalService_RetryRacesWithConcurrentResolve(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
	}{
		{name: "link restored", status: http.StatusOK},
		{name: "link still broken", status: http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			upstream, repo, _, svc := newJournalFixture(t)
			upstream.on(http.MethodPut, "/worker/role/42/7", tc.status, `{}`)
			require.NoError(t, svc.Record(context.Background(), uuid.New(), 5, failedReport()))
			repo.resolveAfterFind = true

			_, err := svc.RetryFailure(context.Background(), 1)
			var httpErr *apperrors.HttpError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
			assert.Equal(t, "This link has already been restored.", httpErr.Message)

			assert.Equal(t, 1, repo.failures[1].Attempts)
		})
	}
}

func TestJournalService_RetryMissing(t *testing.T) {
	_, _, _, svc := newJournalFixture(t)
	_, err := svc.RetryFailure(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
