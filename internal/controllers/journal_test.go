package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
)

func TestJournalController_ListFailures(t *testing.T) {
	svc := &fakeJournalService{items: []dto.LinkFailureDTO{{ID: 3, Entity: "worker", Error: "Role not found"}}}
	e := newEcho(t)
	e.GET("/api/links/failures", NewJournalController(svc, zap.NewNop()).ListFailures)

	rec, res := doJSON(t, e, http.MethodGet, "/api/links/failures?entity=worker&from=2025-01-01&to=2025-01-31&page=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "worker", svc.gotFilter.Entity)
	assert.Equal(t, uint64(2), svc.gotFilter.Page)

	var page linkFailuresPage
	require.NoError(t, json.Unmarshal(res.Body, &page))
	assert.Equal(t, uint64(1), page.Total)
	assert.Equal(t, "Role not found", page.Items[0].Error)
}

func TestJournalController_ListFailuresValidation(t *testing.T) {
	for _, target := range []string{
		"/api/links/failures?entity=spaceship",
		"/api/links/failures?from=2025-13-40",
		"/api/links/failures?from=2025-02-01&to=2025-01-01",
	} {
		svc := &fakeJournalService{}
		e := newEcho(t)
		e.GET("/api/links/failures", NewJournalController(svc, zap.NewNop()).ListFailures)

		rec, _ := doJSON(t, e, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestJournalController_Retry(t *testing.T) {
	svc := &fakeJournalService{outcome: &dto.LinkOutcomeDTO{AssociationType: "role", AssociationID: "7", OK: false, Error: "Role not found"}}
	e := newEcho(t)
	e.POST("/api/links/failures/:id/retry", NewJournalController(svc, zap.NewNop()).Retry)

	rec, res := doJSON(t, e, http.MethodPost, "/api/links/failures/12/retry", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uint64{12}, svc.retried)
	assert.Equal(t, "Role not found", res.Message)

	rec, _ = doJSON(t, e, http.MethodPost, "/api/links/failures/abc/retry", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, svc.retried, 1)
}
