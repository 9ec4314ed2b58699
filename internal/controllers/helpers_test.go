package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/entities"
	"fieldservice-admin/internal/listing"
	"fieldservice-admin/internal/workflow"
	"fieldservice-admin/pkg/customvalidator"
	apperrors "fieldservice-admin/pkg/errors"
)

type response struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	v, err := customvalidator.New()
	require.NoError(t, err)
	e.Validator = v
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var res response
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec, res
}

type fakeWorkflowService struct {
	gotEntity string
	gotDTO    dto.CreateRecordDTO
	report    *dto.WorkflowReportDTO
	err       error
	deleted   []string
}

func (f *fakeWorkflowService) Create(_ context.Context, entity string, payload dto.CreateRecordDTO) (*dto.WorkflowReportDTO, error) {
	f.gotEntity, f.gotDTO = entity, payload
	return f.report, f.err
}

func (f *fakeWorkflowService) Run(context.Context, workflow.Request) (*dto.WorkflowReportDTO, error) {
	return f.report, f.err
}

func (f *fakeWorkflowService) Delete(_ context.Context, entity, id string) error {
	f.deleted = append(f.deleted, entity+"/"+id)
	return f.err
}

type fakeListingService struct {
	gotQuery   dto.ListQueryDTO
	gotFilters url.Values
	result     *dto.ListResultDTO
	err        error
	searcher   listing.Searcher
}

func (f *fakeListingService) List(_ context.Context, entity string, query dto.ListQueryDTO, filters url.Values) (*dto.ListResultDTO, error) {
	f.gotQuery, f.gotFilters = query, filters
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &dto.ListResultDTO{Entity: entity}, nil
}

func (f *fakeListingService) Export(_ context.Context, entity string, query dto.ListQueryDTO, filters url.Values) (*excelize.File, string, error) {
	f.gotQuery, f.gotFilters = query, filters
	if f.err != nil {
		return nil, "", f.err
	}
	file := excelize.NewFile()
	if err := file.SetCellValue("Sheet1", "A1", "Name"); err != nil {
		return nil, "", err
	}
	return file, entity + "_2025-03-01.xlsx", nil
}

func (f *fakeListingService) NewLiveView(ctx context.Context, entity string, onChange func(listing.Snapshot)) (*listing.View, error) {
	if f.err != nil {
		return nil, f.err
	}
	def, ok := entities.Lookup(entity)
	if !ok {
		return nil, apperrors.NewHttpError(http.StatusNotFound, "Unknown entity.", nil, nil)
	}
	return listing.NewView(ctx, def, f.searcher, listing.OnChange(onChange)), nil
}

type fakeJournalService struct {
	gotFilter dto.LinkFailureFilterDTO
	items     []dto.LinkFailureDTO
	outcome   *dto.LinkOutcomeDTO
	retried   []uint64
	err       error
}

func (f *fakeJournalService) Record(context.Context, uuid.UUID, uint64, *workflow.Report) error {
	return nil
}

func (f *fakeJournalService) ListFailures(_ context.Context, filter dto.LinkFailureFilterDTO) ([]dto.LinkFailureDTO, uint64, error) {
	f.gotFilter = filter
	return f.items, uint64(len(f.items)), f.err
}

func (f *fakeJournalService) RetryFailure(_ context.Context, id uint64) (*dto.LinkOutcomeDTO, error) {
	f.retried = append(f.retried, id)
	return f.outcome, f.err
}

type staticSearcher struct {
	records []listing.Record
}

func (s staticSearcher) Search(context.Context, entities.Definition, url.Values) ([]listing.Record, error) {
	return s.records, nil
}
