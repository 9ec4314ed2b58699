package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"fieldservice-admin/pkg/config"
	"fieldservice-admin/pkg/customvalidator"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/eventbus"
	applogger "fieldservice-admin/pkg/logger"
	"fieldservice-admin/pkg/restclient"
	"fieldservice-admin/pkg/service"
	"fieldservice-admin/pkg/utils"
	"fieldservice-admin/pkg/websocket"
)

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (m *memCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) Expire(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

type response struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

// RouterTestSuite — весь стек поверх поддельного бэкенда.
type RouterTestSuite struct {
	suite.Suite
	Echo     *echo.Echo
	Upstream *httptest.Server
	Bus      *eventbus.Bus
	Token    string
}

func (s *RouterTestSuite) SetupSuite() {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /worker/add", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"id":42}}`)
	})
	mux.HandleFunc("PUT /worker/role/42/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "8" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Role not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	})
	mux.HandleFunc("GET /worker/search", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"name":"Bob"},{"id":2,"name":"Ann"}]`)
	})
	mux.HandleFunc("GET /client", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":3,"name":"Acme"}]`)
	})
	mux.HandleFunc("GET /role", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":7,"name":"Lead"},{"id":8,"name":"Driver"}]}`)
	})
	s.Upstream = httptest.NewServer(mux)

	hash, err := utils.HashPassword("s3cret!")
	s.Require().NoError(err)
	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "router-secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour},
		Admin:   config.AdminConfig{Login: "admin", PasswordHash: hash, UserID: 1},
		Listing: config.ListingConfig{SearchDebounce: 300 * time.Millisecond},
		Cache:   config.CacheConfig{OptionsTTL: time.Minute, DraftTTL: time.Hour},
	}

	s.Echo = echo.New()
	v, err := customvalidator.New()
	s.Require().NoError(err)
	s.Echo.Validator = v

	s.Bus = eventbus.New(zap.NewNop())
	InitRouter(s.Echo, Dependencies{
		Cache:    &memCache{data: map[string]string{}},
		Upstream: restclient.New(s.Upstream.URL, "", 5*time.Second, zap.NewNop()),
		Hub:      websocket.NewHub(zap.NewNop()),
		Bus:      s.Bus,
		JWT:      service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL),
		Config:   cfg,
		Loggers:  applogger.NewNopLoggers(),
	})

	rec, res := s.do(http.MethodPost, "/api/auth/login", `{"login":"admin","password":"s3cret!"}`, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var tokens struct {
		AccessToken string `json:"accessToken"`
	}
	s.Require().NoError(json.Unmarshal(res.Body, &tokens))
	s.Token = tokens.AccessToken
}

func (s *RouterTestSuite) TearDownSuite() {
	s.Bus.Wait()
	s.Upstream.Close()
}

func (s *RouterTestSuite) do(method, target, body, token string) (*httptest.ResponseRecorder, response) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	var res response
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	return rec, res
}

func (s *RouterTestSuite) TestRequiresToken() {
	rec, _ := s.do(http.MethodGet, "/api/records/worker", "", "")
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/records/worker", "", "not-a-token")
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)
}

func (s *RouterTestSuite) TestCreateWithPartialLinkFailure() {
	rec, res := s.do(http.MethodPost, "/api/records/worker",
		`{"payload":{"name":"Ann"},"selections":{"role":[7,8]}}`, s.Token)
	s.Require().Equal(http.StatusCreated, rec.Code, res.Message)

	var report struct {
		ParentID string `json:"parentId"`
		Complete bool   `json:"complete"`
		Links    []struct {
			AssociationID string `json:"associationId"`
			OK            bool   `json:"ok"`
			Error         string `json:"error"`
		} `json:"links"`
	}
	s.Require().NoError(json.Unmarshal(res.Body, &report))
	assert.Equal(s.T(), "42", report.ParentID)
	assert.False(s.T(), report.Complete)
	s.Require().Len(report.Links, 2)

	failed := map[string]string{}
	for _, l := range report.Links {
		if !l.OK {
			failed[l.AssociationID] = l.Error
		}
	}
	assert.Equal(s.T(), map[string]string{"8": "Role not found"}, failed)
}

func (s *RouterTestSuite) TestCreateValidation() {
	rec, res := s.do(http.MethodPost, "/api/records/worker", `{"payload":{"surname":"Lee"}}`, s.Token)
	assert.Equal(s.T(), http.StatusUnprocessableEntity, rec.Code)
	assert.False(s.T(), res.Status)
}

func (s *RouterTestSuite) TestListSortsLocally() {
	rec, res := s.do(http.MethodGet, "/api/records/worker", "", s.Token)
	s.Require().Equal(http.StatusOK, rec.Code, res.Message)

	var list struct {
		Total   int                      `json:"total"`
		Records []map[string]interface{} `json:"records"`
	}
	s.Require().NoError(json.Unmarshal(res.Body, &list))
	assert.Equal(s.T(), 2, list.Total)
	assert.Equal(s.T(), "Ann", list.Records[0]["name"])
}

func (s *RouterTestSuite) TestDraftLoadsOptions() {
	rec, res := s.do(http.MethodPost, "/api/records/worker/drafts", "", s.Token)
	s.Require().Equal(http.StatusCreated, rec.Code, res.Message)

	var draft struct {
		ID      string `json:"id"`
		Options map[string][]struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"options"`
	}
	s.Require().NoError(json.Unmarshal(res.Body, &draft))
	s.Require().Len(draft.Options["role"], 2)
	assert.Equal(s.T(), "Driver", draft.Options["role"][0].DisplayName)

	rec, _ = s.do(http.MethodGet, "/api/drafts/"+draft.ID, "", s.Token)
	assert.Equal(s.T(), http.StatusOK, rec.Code)
}

func (s *RouterTestSuite) TestPreferencesRoundTrip() {
	rec, _ := s.do(http.MethodPut, "/api/preferences/worker", `{"visibleFields":["name","email"]}`, s.Token)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec, res := s.do(http.MethodGet, "/api/preferences/worker", "", s.Token)
	s.Require().Equal(http.StatusOK, rec.Code)
	assert.JSONEq(s.T(), `{"visibleFields":["name","email"]}`, string(res.Body))
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
