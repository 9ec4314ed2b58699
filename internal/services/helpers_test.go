package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"fieldservice-admin/pkg/eventbus"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/restclient"
	"fieldservice-admin/pkg/utils"
)

type upstreamReply struct {
	status int
	body   string
}

// fakeUpstream — REST-бэкенд в памяти. Ответы задаются по "METHOD path",
// незаданные пути отвечают 200 без тела.
type fakeUpstream struct {
	mu      sync.Mutex
	replies map[string]upstreamReply
	calls   []string
	bodies  map[string]string
	srv     *httptest.Server
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{replies: map[string]upstreamReply{}, bodies: map[string]string{}}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)

		u.mu.Lock()
		call := key
		if r.URL.RawQuery != "" {
			call += "?" + r.URL.RawQuery
		}
		u.calls = append(u.calls, call)
		u.bodies[key] = string(body)
		reply, ok := u.replies[key]
		u.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(reply.status)
		_, _ = io.WriteString(w, reply.body)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *fakeUpstream) on(method, path string, status int, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.replies[method+" "+path] = upstreamReply{status: status, body: body}
}

func (u *fakeUpstream) client() *restclient.Client {
	return restclient.New(u.srv.URL, "", 5*time.Second, zap.NewNop())
}

// sortedCalls — порядок параллельных PUT не определён.
func (u *fakeUpstream) sortedCalls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := append([]string(nil), u.calls...)
	sort.Strings(out)
	return out
}

func (u *fakeUpstream) body(method, path string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.bodies[method+" "+path]
}

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	default:
		return errors.New("unsupported value")
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

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

type recordingInvalidator struct {
	mu       sync.Mutex
	entities []string
}

func (r *recordingInvalidator) Invalidate(entity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = append(r.entities, entity)
}

func userCtx(userID uint64) context.Context {
	return utils.WithUserID(context.Background(), userID)
}
