package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldservice-admin/internal/entities"
	"fieldservice-admin/pkg/restclient"
)

type call struct {
	Method string
	Path   string
}

type fakeBackend struct {
	mu       sync.Mutex
	calls    []call
	created  json.RawMessage
	postErr  error
	putErrs  map[string]error
	inFlight int
	maxPuts  int
	release  chan struct{}
}

func newFakeBackend(created string) *fakeBackend {
	return &fakeBackend{created: json.RawMessage(created), putErrs: map[string]error{}}
}

func (f *fakeBackend) Post(_ context.Context, path string, _ interface{}) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Method: "POST", Path: path})
	if f.postErr != nil {
		return nil, f.postErr
	}
	return f.created, nil
}

func (f *fakeBackend) Put(_ context.Context, path string, _ interface{}) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: "PUT", Path: path})
	f.inFlight++
	if f.inFlight > f.maxPuts {
		f.maxPuts = f.inFlight
	}
	release := f.release
	f.mu.Unlock()

	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	return nil, f.putErrs[path]
}

func (f *fakeBackend) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeBackend) paths(method string) []string {
	var out []string
	for _, c := range f.snapshot() {
		if c.Method == method {
			out = append(out, c.Path)
		}
	}
	return out
}

func mustLookup(t *testing.T, name string) entities.Definition {
	t.Helper()
	def, ok := entities.Lookup(name)
	require.True(t, ok, name)
	return def
}

func ids(v ...string) []restclient.ID {
	out := make([]restclient.ID, len(v))
	for i, s := range v {
		out[i] = restclient.ID(s)
	}
	return out
}

func TestRun_DatePairViolationMakesNoCalls(t *testing.T) {
	backend := newFakeBackend(`{"token": 1}`)
	runner := NewRunner(backend, zap.NewNop())

	report, err := runner.Run(context.Background(), Request{
		Entity: mustLookup(t, "client"),
		Payload: Payload{
			"fullName":        "Acme",
			"lastMaintenance": "2024-01-10",
			"nextMaintenance": "2024-01-01",
		},
		Selections: map[string][]restclient.ID{"location": ids("1")},
	})

	require.Error(t, err)
	assert.Nil(t, report)
	assert.Empty(t, backend.snapshot())

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, entities.MaintenanceDateMessage, verrs.ByField()["nextMaintenance"])
}

func TestRun_RequiredFieldMissing(t *testing.T) {
	backend := newFakeBackend(`{"token": 1}`)
	runner := NewRunner(backend, zap.NewNop())

	_, err := runner.Run(context.Background(), Request{
		Entity:  mustLookup(t, "worker"),
		Payload: Payload{"name": "   "},
	})

	require.Error(t, err)
	assert.Equal(t, "Name is required.", err.Error())
	assert.Empty(t, backend.snapshot())
}

func TestRun_EqualDatesAreAccepted(t *testing.T) {
	backend := newFakeBackend(`{"id": "c-9"}`)
	runner := NewRunner(backend, zap.NewNop())

	report, err := runner.Run(context.Background(), Request{
		Entity: mustLookup(t, "client"),
		Payload: Payload{
			"fullName":        "Acme",
			"lastMaintenance": "2024-01-10",
			"nextMaintenance": "2024-01-10T00:00:00Z",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, restclient.ID("c-9"), report.ParentID)
	assert.Empty(t, report.Links)
	assert.True(t, report.Complete())
}

func TestRun_WorkerCreatedThenLinkedConcurrently(t *testing.T) {
	backend := newFakeBackend(`{"token": 42}`)
	backend.release = make(chan struct{})
	runner := NewRunner(backend, zap.NewNop())

	done := make(chan struct{})
	var report *Report
	var err error
	go func() {
		defer close(done)
		report, err = runner.Run(context.Background(), Request{
			Entity:  mustLookup(t, "worker"),
			Payload: Payload{"name": "Ann"},
			Selections: map[string][]restclient.ID{
				"client": ids("3"),
				"role":   ids("5", "7"),
			},
		})
	}()

	// все три привязки должны оказаться в полёте одновременно
	require.Eventually(t, func() bool { return len(backend.paths("PUT")) == 3 }, waitFor, tick)
	close(backend.release)
	<-done

	require.NoError(t, err)
	calls := backend.snapshot()
	require.Len(t, calls, 4)
	assert.Equal(t, call{Method: "POST", Path: "/worker/add"}, calls[0])
	assert.ElementsMatch(t, []string{"/worker/42/3", "/worker/role/42/5", "/worker/role/42/7"}, backend.paths("PUT"))
	assert.Equal(t, 3, backend.maxPuts)

	assert.Equal(t, restclient.ID("42"), report.ParentID)
	assert.Len(t, report.Linked(), 3)
	assert.True(t, report.Complete())
}

func TestRun_CreationFailureMakesNoLinkCalls(t *testing.T) {
	backend := newFakeBackend("")
	backend.postErr = &restclient.RequestError{Method: "POST", Path: "/client/add", Status: 500, Message: "Duplicate client"}
	runner := NewRunner(backend, zap.NewNop())

	report, err := runner.Run(context.Background(), Request{
		Entity:     mustLookup(t, "client"),
		Payload:    Payload{"fullName": "Acme"},
		Selections: map[string][]restclient.ID{"location": ids("1", "2")},
	})

	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, "Duplicate client", err.Error())
	assert.Len(t, backend.snapshot(), 1)
	assert.Empty(t, backend.paths("PUT"))
}

func TestRun_MalformedCreateResponseAborts(t *testing.T) {
	backend := newFakeBackend(`{"ok": true}`)
	runner := NewRunner(backend, zap.NewNop())

	_, err := runner.Run(context.Background(), Request{
		Entity:     mustLookup(t, "client"),
		Payload:    Payload{"fullName": "Acme"},
		Selections: map[string][]restclient.ID{"location": ids("1")},
	})

	require.ErrorIs(t, err, restclient.ErrMalformedCreateResponse)
	assert.Empty(t, backend.paths("PUT"))
}

func TestRun_OneLinkFailsOthersStillApplied(t *testing.T) {
	backend := newFakeBackend(`{"data": {"token": "77"}}`)
	backend.putErrs["/client/thirdparty/77/9"] = &restclient.RequestError{Method: "PUT", Status: 404, Message: "Third party not found"}
	runner := NewRunner(backend, zap.NewNop())

	report, err := runner.Run(context.Background(), Request{
		Entity:  mustLookup(t, "client"),
		Payload: Payload{"fullName": "Acme"},
		Selections: map[string][]restclient.ID{
			"location":   ids("1", "2"),
			"thirdparty": ids("9"),
		},
	})

	require.NoError(t, err)
	assert.Len(t, backend.paths("POST"), 1)
	assert.Len(t, backend.paths("PUT"), 3)

	assert.False(t, report.Complete())
	assert.Len(t, report.Linked(), 2)
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "thirdparty", failed[0].AssociationType)
	assert.Equal(t, restclient.ID("9"), failed[0].AssociationID)
	assert.Equal(t, "Third party not found", failed[0].ErrorMessage())
}

func TestRun_SelectionRules(t *testing.T) {
	runner := NewRunner(newFakeBackend(`{"token": 1}`), zap.NewNop())
	worker := mustLookup(t, "worker")

	_, err := runner.Run(context.Background(), Request{
		Entity:     worker,
		Payload:    Payload{"name": "Ann"},
		Selections: map[string][]restclient.ID{"client": ids("1", "2")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only one client")

	_, err = runner.Run(context.Background(), Request{
		Entity:     worker,
		Payload:    Payload{"name": "Ann"},
		Selections: map[string][]restclient.ID{"device": ids("1")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown association")
}

func TestRun_DuplicateSelectionLinkedOnce(t *testing.T) {
	backend := newFakeBackend(`{"token": 5}`)
	runner := NewRunner(backend, zap.NewNop())

	report, err := runner.Run(context.Background(), Request{
		Entity:     mustLookup(t, "worker"),
		Payload:    Payload{"name": "Ann"},
		Selections: map[string][]restclient.ID{"role": ids("2", " 2 ")},
	})

	require.NoError(t, err)
	assert.Len(t, report.Links, 1)
	assert.Equal(t, []string{"/worker/role/5/2"}, backend.paths("PUT"))
}

func TestRetryLink(t *testing.T) {
	backend := newFakeBackend(`{"token": 1}`)
	runner := NewRunner(backend, zap.NewNop())
	client := mustLookup(t, "client")

	outcome, err := runner.RetryLink(context.Background(), client, "77", LinkOutcome{AssociationType: "location", AssociationID: "3"})
	require.NoError(t, err)
	assert.True(t, outcome.OK())
	assert.Equal(t, "/client/location/77/3", outcome.Path)

	_, err = runner.RetryLink(context.Background(), client, "77", LinkOutcome{AssociationType: "role", AssociationID: "3"})
	require.Error(t, err)
}

func TestCreateAssociation(t *testing.T) {
	backend := newFakeBackend(`{"id": 15}`)
	runner := NewRunner(backend, zap.NewNop())

	opt, err := runner.CreateAssociation(context.Background(), mustLookup(t, "location"), Payload{"name": "Main office"})
	require.NoError(t, err)
	assert.Equal(t, entities.Option{ID: "15", DisplayName: "Main office"}, opt)
	assert.Equal(t, []string{"/location/add"}, backend.paths("POST"))
	assert.Empty(t, backend.paths("PUT"))
}
