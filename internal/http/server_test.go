package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/mocks"
	authmocks "github.com/MrCreosote/user-and-job-state/internal/mocks/auth"
	"github.com/MrCreosote/user-and-job-state/internal/service"
)

const (
	testToken = "alice-token"
	testUser  = "alice"
	testJobID = "0123456789abcdef01234567"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	handler   http.Handler
	jobs      *mocks.MockJobRepository
	state     *mocks.MockUserStateRepository
	resolver  *authmocks.StaticResolver
	readiness map[string]Pinger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctrl := gomock.NewController(t)
	ts := &testServer{
		jobs:      mocks.NewMockJobRepository(ctrl),
		state:     mocks.NewMockUserStateRepository(ctrl),
		resolver:  authmocks.NewStaticResolver(map[string]string{testToken: testUser}),
		readiness: map[string]Pinger{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts.handler = NewRouter(RouterServices{
		Jobs: service.MustNewJobService(service.JobServiceOptions{
			Repo:      ts.jobs,
			Publisher: core.NoopJobEventPublisher{},
			Logger:    logger,
			Now:       func() time.Time { return testNow },
		}),
		State:        service.MustNewUserStateService(service.UserStateServiceOptions{Repo: ts.state, Logger: logger}),
		Resolver:     ts.resolver,
		Ready:        ts.readiness,
		MaxBodyBytes: 1 << 16,
		Logger:       logger,
	})
	return ts
}

// do sends an authenticated request; body is JSON encoded unless it is a string.
func (ts *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := newRequest(t, method, target, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func newRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}
