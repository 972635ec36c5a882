package server_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pmacedo/dispatchproxy/internal/dispatch"
	"github.com/pmacedo/dispatchproxy/internal/policy"
	"github.com/pmacedo/dispatchproxy/internal/server"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newStubWorker(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestForwardRoundRobinsAcrossWorkers(t *testing.T) {
	w0 := newStubWorker(t, "from-0")
	w1 := newStubWorker(t, "from-1")

	ctrl, err := dispatch.New([]string{w0.URL, w1.URL}, policy.RoundRobin)
	require.NoError(t, err)

	s := server.New(ctrl)

	for _, want := range []string{"from-0", "from-1", "from-0"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/anything", nil)
		s.Engine().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, want, rec.Body.String())
	}
}

func TestControlEndpointSwitchesPolicy(t *testing.T) {
	w0 := newStubWorker(t, "ok")

	ctrl, err := dispatch.New([]string{w0.URL}, policy.RoundRobin)
	require.NoError(t, err)
	s := server.New(ctrl)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/anything/change_algorithm?algo_type=least_connections", nil)
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Algorithm Changed!", rec.Body.String())
	require.Equal(t, policy.LeastConnections, ctrl.CurrentKind())
}

func TestControlEndpointRejectsGarbageAlgoType(t *testing.T) {
	w0 := newStubWorker(t, "ok")
	ctrl, err := dispatch.New([]string{w0.URL}, policy.RoundRobin)
	require.NoError(t, err)
	s := server.New(ctrl)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/change_algorithm?algo_type=garbage", nil)
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Invalid Algorithm Type", rec.Body.String())
	require.Equal(t, policy.RoundRobin, ctrl.CurrentKind())
}

func TestControlEndpointNoQuery(t *testing.T) {
	w0 := newStubWorker(t, "ok")
	ctrl, err := dispatch.New([]string{w0.URL}, policy.RoundRobin)
	require.NoError(t, err)
	s := server.New(ctrl)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/change_algorithm", nil)
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "No Query Attached", rec.Body.String())
}
