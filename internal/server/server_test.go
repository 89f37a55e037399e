package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/ossim/internal/config"
	"github.com/me/ossim/internal/logging"
	"github.com/me/ossim/internal/store"
	"github.com/me/ossim/pkg/model"
)

func testServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", logging.Discard())
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return New(config.DefaultSimConfig(), st, logging.Discard(), opts...)
}

// envelope is used to decode the standard response envelope.
type envelope struct {
	Status     string            `json:"status"`
	RequestID  string            `json:"request_id"`
	Timestamp  string            `json:"timestamp"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      *model.APIError   `json:"error"`
}

type createdSimulation struct {
	Run         model.Run `json:"run"`
	Utilization float64   `json:"utilization"`
	Trace       []string  `json:"trace"`
}

func do(t *testing.T, srv *Server, method, path, contentType, body string, wantStatus int) envelope {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, wantStatus, w.Code, "%s %s body=%s", method, path, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("X-Request-ID"), "req_"))

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "%s %s: invalid JSON", method, path)
	return env
}

func submit(t *testing.T, srv *Server, body string) createdSimulation {
	t.Helper()
	env := do(t, srv, http.MethodPost, "/api/v1/simulations", "text/plain", body, http.StatusCreated)
	var sim createdSimulation
	require.NoError(t, json.Unmarshal(env.Data, &sim))
	return sim
}

func TestDiscovery(t *testing.T) {
	srv := testServer(t)
	env := do(t, srv, http.MethodGet, "/api/v1/", "", "", http.StatusOK)
	assert.Equal(t, "ok", env.Status)
	assert.NotEmpty(t, env.RequestID)

	var data struct {
		Name      string `json:"name"`
		Endpoints []struct {
			Path string `json:"path"`
		} `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ossim API", data.Name)
	assert.Len(t, data.Endpoints, 4)
}

func TestHealth(t *testing.T) {
	srv := testServer(t)
	env := do(t, srv, http.MethodGet, "/api/v1/health", "", "", http.StatusOK)

	var data healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "healthy", data.Status)
	assert.Equal(t, Version, data.Version)
	assert.NotEmpty(t, data.GoVersion)
	assert.Equal(t, "ok", data.Store)
	assert.Equal(t, DefaultTickLimit, data.TickLimit)
}

func TestCreateSimulationText(t *testing.T) {
	srv := testServer(t)
	sim := submit(t, srv, "# two processes\n0 3 1 2\n2 2\n")

	assert.True(t, strings.HasPrefix(sim.Run.ID, "run_"))
	assert.Equal(t, model.RunStateCompleted, sim.Run.State)
	assert.Equal(t, "request.txt", sim.Run.Source)
	assert.Equal(t, 2, sim.Run.ProcessCount)
	assert.Len(t, sim.Run.Stats, 2)
	require.Len(t, sim.Trace, sim.Run.Ticks)
	assert.Contains(t, sim.Trace[0], "[  admit]")
	assert.Contains(t, sim.Trace[len(sim.Trace)-1], "[ finish]")
	assert.Greater(t, sim.Utilization, 0.0)
	assert.LessOrEqual(t, sim.Utilization, 1.0)
}

func TestCreateSimulationYAML(t *testing.T) {
	srv := testServer(t)
	body := "processes:\n  - id: 7\n    arrival: 1\n    required: 2\n"
	env := do(t, srv, http.MethodPost, "/api/v1/simulations", "application/yaml", body, http.StatusCreated)

	var sim createdSimulation
	require.NoError(t, json.Unmarshal(env.Data, &sim))
	assert.Equal(t, "request.yaml", sim.Run.Source)
	require.Len(t, sim.Run.Stats, 1)
	assert.Equal(t, 7, sim.Run.Stats[0].ProcessID)
}

func TestCreateSimulationValidationError(t *testing.T) {
	srv := testServer(t)
	env := do(t, srv, http.MethodPost, "/api/v1/simulations", "text/plain", "0 0\n1 3 5 1\n", http.StatusBadRequest)

	assert.Equal(t, "error", env.Status)
	require.NotNil(t, env.Error)
	assert.Equal(t, model.ErrValidation, env.Error.Code)
	assert.Len(t, env.Error.Details, 2)
}

func TestCreateSimulationSyntaxError(t *testing.T) {
	srv := testServer(t)
	env := do(t, srv, http.MethodPost, "/api/v1/simulations", "text/plain", "0 x\n", http.StatusBadRequest)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "not an integer")
}

func TestCreateSimulationEmptyBody(t *testing.T) {
	srv := testServer(t)
	env := do(t, srv, http.MethodPost, "/api/v1/simulations", "text/plain", "  \n", http.StatusBadRequest)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "empty")
}

func TestCreateSimulationBodyTooLarge(t *testing.T) {
	srv := testServer(t, WithMaxBodyBytes(8))
	do(t, srv, http.MethodPost, "/api/v1/simulations", "text/plain", "0 3\n1 4\n2 5\n", http.StatusRequestEntityTooLarge)
}

func TestCreateSimulationTickLimitFailsRun(t *testing.T) {
	srv := testServer(t, WithTickLimit(2))
	sim := submit(t, srv, "0 10\n")

	assert.Equal(t, model.RunStateFailed, sim.Run.State)
	assert.Contains(t, sim.Run.Error, "tick limit")
	assert.Len(t, sim.Trace, 2)

	env := do(t, srv, http.MethodGet, "/api/v1/simulations/"+sim.Run.ID, "", "", http.StatusOK)
	var run model.Run
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, model.RunStateFailed, run.State)
	assert.Equal(t, 2, run.Ticks)
}

func TestListSimulations(t *testing.T) {
	srv := testServer(t)
	submit(t, srv, "0 2\n")
	submit(t, srv, "1 1\n")
	submit(t, srv, "0 1\n")

	env := do(t, srv, http.MethodGet, "/api/v1/simulations?limit=2", "", "", http.StatusOK)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.Limit)
	assert.True(t, env.Pagination.HasMore)

	var runs []model.Run
	require.NoError(t, json.Unmarshal(env.Data, &runs))
	assert.Len(t, runs, 2)
}

func TestListSimulationsEmpty(t *testing.T) {
	srv := testServer(t)
	env := do(t, srv, http.MethodGet, "/api/v1/simulations", "", "", http.StatusOK)
	assert.JSONEq(t, "[]", string(env.Data))
	assert.Equal(t, 0, env.Pagination.Total)
	assert.False(t, env.Pagination.HasMore)
}

func TestListSimulationsBadLimit(t *testing.T) {
	srv := testServer(t)
	env := do(t, srv, http.MethodGet, "/api/v1/simulations?limit=abc", "", "", http.StatusBadRequest)
	assert.Equal(t, model.ErrValidation, env.Error.Code)
}

func TestGetSimulation(t *testing.T) {
	srv := testServer(t)
	sim := submit(t, srv, "0 3 1 2\n")

	env := do(t, srv, http.MethodGet, "/api/v1/simulations/"+sim.Run.ID, "", "", http.StatusOK)
	var run model.Run
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, sim.Run.ID, run.ID)
	assert.Equal(t, sim.Run.Ticks, run.Ticks)
	require.Len(t, run.Stats, 1)
	assert.Equal(t, 1, run.Stats[0].IORequests)
	assert.NotNil(t, run.CompletedAt)
}

func TestGetSimulationNotFound(t *testing.T) {
	srv := testServer(t)
	env := do(t, srv, http.MethodGet, "/api/v1/simulations/run_nope", "", "", http.StatusNotFound)
	assert.Equal(t, model.ErrNotFound, env.Error.Code)

	env = do(t, srv, http.MethodGet, "/api/v1/simulations/run_nope/ticks", "", "", http.StatusNotFound)
	assert.Equal(t, model.ErrNotFound, env.Error.Code)
}

func TestListTicksMatchesTrace(t *testing.T) {
	srv := testServer(t)
	sim := submit(t, srv, "0 3 1 2\n1 2\n")

	env := do(t, srv, http.MethodGet, "/api/v1/simulations/"+sim.Run.ID+"/ticks", "", "", http.StatusOK)
	var ticks []struct {
		Time   int    `json:"time"`
		Action string `json:"action"`
		Tag    string `json:"tag"`
		Line   string `json:"line"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ticks))
	require.Len(t, ticks, len(sim.Trace))
	for i, tk := range ticks {
		assert.Equal(t, i+1, tk.Time)
		assert.Equal(t, sim.Trace[i], tk.Line)
		assert.NotContains(t, tk.Tag, " ")
	}
	assert.Equal(t, "admit", ticks[0].Tag)
}
