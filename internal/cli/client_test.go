package cli

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/ossim/internal/logging"
	"github.com/me/ossim/pkg/model"
)

func mockClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient("http://ossim.test/", logging.Discard())
	httpmock.ActivateNonDefault(c.HTTPClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestClient_GetDecodesData(t *testing.T) {
	c := mockClient(t)
	httpmock.RegisterResponder(http.MethodGet, "http://ossim.test/api/v1/simulations/run_1",
		httpmock.NewStringResponder(200, `{"status":"ok","request_id":"req_1","data":{"id":"run_1","state":"COMPLETED","ticks":9}}`))

	var run model.Run
	resp, err := c.Get("/api/v1/simulations/run_1", &run)
	require.NoError(t, err)
	assert.Equal(t, "req_1", resp.RequestID)
	assert.Equal(t, "run_1", run.ID)
	assert.Equal(t, model.RunStateCompleted, run.State)
	assert.Equal(t, 9, run.Ticks)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	c := mockClient(t)
	httpmock.RegisterResponder(http.MethodGet, "http://ossim.test/api/v1/simulations/run_x",
		httpmock.NewStringResponder(404, `{"status":"error","data":null,"error":{"code":"NOT_FOUND","message":"simulation 'run_x' not found"}}`))

	_, err := c.Get("/api/v1/simulations/run_x", nil)
	require.Error(t, err)
	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, model.ErrNotFound, apiErr.Code)
}

func TestClient_PostSendsBodyVerbatim(t *testing.T) {
	c := mockClient(t)
	httpmock.RegisterResponder(http.MethodPost, "http://ossim.test/api/v1/simulations",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "text/plain", req.Header.Get("Content-Type"))
			return httpmock.NewStringResponse(201, `{"status":"ok","data":{"run":{"id":"run_2"}}}`), nil
		})

	var res submitResult
	_, err := c.Post("/api/v1/simulations", "text/plain", []byte("0 2\n"), &res)
	require.NoError(t, err)
	assert.Equal(t, "run_2", res.Run.ID)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestClient_NonJSONResponse(t *testing.T) {
	c := mockClient(t)
	httpmock.RegisterResponder(http.MethodGet, "http://ossim.test/api/v1/health",
		httpmock.NewStringResponder(502, "bad gateway"))

	_, err := c.Get("/api/v1/health", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_TransportError(t *testing.T) {
	c := mockClient(t)
	httpmock.RegisterResponder(http.MethodGet, "http://ossim.test/api/v1/health",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := c.Get("/api/v1/health", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}
