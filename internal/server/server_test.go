package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/bridge"
	"github.com/ternarybob/stencil/internal/common"
	"github.com/ternarybob/stencil/internal/models"
)

func newTestServer(t *testing.T) (*Server, *bridge.Queue) {
	t.Helper()

	logger := arbor.NewLogger()
	config := common.DefaultConfig()
	queue := bridge.NewQueue(bridge.Options{}, nil, logger)
	return New(config, queue, nil, logger), queue
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPollCompleteRoundTrip(t *testing.T) {
	srv, queue := newTestServer(t)

	cmd, err := queue.Enqueue(models.CommandSpec{
		Type:   models.CommandCreateFrame,
		Params: map[string]interface{}{"name": "Hero", "width": 1440.0, "height": 900.0},
	})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/commands", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var poll struct {
		FileKey  string           `json:"fileKey"`
		Commands []models.Command `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &poll))
	require.Len(t, poll.Commands, 1)
	assert.Equal(t, cmd.ID, poll.Commands[0].ID)
	assert.Equal(t, models.CommandCreateFrame, poll.Commands[0].Type)
	assert.Equal(t, models.StatusPending, poll.Commands[0].Status)

	rec = doRequest(t, srv, http.MethodPost, "/commands/"+cmd.ID+"/complete",
		map[string]interface{}{"result": map[string]interface{}{"nodeId": "1:5"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	rec = doRequest(t, srv, http.MethodGet, "/commands/all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &poll))
	require.Len(t, poll.Commands, 1)
	assert.Equal(t, models.StatusCompleted, poll.Commands[0].Status)
	assert.Equal(t, map[string]interface{}{"nodeId": "1:5"}, poll.Commands[0].Result)
	assert.Greater(t, poll.Commands[0].CompletedAt, int64(0))
}

func TestCompleteWithErrorMarksFailed(t *testing.T) {
	srv, queue := newTestServer(t)

	cmd, err := queue.Enqueue(models.CommandSpec{Type: models.CommandDeleteNode})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/commands/"+cmd.ID+"/complete",
		map[string]interface{}{"error": map[string]interface{}{"message": "node not found: 9:9"}})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, found := queue.Get(cmd.ID)
	require.True(t, found)
	assert.Equal(t, models.StatusFailed, stored.Status)
}

func TestCompleteDuplicateIsAcknowledgedNoOp(t *testing.T) {
	srv, queue := newTestServer(t)

	cmd, err := queue.Enqueue(models.CommandSpec{Type: models.CommandCreatePage})
	require.NoError(t, err)

	first := map[string]interface{}{"result": "ok"}
	rec := doRequest(t, srv, http.MethodPost, "/commands/"+cmd.ID+"/complete", first)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/commands/"+cmd.ID+"/complete",
		map[string]interface{}{"error": map[string]interface{}{"message": "late"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["alreadyCompleted"])

	stored, _ := queue.Get(cmd.ID)
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestCompleteUnknownIDReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/commands/cmd_0_deadbeef/complete",
		map[string]interface{}{"result": "ok"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestCompleteMalformedJSONReturns400(t *testing.T) {
	srv, queue := newTestServer(t)

	cmd, err := queue.Enqueue(models.CommandSpec{Type: models.CommandCreatePage})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/commands/"+cmd.ID+"/complete",
		strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	stored, _ := queue.Get(cmd.ID)
	assert.Equal(t, models.StatusPending, stored.Status, "a malformed report must not touch the command")
}

func TestClearDiscardsEverything(t *testing.T) {
	srv, queue := newTestServer(t)

	for i := 0; i < 5; i++ {
		_, err := queue.Enqueue(models.CommandSpec{
			Type:   models.CommandCreatePage,
			Params: map[string]interface{}{"name": fmt.Sprintf("Page %d", i)},
		})
		require.NoError(t, err)
	}

	rec := doRequest(t, srv, http.MethodDelete, "/commands", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	rec = doRequest(t, srv, http.MethodGet, "/health", nil)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(0), body["pendingCommands"])
	assert.Equal(t, float64(0), body["totalCommands"])
}

func TestHealthReportsCounts(t *testing.T) {
	srv, queue := newTestServer(t)

	cmd, err := queue.Enqueue(models.CommandSpec{Type: models.CommandCreatePage})
	require.NoError(t, err)
	_, err = queue.Enqueue(models.CommandSpec{Type: models.CommandCreateFrame})
	require.NoError(t, err)
	queue.Complete(cmd.ID, "ok", nil)

	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["pendingCommands"])
	assert.Equal(t, float64(2), body["totalCommands"])
}

func TestPluginServesBootstrapSource(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/plugin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/javascript")
	assert.Contains(t, rec.Body.String(), "BRIDGE_URL")
	assert.Contains(t, rec.Body.String(), "/commands")
}

func TestCORSHeadersOnEveryResponse(t *testing.T) {
	srv, _ := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/commands"},
		{http.MethodGet, "/health"},
		{http.MethodGet, "/plugin"},
		{http.MethodGet, "/nowhere"},
	}
	for _, p := range paths {
		rec := doRequest(t, srv, p.method, p.path, nil)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), "%s %s", p.method, p.path)
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodOptions, "/commands", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestUnmatchedRoutesReturnUniform404(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/", "/nope", "/commands/abc", "/commands/abc/complete/extra"} {
		rec := doRequest(t, srv, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "Not found", decodeBody(t, rec)["error"], path)
	}
}

func TestPollStampsClaimLease(t *testing.T) {
	logger := arbor.NewLogger()
	config := common.DefaultConfig()
	queue := bridge.NewQueue(bridge.Options{LeaseDuration: 30 * time.Second}, nil, logger)
	srv := New(config, queue, nil, logger)

	_, err := queue.Enqueue(models.CommandSpec{Type: models.CommandCreateFrame})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/commands", nil)
	var poll struct {
		Commands []models.Command `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &poll))
	assert.Len(t, poll.Commands, 1)

	rec = doRequest(t, srv, http.MethodGet, "/commands", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &poll))
	assert.Empty(t, poll.Commands, "a second poll inside the lease window sees nothing")
}

func TestListenWalksToNextFreePort(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()
	basePort := taken.Addr().(*net.TCPAddr).Port

	logger := arbor.NewLogger()
	config := common.DefaultConfig()
	config.Server.Host = "127.0.0.1"
	config.Server.Port = basePort
	config.Server.MaxPortRetries = 3

	queue := bridge.NewQueue(bridge.Options{}, nil, logger)
	srv := New(config, queue, nil, logger)

	listener, err := srv.listen()
	require.NoError(t, err)
	defer listener.Close()

	bound := listener.Addr().(*net.TCPAddr).Port
	assert.Greater(t, bound, basePort, "configured port is taken, the relay walks up")
	assert.LessOrEqual(t, bound, basePort+3)
	assert.Equal(t, bound, srv.CurrentPort())
}

func TestCompleteCommandIDExtraction(t *testing.T) {
	assert.Equal(t, "cmd_1_abc", completeCommandID("/commands/cmd_1_abc/complete"))
	assert.Equal(t, "", completeCommandID("/commands/cmd_1_abc"))
	assert.Equal(t, "", completeCommandID("/commands//complete"))
	assert.Equal(t, "", completeCommandID("/commands/a/b/complete"))
	assert.Equal(t, "", completeCommandID("/health"))
}
