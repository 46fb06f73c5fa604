package fleet

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskcluster/agent-retention/runtime/mocks"
)

func newTestAPI(t *testing.T) (*harness, *httptest.Server) {
	registry := prometheus.NewRegistry()
	h := &harness{
		now:     time.Unix(1500000000, 0),
		monitor: mocks.NewMockMonitor(true),
	}
	h.provider = mockProvider(h)
	h.fleet = New(Options{
		Monitor:  h.monitor,
		Provider: h.provider,
		Registry: registry,
		Clock:    h.clock,
	})
	server := httptest.NewServer(NewHandler(h.fleet, nil, registry, h.monitor))
	t.Cleanup(server.Close)
	return h, server
}

func post(t *testing.T, url, body string) (int, Status) {
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	var s Status
	if res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&s))
	}
	return res.StatusCode, s
}

func TestAPIListAgents(t *testing.T) {
	h, server := newTestAPI(t)
	h.register(t, "builder", 10, 5, ec2("-2"))

	res, err := http.Get(server.URL + "/agents")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Agents []map[string]interface{} `json:"agents"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Agents, 1)
	assert.Equal(t, "builder", body.Agents[0]["name"])
	assert.Equal(t, "running", body.Agents[0]["instanceState"])
	assert.Equal(t, "ACTIVE", body.Agents[0]["phase"])
	assert.Equal(t, 5.0, body.Agents[0]["usageLimit"])
}

func TestAPIGetAgentNotFound(t *testing.T) {
	_, server := newTestAPI(t)
	res, err := http.Get(server.URL + "/agents/missing")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestAPITaskLifeCycle(t *testing.T) {
	h, server := newTestAPI(t)
	h.register(t, "builder", 10, 1, ec2("-2"))
	url := server.URL + "/agents/builder/tasks/"

	code, s := post(t, url+"accepted", `{"taskId": "task-1"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, s.ActiveTasks)
	assert.False(t, s.AcceptingTasks)

	code, _ = post(t, url+"accepted", `{"taskId": "task-2"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, s = post(t, url+"completed", `{"taskId": "task-1", "durationMs": 60000}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, ShuttingDown, s.Phase)
	assert.Equal(t, 1, h.provider.Calls("terminate"))

	code, _ = post(t, url+"completed", `{"taskId": "task-1"}`)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = post(t, url+"completed", `{"durationMs": -1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = post(t, url+"completed", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAPIChunkedEmptyBody(t *testing.T) {
	h, _ := newTestAPI(t)
	h.register(t, "builder", 10, -1, ec2("-2"))
	handler := NewHandler(h.fleet, nil, prometheus.NewRegistry(), h.monitor)

	req := httptest.NewRequest(http.MethodPost, "/agents/builder/tasks/accepted", strings.NewReader(""))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var s Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
	assert.Equal(t, 1, s.ActiveTasks)
}

func TestAPICheck(t *testing.T) {
	h, server := newTestAPI(t)
	h.register(t, "builder", 59, -1, ec2("-2"))

	code, s := post(t, server.URL+"/agents/builder/check", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, IdlePending, s.Phase)
	assert.Equal(t, 1, h.provider.Calls("stop"))
}

func TestAPIMetrics(t *testing.T) {
	h, server := newTestAPI(t)
	h.register(t, "builder", 59, -1, ec2("-2"))

	res, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `agent_retention_agents{phase="ACTIVE"} 1`)
}

func TestAPIDisconnect(t *testing.T) {
	h, server := newTestAPI(t)
	h.register(t, "builder", 59, -1, ec2("-2"))

	code, s := post(t, server.URL+"/agents/builder/disconnect", "")
	require.Equal(t, http.StatusOK, code)
	assert.False(t, s.Online)

	code, s = post(t, server.URL+"/agents/builder/check", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, Active, s.Phase, "disconnected agents are not idled out")

	code, s = post(t, server.URL+"/agents/builder/connect", "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, s.Online)
}
