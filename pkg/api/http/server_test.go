package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/dropship/internal/application/orchestrator"
	"github.com/aescanero/dropship/internal/application/policy"
	"github.com/aescanero/dropship/internal/application/workers"
	"github.com/aescanero/dropship/pkg/adapters/metrics/noop"
	policymem "github.com/aescanero/dropship/pkg/adapters/policy/memory"
	storagemem "github.com/aescanero/dropship/pkg/adapters/storage/memory"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	server  *Server
	manager *orchestrator.Manager
	gate    *policy.Gate
	source  *policymem.Source
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()

	baseline := policy.Snapshot{AutoFulfillEnabled: true, MinProfitMargin: 0.3}
	store := policy.NewStore(baseline)
	gate := policy.NewGate(store, map[string]policy.Rule{
		"fulfillment": func(s policy.Snapshot) bool { return s.AutoFulfillEnabled },
	})
	source := policymem.NewSource()
	reloader := policy.NewReloader(store, baseline, source, noop.NewCollector(), time.Hour, zap.NewNop())

	idle := workers.PipelineFunc(func(ctx context.Context, tick *workers.Tick) (*workers.Report, error) {
		return &workers.Report{TickID: tick.ID}, nil
	})
	specs := []workers.Spec{
		{Name: "discovery", Interval: time.Hour, Penalty: time.Minute, Pipeline: idle},
		{Name: "fulfillment", Interval: time.Hour, Penalty: time.Minute, Pipeline: idle},
	}
	manager, err := orchestrator.NewManager(specs, orchestrator.Config{
		Gate:           gate,
		Metrics:        noop.NewCollector(),
		Logger:         zap.NewNop(),
		HealthInterval: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if manager.Running() {
			_, _ = manager.Shutdown(context.Background())
		}
	})

	statuses := storagemem.NewInMemoryStatusStorage()
	require.NoError(t, statuses.SaveStatus(context.Background(), &domain.WorkflowStatus{Workflow: "discovery", Ticks: 3}))

	server := NewServer(&Config{
		Orchestrator:   manager,
		Policy:         gate,
		PolicySource:   source,
		PolicyReloader: reloader,
		Statuses:       statuses,
		StopTimeout:    time.Second,
		APIToken:       token,
		Logger:         zap.NewNop(),
	})

	return &fixture{server: server, manager: manager, gate: gate, source: source}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestServer_StartStop(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodPost, "/api/v1/automation/stop", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/automation/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var started LifecycleResponse
	decode(t, w, &started)
	assert.Equal(t, orchestrator.StateRunning, started.State)
	assert.NotNil(t, started.StartedAt)

	w = f.do(t, http.MethodPost, "/api/v1/automation/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var conflict ErrorResponse
	decode(t, w, &conflict)
	assert.Equal(t, "ALREADY_RUNNING", conflict.Error.Code)

	w = f.do(t, http.MethodPost, "/api/v1/automation/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stopped LifecycleResponse
	decode(t, w, &stopped)
	assert.Equal(t, orchestrator.StateStopped, stopped.State)
	require.Len(t, stopped.Runners, 2)
	assert.Equal(t, "discovery", stopped.Runners[0].Workflow)
	assert.False(t, stopped.Runners[0].TimedOut)
}

func TestServer_Status(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodGet, "/api/v1/automation/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status StatusResponse
	decode(t, w, &status)
	assert.Equal(t, orchestrator.StateCreated, status.State)
	assert.False(t, status.Running)
	require.Len(t, status.Workflows, 2)
	assert.Equal(t, string(workers.StateIdle), status.Workflows[0].State)

	w = f.do(t, http.MethodGet, "/api/v1/workflows/fulfillment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var one domain.WorkflowStatus
	decode(t, w, &one)
	assert.Equal(t, "fulfillment", one.Workflow)

	w = f.do(t, http.MethodGet, "/api/v1/workflows/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/workflows", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)

	w = f.do(t, http.MethodGet, "/api/v1/statuses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ticks":3`)
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"stopped"`)

	require.NoError(t, f.manager.Initialize(context.Background()))
	w = f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestServer_Policy(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodGet, "/api/v1/policy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot policy.Snapshot
	decode(t, w, &snapshot)
	assert.True(t, snapshot.AutoFulfillEnabled)

	w = f.do(t, http.MethodPut, "/api/v1/policy", map[string]interface{}{
		"auto_fulfill_enabled": false,
		"min_profit_margin":    0.45,
	})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &snapshot)
	assert.False(t, snapshot.AutoFulfillEnabled)
	assert.Equal(t, 0.45, snapshot.MinProfitMargin)

	// the gate reads the new snapshot on its next evaluation
	assert.False(t, f.gate.ShouldRun("fulfillment"))
	assert.True(t, f.gate.ShouldRun("discovery"))

	stored, err := f.source.LoadOverrides(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "false", stored["auto_fulfill_enabled"])
	assert.Equal(t, "0.45", stored["min_profit_margin"])
}

func TestServer_PolicyRejectsInvalidValues(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodPut, "/api/v1/policy", map[string]interface{}{
		"min_profit_margin": 1.5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/policy", map[string]interface{}{
		"auto_fulfill_enabled": []int{1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// nothing was stored and the policy is unchanged
	stored, err := f.source.LoadOverrides(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.True(t, f.gate.ShouldRun("fulfillment"))
}

func TestServer_APIToken(t *testing.T) {
	f := newFixture(t, "s3cret")

	w := f.do(t, http.MethodGet, "/api/v1/automation/status", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/automation/status", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// health stays open for probes
	w = f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodOptions, "/api/v1/policy", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_StartRefusedWhileRunnersLag(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	stuck := workers.PipelineFunc(func(ctx context.Context, tick *workers.Tick) (*workers.Report, error) {
		once.Do(func() { close(entered) })
		<-release
		return &workers.Report{TickID: tick.ID}, nil
	})

	gate := policy.NewGate(policy.NewStore(policy.Snapshot{}), nil)
	manager, err := orchestrator.NewManager([]workers.Spec{
		{Name: "stuck", Interval: time.Millisecond, Penalty: time.Millisecond, Pipeline: stuck},
	}, orchestrator.Config{
		Gate:           gate,
		Metrics:        noop.NewCollector(),
		Logger:         zap.NewNop(),
		HealthInterval: time.Hour,
	})
	require.NoError(t, err)

	f := &fixture{
		server: NewServer(&Config{
			Orchestrator: manager,
			Policy:       gate,
			StopTimeout:  20 * time.Millisecond,
			Logger:       zap.NewNop(),
		}),
		manager: manager,
	}

	require.NoError(t, manager.Initialize(context.Background()))
	<-entered

	w := f.do(t, http.MethodPost, "/api/v1/automation/stop", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/automation/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var conflict ErrorResponse
	decode(t, w, &conflict)
	assert.Equal(t, "STILL_STOPPING", conflict.Error.Code)

	close(release)
	require.Eventually(t, func() bool {
		return manager.State() == orchestrator.StateStopped
	}, time.Second, time.Millisecond)

	w = f.do(t, http.MethodPost, "/api/v1/automation/start", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	_, err = manager.Shutdown(context.Background())
	require.NoError(t, err)
}
