package grpc

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakeOrchestrator struct {
	running atomic.Bool
}

func (f *fakeOrchestrator) Running() bool { return f.running.Load() }

func TestServer_HealthFollowsOrchestrator(t *testing.T) {
	orch := &fakeOrchestrator{}
	s, err := NewServer(&Config{
		Port:         0,
		Orchestrator: orch,
		SyncInterval: 5 * time.Millisecond,
		Logger:       zap.NewNop(),
	})
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Start() }()

	conn, err := grpc.NewClient(s.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.GetStatus()
	}

	assert.Eventually(t, func() bool {
		return check() == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	orch.running.Store(true)
	assert.Eventually(t, func() bool {
		return check() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	orch.running.Store(false)
	assert.Eventually(t, func() bool {
		return check() == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-serveErr)
}

func TestNewServer_RequiresOrchestrator(t *testing.T) {
	_, err := NewServer(&Config{Logger: zap.NewNop()})
	assert.ErrorContains(t, err, "orchestrator")
}
