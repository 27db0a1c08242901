// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package supervisor

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingService struct {
	name   string
	serves atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	s.serves.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	assert.Equal(t, 5.0, cfg.FailureThreshold)
	assert.Equal(t, 30.0, cfg.FailureDecay)
	assert.Equal(t, 15*time.Second, cfg.FailureBackoff)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestTreeRunsServicesInAllLayers(t *testing.T) {
	tree := NewTree(quietLogger(), DefaultTreeConfig())

	pipeline := &countingService{name: "pipeline-svc"}
	streaming := &countingService{name: "streaming-svc"}
	api := &countingService{name: "api-svc"}
	tree.AddPipelineService(pipeline)
	tree.AddStreamingService(streaming)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool {
		return pipeline.serves.Load() == 1 &&
			streaming.serves.Load() == 1 &&
			api.serves.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}

func TestTreeZeroConfigGetsDefaults(t *testing.T) {
	tree := NewTree(quietLogger(), TreeConfig{})

	svc := &countingService{name: "svc"}
	tree.AddPipelineService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool { return svc.serves.Load() == 1 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	<-errCh
}
