package services

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ogctz/internal/shared/testutil"
)

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService(BuildInfo{Version: "1.2.3"}, testutil.DiscardLogger())

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.NotEmpty(t, status.Uptime)
	assert.False(t, status.Timestamp.IsZero())
	assert.Nil(t, status.Services)
}

func TestHealthService_LivenessCheck(t *testing.T) {
	hs := NewHealthService(BuildInfo{Version: "1.2.3"}, nil)

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	require.NotNil(t, status.Runtime)
	assert.Equal(t, runtime.Version(), status.Runtime["go_version"])
	assert.Equal(t, runtime.GOOS, status.Runtime["os"])
	assert.Contains(t, status.Runtime, "goroutines")
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	ready := func(context.Context) ServiceHealth { return ServiceHealth{Status: StatusReady} }
	notReady := func(context.Context) ServiceHealth {
		return ServiceHealth{Status: StatusNotReady, Message: "no templates"}
	}

	t.Run("no checks is ready", func(t *testing.T) {
		hs := NewHealthService(BuildInfo{}, testutil.DiscardLogger())
		assert.Equal(t, StatusReady, hs.ReadinessCheck(context.Background()).Status)
	})

	t.Run("all ready", func(t *testing.T) {
		hs := NewHealthService(BuildInfo{}, testutil.DiscardLogger())
		hs.AddCheck("templates", ready)
		hs.AddCheck("sessions", ready)

		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, StatusReady, status.Status)
		assert.Len(t, status.Services, 2)
	})

	t.Run("one failing component", func(t *testing.T) {
		logger, handler := testutil.NewTestLogger(t)
		hs := NewHealthService(BuildInfo{}, logger)
		hs.AddCheck("templates", notReady)
		hs.AddCheck("sessions", ready)

		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, StatusNotReady, status.Status)
		assert.Equal(t, "no templates", status.Services["templates"].Message)
		assert.Equal(t, StatusReady, status.Services["sessions"].Status)
		assert.True(t, handler.ContainsMessage("readiness check failed"))
	})

	t.Run("check is replaced by name", func(t *testing.T) {
		hs := NewHealthService(BuildInfo{}, testutil.DiscardLogger())
		hs.AddCheck("templates", notReady)
		hs.AddCheck("templates", ready)
		assert.Equal(t, StatusReady, hs.ReadinessCheck(context.Background()).Status)
	})
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService(BuildInfo{Version: "1.0.0", BuildID: "abc"}, testutil.DiscardLogger())

	info := hs.Version()
	assert.Equal(t, "1.0.0", info["version"])
	assert.Equal(t, "abc", info["build_id"])
	assert.NotContains(t, info, "build_time")
	assert.Contains(t, info, "start_time")
}
