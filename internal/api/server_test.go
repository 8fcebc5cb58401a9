package api

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/beforeafter/internal/testutil"
)

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 9001
	cfg.ReadTimeout = 3 * time.Second
	cfg.WriteTimeout = 4 * time.Second

	server := NewServer(http.NotFoundHandler(), cfg, testutil.NopLogger())

	assert.Equal(t, "127.0.0.1:9001", server.Addr())
	assert.Equal(t, 3*time.Second, server.server.ReadTimeout)
	assert.Equal(t, 4*time.Second, server.server.WriteTimeout)
	assert.Equal(t, cfg.ReadHeaderTimeout, server.server.ReadHeaderTimeout)
	assert.Equal(t, cfg.IdleTimeout, server.server.IdleTimeout)
}

func TestNewServerFormatsIPv6Host(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Host = "::1"

	server := NewServer(http.NotFoundHandler(), cfg, testutil.NopLogger())
	assert.Equal(t, "[::1]:8080", server.Addr())
}

func TestShutdownBeforeStartIsClean(t *testing.T) {
	var logs bytes.Buffer
	server := NewServer(http.NotFoundHandler(), DefaultServerConfig(), testutil.CaptureLogger(&logs))

	require.NoError(t, server.Shutdown(context.Background()))

	entries := testutil.LogEntries(t, &logs)
	require.Len(t, entries, 2)
	assert.Equal(t, "shutting down HTTP server", entries[0]["msg"])
	assert.Equal(t, "HTTP server stopped", entries[1]["msg"])
}
