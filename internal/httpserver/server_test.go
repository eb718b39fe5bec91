package httpserver

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_StartAndShutdown(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := New("127.0.0.1:0", http.NotFoundHandler(), logger)

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err, "graceful shutdown is not an error")
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
	assert.Contains(t, buf.String(), "component=http")
	assert.Contains(t, buf.String(), "msg=\"draining connections\"")
}

func TestServer_StartReportsListenError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	err := New("256.0.0.1:bad", http.NotFoundHandler(), logger).Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve 256.0.0.1:bad")
}
