package utils

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger() (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(handler)), &buf
}

func TestLogRequest_LevelTracksStatus(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{500, "ERROR"},
	}
	for _, tc := range cases {
		logger, buf := newBufferLogger()
		logger.LogRequest("GET", "/api/v1/dashboard/streak", tc.status, "1ms")

		line := buf.String()
		assert.Contains(t, line, `"level":"`+tc.level+`"`)
		assert.Contains(t, line, `"path":"/api/v1/dashboard/streak"`)
	}
}

func TestWith_PropagatesFields(t *testing.T) {
	logger, buf := newBufferLogger()
	logger.With("user_id", "student-1").Info("attempt recorded")

	require.True(t, strings.Contains(buf.String(), `"user_id":"student-1"`))
}

func TestLogError_IncludesError(t *testing.T) {
	logger, buf := newBufferLogger()
	logger.LogError(errors.New("boom"), "submit failed", "test_id", 7)

	line := buf.String()
	assert.Contains(t, line, `"error":"boom"`)
	assert.Contains(t, line, `"test_id":7`)
}
