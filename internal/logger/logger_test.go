package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesCategoryAndMessage(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l := New(&buf)

	l.Info("approval", "decision stored")
	l.LogApproval("RESPOND", "apr-1", "APPROVED")

	out := buf.String()
	assert.Contains(t, out, "[APPROVAL  ]")
	assert.Contains(t, out, "decision stored")
	assert.Contains(t, out, "[RESPOND] apr-1 - APPROVED")
	assert.Contains(t, out, "logger_test.go")
}

func TestLoggerRespectsMinLevel(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l := New(&buf)
	l.minLevel = WARN

	l.Info("API", "hidden")
	l.Warn("API", "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l := New(&buf)

	h := l.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/approvals/a-1/respond", nil))

	assert.Contains(t, buf.String(), "POST /api/approvals/a-1/respond - 409")
}
