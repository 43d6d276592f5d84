package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-bi/pkg/auth"
	sqlutil "github.com/ekaya-inc/ekaya-bi/pkg/sql"
)

func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return zap.New(core), recorded
}

func decodeEvent(t *testing.T, entry observer.LoggedEntry) SecurityEvent {
	t.Helper()
	raw, ok := entry.ContextMap()["event_json"].(string)
	require.True(t, ok, "event_json field missing")
	var event SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	return event
}

func TestLogRejectedStatement(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	claims := &auth.Claims{}
	claims.Subject = "analyst-1"
	ctx := auth.WithClaims(context.Background(), claims, "raw")

	auditor.LogRejectedStatement(ctx, "conn1", "delete from orders", "Only SELECT queries are allowed.")

	entries := recorded.All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "security_audit", entry.LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	event := decodeEvent(t, entry)
	assert.Equal(t, EventStatementRejected, event.EventType)
	assert.Equal(t, "conn1", event.ConnectionID)
	assert.Equal(t, "analyst-1", event.UserID)
	assert.Equal(t, "warning", event.Severity)
}

func TestLogSuspiciousValues(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	results := []*sqlutil.InjectionCheckResult{
		nil,
		{IsSQLi: true, Fingerprint: "s&1c", ParamName: "search", ParamValue: "' or 1=1--"},
	}

	n := auditor.LogSuspiciousValues(context.Background(), "conn1", "distinct", results)
	assert.Equal(t, 1, n)

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "search", entries[0].ContextMap()["param_name"])

	event := decodeEvent(t, entries[0])
	assert.Equal(t, EventSuspiciousValue, event.EventType)
	assert.Equal(t, "critical", event.Severity)
	assert.Empty(t, event.UserID)
}

func TestLogAuthFailure(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	req := httptest.NewRequest(http.MethodGet, "/api/connections", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	auditor.LogAuthFailure(req, "missing authorization")

	entries := recorded.All()
	require.Len(t, entries, 1)
	event := decodeEvent(t, entries[0])
	assert.Equal(t, EventAuthFailure, event.EventType)
	assert.Equal(t, "10.1.2.3:5555", event.ClientIP)
}
