// Package audit writes security-relevant events as structured log entries
// for SIEM consumption. All entries go to the "security_audit" logger.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/auth"
	"github.com/ekaya-inc/ekaya-bi/pkg/logging"
	sqlutil "github.com/ekaya-inc/ekaya-bi/pkg/sql"
)

// SecurityEventType categorizes events for filtering and alerting.
type SecurityEventType string

const (
	EventStatementRejected SecurityEventType = "statement_rejected"
	EventSuspiciousValue   SecurityEventType = "suspicious_parameter_value"
	EventAuthFailure       SecurityEventType = "auth_failure"
)

// SecurityEvent is the JSON document embedded in every audit entry.
type SecurityEvent struct {
	Timestamp    time.Time         `json:"timestamp"`
	EventType    SecurityEventType `json:"event_type"`
	ConnectionID string            `json:"connection_id,omitempty"`
	UserID       string            `json:"user_id,omitempty"`
	ClientIP     string            `json:"client_ip,omitempty"`
	Details      any               `json:"details"`
	Severity     string            `json:"severity"` // info, warning, critical
}

// SuspiciousValueDetails describes a bound value libinjection flagged.
// The value is bound as a parameter, so this is an observation, not a block.
type SuspiciousValueDetails struct {
	ParamName   string `json:"param_name"`
	ParamValue  string `json:"param_value"`
	Fingerprint string `json:"fingerprint"`
	Operation   string `json:"operation"`
}

type SecurityAuditor struct {
	logger *zap.Logger
}

func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogRejectedStatement records ad-hoc SQL refused by the statement guard.
func (a *SecurityAuditor) LogRejectedStatement(ctx context.Context, connectionID, statement, reason string) {
	event := a.event(ctx, EventStatementRejected, connectionID, "warning", map[string]string{
		"reason":    reason,
		"statement": logging.SanitizeQuery(statement),
	})

	a.logger.Warn("Statement rejected",
		zap.String("event_json", marshal(event)),
		zap.String("connection_id", connectionID),
		zap.String("reason", reason),
		zap.String("user_id", event.UserID),
		zap.String("severity", event.Severity),
	)
}

// LogSuspiciousValues records every injection-looking value among results.
// Returns the number of events written.
func (a *SecurityAuditor) LogSuspiciousValues(ctx context.Context, connectionID, operation string, results []*sqlutil.InjectionCheckResult) int {
	logged := 0
	for _, r := range results {
		if r == nil || !r.IsSQLi {
			continue
		}
		details := SuspiciousValueDetails{
			ParamName:   r.ParamName,
			ParamValue:  logging.TruncateString(fmt.Sprint(r.ParamValue), 200),
			Fingerprint: r.Fingerprint,
			Operation:   operation,
		}
		event := a.event(ctx, EventSuspiciousValue, connectionID, "critical", details)

		a.logger.Error("Injection pattern in bound value",
			zap.String("event_json", marshal(event)),
			zap.String("connection_id", connectionID),
			zap.String("operation", operation),
			zap.String("param_name", r.ParamName),
			zap.String("fingerprint", r.Fingerprint),
			zap.String("user_id", event.UserID),
			zap.String("severity", event.Severity),
		)
		logged++
	}
	return logged
}

// LogAuthFailure records a request rejected by the auth middleware.
func (a *SecurityAuditor) LogAuthFailure(r *http.Request, reason string) {
	event := a.event(r.Context(), EventAuthFailure, "", "warning", map[string]string{
		"reason": reason,
		"path":   r.URL.Path,
		"method": r.Method,
	})
	event.ClientIP = r.RemoteAddr

	a.logger.Warn("Authentication failed",
		zap.String("event_json", marshal(event)),
		zap.String("path", r.URL.Path),
		zap.String("reason", reason),
		zap.String("client_ip", r.RemoteAddr),
		zap.String("severity", event.Severity),
	)
}

func (a *SecurityAuditor) event(ctx context.Context, kind SecurityEventType, connectionID, severity string, details any) SecurityEvent {
	return SecurityEvent{
		Timestamp:    time.Now().UTC(),
		EventType:    kind,
		ConnectionID: connectionID,
		UserID:       auth.GetUserIDFromContext(ctx),
		Details:      details,
		Severity:     severity,
	}
}

func marshal(event SecurityEvent) string {
	// Known types only; Marshal cannot fail here.
	b, _ := json.Marshal(event)
	return string(b)
}

var _ auth.FailureRecorder = (*SecurityAuditor)(nil)
