package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/alecgard/pitchside/internal/auth"
)

// auditLog emits a structured audit log entry for a state-changing action.
func auditLog(r *http.Request, action string, resourceType string, resourceID string, detail ...any) {
	attrs := []any{
		"action", action,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"ip", clientIP(r),
		"request_id", RequestIDFromContext(r.Context()),
	}

	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		attrs = append(attrs, "subject", id.Principal.Subject, "role", id.Principal.Role, "profile_id", id.Profile.ID)
	}

	attrs = append(attrs, detail...)
	slog.Info("audit", attrs...)
}

// clientIP reads RemoteAddr, which RealIP has already rewritten when proxy
// headers are trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
