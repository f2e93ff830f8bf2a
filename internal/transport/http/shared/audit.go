package shared

import (
	"context"
	"log/slog"
	"net/http"

	"feedback360/internal/requestctx"
)

type Auditor interface {
	Record(ctx context.Context, actorID int64, action, entityType, entityID, requestID, ip string, before, after any) error
}

// RecordAudit writes an audit event for the request. Failures are logged and
// never fail the request.
func RecordAudit(r *http.Request, auditor Auditor, actorID int64, action, entityType, entityID string, before, after any) {
	if auditor == nil {
		return
	}
	ctx := r.Context()
	ip := requestctx.ClientIP(ctx)
	if ip == "" {
		ip = r.RemoteAddr
	}
	if err := auditor.Record(ctx, actorID, action, entityType, entityID, requestctx.GetRequestID(ctx), ip, before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
