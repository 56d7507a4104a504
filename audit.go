package tasknest

import (
	"context"
	"time"

	internalaudit "github.com/tasknest/tasknest/internal/audit"
)

// Audit event types emitted by the engine.
const (
	auditRegister  = "register"
	auditLogin     = "login"
	auditLogout    = "logout"
	auditLogoutAll = "logout_all"
)

// auditDispatcher wraps the internal dispatcher so engine call sites stay
// one-liners. A nil dispatcher (auditing disabled) is a valid no-op receiver.
type auditDispatcher struct {
	d *internalaudit.Dispatcher
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	return &auditDispatcher{
		d: internalaudit.NewDispatcher(internalaudit.Config{
			BufferSize: cfg.BufferSize,
			DropIfFull: cfg.DropIfFull,
		}, sink),
	}
}

func (a *auditDispatcher) Emit(ctx context.Context, event internalaudit.Event) {
	if a == nil {
		return
	}
	a.d.Emit(ctx, event)
}

func (a *auditDispatcher) Close() {
	if a == nil {
		return
	}
	a.d.Close()
}

func (a *auditDispatcher) Dropped() uint64 {
	if a == nil {
		return 0
	}
	return a.d.Dropped()
}

func (e *Engine) auditEmit(ctx context.Context, eventType, username, sessionID string, success bool, errMsg string) {
	e.auditEmitMeta(ctx, eventType, username, sessionID, success, errMsg, nil)
}

func (e *Engine) auditEmitMeta(ctx context.Context, eventType, username, sessionID string, success bool, errMsg string, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	e.audit.Emit(ctx, internalaudit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		Username:  username,
		SessionID: sessionID,
		Success:   success,
		Error:     errMsg,
		Metadata:  metadata,
	})
}
