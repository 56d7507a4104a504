package tasknest

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tasknest/tasknest/internal"
	"github.com/tasknest/tasknest/password"
	"github.com/tasknest/tasknest/session"
)

// Engine orchestrates registration, login, session issuance, and logout. It
// is safe for concurrent use; per-request state lives entirely in the durable
// stores.
type Engine struct {
	config   Config
	users    UserStore
	sessions *session.Store
	hasher   *password.Hasher
	audit    *auditDispatcher
	metrics  *Metrics
}

// Close drains and stops the audit dispatcher. The engine must not be used
// afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Sessions exposes the underlying session store for operational tooling.
func (e *Engine) Sessions() *session.Store {
	return e.sessions
}

// SessionTTL returns the configured session lifetime.
func (e *Engine) SessionTTL() time.Duration {
	return e.config.Session.TTL
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Authenticate is the guard primitive: it resolves an opaque session token to
// an authenticated session. It fails with [ErrUnauthenticated] when the token
// is absent, malformed, unknown, expired, or carries incomplete claims.
func (e *Engine) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	if token == "" {
		return nil, ErrUnauthenticated
	}
	if _, err := internal.ParseSessionToken(token); err != nil {
		return nil, ErrUnauthenticated
	}

	sess, err := e.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	// An authenticated session must carry complete claims.
	if !sess.Authenticated || sess.UserID == "" || sess.Username == "" {
		return nil, ErrUnauthenticated
	}

	return sess, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n uint64) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Add(id, n)
}
