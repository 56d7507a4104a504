package tasknest

import (
	"context"
	"errors"
	"strconv"
)

// Logout destroys the single session identified by token. Destroying a
// session that no longer exists is not an error.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if token == "" {
		return nil
	}

	existed, err := e.sessions.Delete(ctx, token)
	if err != nil {
		e.auditEmit(ctx, auditLogout, "", token, false, err.Error())
		return err
	}

	e.metricInc(MetricLogout)
	if existed {
		e.metricInc(MetricSessionDestroyed)
	}
	e.auditEmit(ctx, auditLogout, "", token, true, "")
	return nil
}

// LogoutAll destroys every persisted session whose claims carry the given
// username, including the caller's own, and returns the number destroyed.
// Sessions created by concurrent logins during the delete are not guaranteed
// to be captured; see the store documentation.
func (e *Engine) LogoutAll(ctx context.Context, username string) (int, error) {
	if e == nil || e.sessions == nil {
		return 0, ErrEngineNotReady
	}
	if username == "" {
		return 0, errors.New("username must not be empty")
	}

	count, err := e.sessions.DeleteAllForUsername(ctx, username)
	if err != nil {
		e.auditEmit(ctx, auditLogoutAll, username, "", false, err.Error())
		return 0, err
	}

	e.metricInc(MetricLogoutAll)
	e.metricAdd(MetricSessionDestroyed, uint64(count))
	e.auditEmitMeta(ctx, auditLogoutAll, username, "", true, "", map[string]string{
		"destroyed": strconv.Itoa(count),
	})
	return count, nil
}
