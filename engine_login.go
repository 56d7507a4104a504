package tasknest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tasknest/tasknest/internal"
	"github.com/tasknest/tasknest/session"
	"github.com/tasknest/tasknest/validate"
)

// Login resolves the identifier against the email or username column,
// verifies the password, and issues a session. The returned session's
// SessionID is the opaque token handed to the client.
//
// Identifier resolution is a heuristic: an email-shaped loginID is looked up
// by email, everything else by username. Unknown identifiers fail with
// [ErrNotFound], wrong passwords with [ErrMismatch]; the two are distinct
// internally even when callers present them identically.
func (e *Engine) Login(ctx context.Context, loginID, plaintext string) (*session.Session, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	if err := validate.Login(loginID, plaintext); err != nil {
		return nil, err
	}

	var (
		user UserRecord
		err  error
	)
	if validate.IsEmailLike(loginID) {
		user, err = e.users.FindByEmail(ctx, loginID)
	} else {
		user, err = e.users.FindByUsername(ctx, loginID)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricLoginFailure)
			e.auditEmit(ctx, auditLogin, loginID, "", false, "user not found")
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUsersUnavailable, err)
	}

	ok, err := e.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.auditEmit(ctx, auditLogin, user.Username, "", false, "password mismatch")
		return nil, ErrMismatch
	}

	sess, err := e.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.auditEmit(ctx, auditLogin, user.Username, sess.SessionID, true, "")

	return sess, nil
}

func (e *Engine) issueSession(ctx context.Context, user UserRecord) (*session.Session, error) {
	token, err := internal.NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now()
	sess := &session.Session{
		SessionID:     token.String(),
		Authenticated: true,
		UserID:        user.UserID,
		Username:      user.Username,
		Email:         user.Email,
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(e.config.Session.TTL).Unix(),
		SchemaVersion: session.CurrentSchemaVersion,
	}

	if err := e.sessions.Save(ctx, sess, e.config.Session.TTL); err != nil {
		return nil, err
	}

	e.metricInc(MetricSessionCreated)
	return sess, nil
}
