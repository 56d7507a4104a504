package tasknest

import (
	"context"
	"errors"
	"fmt"

	"github.com/tasknest/tasknest/validate"
)

// Register validates the request, hashes the password, and creates the user.
// Any validation failure or uniqueness collision short-circuits with no
// persistence.
//
// The two existence pre-checks are advisory only: they give duplicate
// registrations a field-attributed error without a round trip through the
// insert, but concurrent registrations race between check and insert. The
// store's unique constraints decide the race; the losing writer gets
// [ErrDuplicateKey] from Create.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (UserRecord, error) {
	if e == nil || e.users == nil {
		return UserRecord{}, ErrEngineNotReady
	}

	if err := validate.Registration(req.Name, req.Email, req.Username, req.Password); err != nil {
		return UserRecord{}, err
	}

	if err := e.checkAvailable(ctx, req); err != nil {
		return UserRecord{}, err
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return UserRecord{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := e.users.Create(ctx, CreateUserInput{
		Name:         req.Name,
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			e.metricInc(MetricRegisterDuplicate)
			e.auditEmit(ctx, auditRegister, req.Username, "", false, err.Error())
			return UserRecord{}, err
		}
		return UserRecord{}, fmt.Errorf("%w: %v", ErrUsersUnavailable, err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.auditEmit(ctx, auditRegister, user.Username, "", true, "")

	return user, nil
}

func (e *Engine) checkAvailable(ctx context.Context, req RegisterRequest) error {
	if _, err := e.users.FindByEmail(ctx, req.Email); err == nil {
		e.metricInc(MetricRegisterDuplicate)
		e.auditEmit(ctx, auditRegister, req.Username, "", false, "email already exists")
		return &DuplicateKeyError{Field: "email"}
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrUsersUnavailable, err)
	}

	if _, err := e.users.FindByUsername(ctx, req.Username); err == nil {
		e.metricInc(MetricRegisterDuplicate)
		e.auditEmit(ctx, auditRegister, req.Username, "", false, "username already exists")
		return &DuplicateKeyError{Field: "username"}
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrUsersUnavailable, err)
	}

	return nil
}
