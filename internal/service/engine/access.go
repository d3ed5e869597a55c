package engine

import (
	"context"
	"fmt"

	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
)

// Login maps an access code to a role and records the login.
func (e *Engine) Login(ctx context.Context, code string) (crew.Role, error) {
	if e.authenticate == nil {
		return "", errLoginDisabled
	}

	role, err := e.authenticate.Login(code)
	if err != nil {
		logger.WarnKV(ctx, "Login refused", "error", err)

		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.commit(ctx, fmt.Sprintf("Login as %s", role))
	logger.InfoKV(ctx, "Login", "role", role)

	return role, nil
}

// ListLog returns audit entries, newest first.
func (e *Engine) ListLog(_ context.Context, who crew.Identity) ([]crew.LogEntry, error) {
	if err := requireSupervisor(who, "read the audit log"); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.audit.Entries(), nil
}
