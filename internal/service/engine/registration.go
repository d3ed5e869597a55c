package engine

import (
	"context"
	"fmt"

	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
	"github.com/oshokin/crew-alert/internal/service/registration"
)

// SubmitRegistration files a request to join the roster. Any role may apply.
func (e *Engine) SubmitRegistration(
	ctx context.Context,
	who crew.Identity,
	firstName, lastName string,
) (*crew.RegistrationRequest, error) {
	if err := who.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	request, err := e.queue.Submit(firstName, lastName)
	if err != nil {
		return nil, err
	}

	e.commit(ctx, fmt.Sprintf("Registration request %s submitted: %s", request.ID, request.FullName()))
	logger.InfoKV(ctx, "Registration submitted", "request_id", request.ID, "name", request.FullName())

	return request, nil
}

// ListPending returns pending requests, oldest first.
func (e *Engine) ListPending(_ context.Context, who crew.Identity) ([]crew.RegistrationRequest, error) {
	if err := requireSupervisor(who, "list pending registrations"); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.queue.Pending(), nil
}

// Accept turns a pending request into an unassigned crew member of the given rank.
func (e *Engine) Accept(
	ctx context.Context,
	who crew.Identity,
	requestID crew.RequestID,
	rank crew.Rank,
) (*crew.CrewMember, error) {
	if err := requireSupervisor(who, "accept registrations"); err != nil {
		return nil, err
	}

	if err := registration.ValidateID(requestID); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	member, err := e.queue.Accept(requestID, rank, e.directory)
	if err != nil {
		return nil, err
	}

	e.commit(ctx, fmt.Sprintf("Registration %s accepted by %s: member #%d %s (%s)",
		requestID, actorName(who), member.ID, member.FullName, member.Rank))
	logger.InfoKV(ctx, "Registration accepted", "request_id", requestID, "member_id", member.ID, "rank", member.Rank)

	return member, nil
}

// Reject discards a pending request and returns it.
func (e *Engine) Reject(
	ctx context.Context,
	who crew.Identity,
	requestID crew.RequestID,
) (*crew.RegistrationRequest, error) {
	if err := requireSupervisor(who, "reject registrations"); err != nil {
		return nil, err
	}

	if err := registration.ValidateID(requestID); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	request, err := e.queue.Reject(requestID)
	if err != nil {
		return nil, err
	}

	e.commit(ctx, fmt.Sprintf("Registration %s rejected by %s: %s", requestID, actorName(who), request.FullName()))
	logger.InfoKV(ctx, "Registration rejected", "request_id", requestID)

	return request, nil
}
