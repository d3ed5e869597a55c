package registration

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// MemberCreator turns an accepted request into a crew member.
// directory.Directory satisfies it.
type MemberCreator interface {
	CreateMember(fullName string, rank crew.Rank, registeredAt time.Time) *crew.CrewMember
}

// Queue holds pending requests in submission order and remembers every
// resolved request id so a second resolution is reported as such.
// A Queue is not safe for concurrent use.
type Queue struct {
	// pending holds unresolved requests, oldest first.
	pending []*crew.RegistrationRequest
	// resolved maps every resolved request id to its resolution.
	resolved map[crew.RequestID]crew.Resolution
	// newID generates request ids.
	newID func() crew.RequestID
	// now returns the current time.
	now func() time.Time
}

// Option configures a Queue.
type Option func(*Queue)

// WithIDGenerator overrides the UUID request id generator.
func WithIDGenerator(fn func() crew.RequestID) Option {
	return func(q *Queue) {
		if fn != nil {
			q.newID = fn
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// NewQueue creates an empty queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		resolved: make(map[crew.RequestID]crew.Resolution),
		newID: func() crew.RequestID {
			return crew.RequestID(uuid.NewString())
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Restore replaces the queue content with state loaded from a store.
func (q *Queue) Restore(pending []crew.RegistrationRequest, resolutions []crew.Resolution) {
	q.pending = make([]*crew.RegistrationRequest, 0, len(pending))
	for i := range pending {
		q.pending = append(q.pending, pending[i].Clone())
	}

	q.resolved = make(map[crew.RequestID]crew.Resolution, len(resolutions))
	for _, r := range resolutions {
		q.resolved[r.RequestID] = r
	}
}

// Submit validates the names and appends a new pending request.
func (q *Queue) Submit(firstName, lastName string) (*crew.RegistrationRequest, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	if firstName == "" || lastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", crew.ErrInvalidInput)
	}

	request := &crew.RegistrationRequest{
		ID:          q.newID(),
		FirstName:   firstName,
		LastName:    lastName,
		SubmittedAt: q.now(),
	}

	q.pending = append(q.pending, request)

	return request.Clone(), nil
}

// Accept resolves a pending request into a new crew member with the given rank.
func (q *Queue) Accept(id crew.RequestID, rank crew.Rank, creator MemberCreator) (*crew.CrewMember, error) {
	if !rank.Valid() {
		return nil, fmt.Errorf("%w: rank %d", crew.ErrInvalidInput, int8(rank))
	}

	index, err := q.lookup(id)
	if err != nil {
		return nil, err
	}

	request := q.pending[index]
	now := q.now()
	member := creator.CreateMember(request.FullName(), rank, now)

	q.remove(index, crew.Resolution{
		RequestID:  request.ID,
		Outcome:    crew.OutcomeAccepted,
		ResolvedAt: now,
		MemberID:   member.ID,
	})

	return member, nil
}

// Reject resolves a pending request without creating a member and returns it.
func (q *Queue) Reject(id crew.RequestID) (*crew.RegistrationRequest, error) {
	index, err := q.lookup(id)
	if err != nil {
		return nil, err
	}

	request := q.pending[index]

	q.remove(index, crew.Resolution{
		RequestID:  request.ID,
		Outcome:    crew.OutcomeRejected,
		ResolvedAt: q.now(),
	})

	return request, nil
}

// lookup finds a pending request by id.
func (q *Queue) lookup(id crew.RequestID) (int, error) {
	if err := ValidateID(id); err != nil {
		return 0, err
	}

	if resolution, ok := q.resolved[id]; ok {
		return 0, fmt.Errorf("%w: request %s was %s", crew.ErrAlreadyResolved, id, resolution.Outcome)
	}

	index := slices.IndexFunc(q.pending, func(r *crew.RegistrationRequest) bool {
		return r.ID == id
	})
	if index < 0 {
		return 0, fmt.Errorf("%w: request %s", crew.ErrNotFound, id)
	}

	return index, nil
}

// remove drops a pending request and records its resolution.
func (q *Queue) remove(index int, resolution crew.Resolution) {
	q.pending = slices.Delete(q.pending, index, index+1)
	q.resolved[resolution.RequestID] = resolution
}

// Pending returns copies of pending requests, oldest first.
func (q *Queue) Pending() []crew.RegistrationRequest {
	result := make([]crew.RegistrationRequest, 0, len(q.pending))
	for _, r := range q.pending {
		result = append(result, *r)
	}

	return result
}

// Resolutions returns every recorded resolution ordered by resolution time.
func (q *Queue) Resolutions() []crew.Resolution {
	result := make([]crew.Resolution, 0, len(q.resolved))
	for _, r := range q.resolved {
		result = append(result, r)
	}

	slices.SortFunc(result, func(a, b crew.Resolution) int {
		if c := a.ResolvedAt.Compare(b.ResolvedAt); c != 0 {
			return c
		}

		return strings.Compare(string(a.RequestID), string(b.RequestID))
	})

	return result
}

// ValidateID checks that id is a well-formed UUID.
func ValidateID(id crew.RequestID) error {
	if _, err := uuid.Parse(string(id)); err != nil {
		return fmt.Errorf("%w: malformed request id %q", crew.ErrInvalidInput, id)
	}

	return nil
}
