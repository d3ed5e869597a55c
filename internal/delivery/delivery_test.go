package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/crew-alert/internal/domain/crew"
)

var errTestUnreachable = errors.New("pager unreachable")

// resultRecorder collects pool results.
type resultRecorder struct {
	mu      sync.Mutex
	results []Result
}

// record stores a result.
func (r *resultRecorder) record(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results = append(r.results, res)
}

// snapshot returns a copy of the recorded results.
func (r *resultRecorder) snapshot() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Result(nil), r.results...)
}

func testTicket(id crew.TicketID, recipients ...crew.MemberID) *crew.Ticket {
	return &crew.Ticket{
		ID:           id,
		VehicleID:    1,
		VehicleName:  "VL - 12A",
		Message:      "Structure fire",
		RecipientIDs: recipients,
	}
}

// TestHub_SubscribeNotifyCancel verifies fan-out to every subscription of a member.
func TestHub_SubscribeNotifyCancel(t *testing.T) {
	t.Parallel()

	h := NewHub(1)

	err := h.Notify(context.Background(), 1, testTicket(1, 1))
	require.ErrorIs(t, err, ErrNoSubscriber)

	first, cancelFirst := h.Subscribe(1)
	second, cancelSecond := h.Subscribe(1)
	require.Equal(t, 2, h.Subscribers(1))

	require.NoError(t, h.Notify(context.Background(), 1, testTicket(1, 1)))
	require.Equal(t, crew.TicketID(1), (<-first).ID)
	require.Equal(t, crew.TicketID(1), (<-second).ID)

	// Fill both buffers, then the next notification is reported busy.
	require.NoError(t, h.Notify(context.Background(), 1, testTicket(2, 1)))
	require.ErrorIs(t, h.Notify(context.Background(), 1, testTicket(3, 1)), ErrSubscriberBusy)

	cancelFirst()
	cancelFirst()
	require.Equal(t, 1, h.Subscribers(1))

	_, open := <-first
	require.True(t, open, "buffered ticket is still readable")

	_, open = <-first
	require.False(t, open)

	cancelSecond()
	require.Equal(t, 0, h.Subscribers(1))
}

// TestHub_CloseEndsSubscriptions verifies Close ends open watches and refuses new ones.
func TestHub_CloseEndsSubscriptions(t *testing.T) {
	t.Parallel()

	h := NewHub(1)
	first, cancelFirst := h.Subscribe(1)
	second, cancelSecond := h.Subscribe(2)

	require.NoError(t, h.Notify(context.Background(), 1, testTicket(1, 1)))

	h.Close()
	h.Close()

	require.Equal(t, 0, h.Subscribers(1))
	require.Equal(t, crew.TicketID(1), (<-first).ID, "buffered ticket is still readable")

	_, open := <-first
	require.False(t, open)

	_, open = <-second
	require.False(t, open)

	// Cancelling after Close must not close the channels again.
	require.NotPanics(t, cancelFirst)
	require.NotPanics(t, cancelSecond)

	late, cancelLate := h.Subscribe(1)
	_, open = <-late
	require.False(t, open)
	require.NotPanics(t, cancelLate)
	require.Equal(t, 0, h.Subscribers(1))

	require.ErrorIs(t, h.Notify(context.Background(), 1, testTicket(2, 1)), ErrNoSubscriber)
}

// TestHub_NotifyClonesTicket verifies subscribers cannot alter each other's copy.
func TestHub_NotifyClonesTicket(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	tickets, cancel := h.Subscribe(3)

	defer cancel()

	original := testTicket(1, 3)
	require.NoError(t, h.Notify(context.Background(), 3, original))

	got := <-tickets
	got.RecipientIDs[0] = 99

	require.Equal(t, crew.MemberID(3), original.RecipientIDs[0])
}

// TestMulti_JoinsErrors verifies every channel is tried and errors are joined.
func TestMulti_JoinsErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	ok := ChannelFunc(func(context.Context, crew.MemberID, *crew.Ticket) error {
		calls++

		return nil
	})
	failing := ChannelFunc(func(context.Context, crew.MemberID, *crew.Ticket) error {
		calls++

		return errTestUnreachable
	})

	require.NoError(t, Multi(ok, LogChannel{}).Notify(context.Background(), 1, testTicket(1, 1)))

	err := Multi(failing, ok).Notify(context.Background(), 1, testTicket(1, 1))
	require.ErrorIs(t, err, errTestUnreachable)
	require.Equal(t, 3, calls)

	single := Multi(ok)
	require.NoError(t, single.Notify(context.Background(), 1, testTicket(1, 1)))
}

// TestPool_DeliversAndReportsFailures verifies one failing recipient does not affect the others.
func TestPool_DeliversAndReportsFailures(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		notified []crew.MemberID
	)

	channel := ChannelFunc(func(_ context.Context, recipient crew.MemberID, _ *crew.Ticket) error {
		if recipient == 2 {
			return errTestUnreachable
		}

		mu.Lock()
		notified = append(notified, recipient)
		mu.Unlock()

		return nil
	})

	recorder := new(resultRecorder)
	p := NewPool(context.Background(), channel, WithWorkers(3), WithResultHandler(recorder.record))

	p.Dispatch(testTicket(7, 1, 2, 3))
	p.Close()

	require.ElementsMatch(t, []crew.MemberID{1, 3}, notified)

	results := recorder.snapshot()
	require.Len(t, results, 3)

	failed := 0

	for _, r := range results {
		require.Equal(t, crew.TicketID(7), r.TicketID)

		if r.Err != nil {
			failed++

			require.Equal(t, crew.MemberID(2), r.Recipient)
		}
	}

	require.Equal(t, 1, failed)
}

// TestPool_DropsWhenQueueFull verifies Dispatch never blocks on a saturated pool.
func TestPool_DropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	release := make(chan struct{})

	channel := ChannelFunc(func(context.Context, crew.MemberID, *crew.Ticket) error {
		started <- struct{}{}
		<-release

		return nil
	})

	recorder := new(resultRecorder)
	p := NewPool(context.Background(), channel,
		WithWorkers(1),
		WithQueueSize(1),
		WithResultHandler(recorder.record),
	)

	p.Dispatch(testTicket(1, 1))
	<-started

	done := make(chan struct{})

	go func() {
		p.Dispatch(testTicket(2, 2, 3))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}

	dropped := recorder.snapshot()
	require.Len(t, dropped, 1)
	require.ErrorIs(t, dropped[0].Err, ErrQueueFull)
	require.Equal(t, crew.MemberID(3), dropped[0].Recipient)

	close(release)
	p.Close()

	require.Len(t, recorder.snapshot(), 3)
}

// TestPool_ClosedAndPanics verifies late dispatches and panicking channels are reported as failures.
func TestPool_ClosedAndPanics(t *testing.T) {
	t.Parallel()

	channel := ChannelFunc(func(context.Context, crew.MemberID, *crew.Ticket) error {
		panic("speaker unplugged")
	})

	recorder := new(resultRecorder)
	p := NewPool(context.Background(), channel, WithWorkers(1), WithResultHandler(recorder.record))

	p.Dispatch(testTicket(1, 1))
	p.Close()
	p.Close()
	p.Dispatch(testTicket(2, 2))

	results := recorder.snapshot()
	require.Len(t, results, 2)
	require.ErrorContains(t, results[0].Err, "panicked")
	require.ErrorIs(t, results[1].Err, ErrPoolClosed)
}

// TestPool_NotifyTimeout verifies a hung channel is cut off by the per-notification timeout.
func TestPool_NotifyTimeout(t *testing.T) {
	t.Parallel()

	channel := ChannelFunc(func(ctx context.Context, _ crew.MemberID, _ *crew.Ticket) error {
		<-ctx.Done()

		return ctx.Err()
	})

	recorder := new(resultRecorder)
	p := NewPool(context.Background(), channel,
		WithNotifyTimeout(10*time.Millisecond),
		WithResultHandler(recorder.record),
	)

	p.Dispatch(testTicket(1, 1))
	p.Close()

	results := recorder.snapshot()
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}
