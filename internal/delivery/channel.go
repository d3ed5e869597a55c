package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
)

// Channel informs a single recipient about a ticket.
type Channel interface {
	Notify(ctx context.Context, recipient crew.MemberID, ticket *crew.Ticket) error
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc func(ctx context.Context, recipient crew.MemberID, ticket *crew.Ticket) error

// Notify calls f.
func (f ChannelFunc) Notify(ctx context.Context, recipient crew.MemberID, ticket *crew.Ticket) error {
	return f(ctx, recipient, ticket)
}

// LogChannel writes every alert to the log. It never fails.
type LogChannel struct{}

// Notify logs the alert at warning level so it stands out in the server output.
func (LogChannel) Notify(ctx context.Context, recipient crew.MemberID, ticket *crew.Ticket) error {
	logger.WarnKV(ctx, "Alert",
		"recipient", recipient,
		"ticket_id", ticket.ID,
		"vehicle", ticket.VehicleName,
		"message", ticket.Message,
	)

	return nil
}

// multiChannel notifies through several channels.
type multiChannel []Channel

// Multi returns a channel that notifies through every given channel.
// The notification fails if any channel fails; all channels are always tried.
//
//nolint:ireturn // Callers only need the Channel behaviour.
func Multi(channels ...Channel) Channel {
	if len(channels) == 1 {
		return channels[0]
	}

	return multiChannel(channels)
}

// Notify calls every channel and joins their errors.
func (m multiChannel) Notify(ctx context.Context, recipient crew.MemberID, ticket *crew.Ticket) error {
	var errs []error

	for i, channel := range m {
		if err := channel.Notify(ctx, recipient, ticket); err != nil {
			errs = append(errs, fmt.Errorf("channel %d: %w", i, err))
		}
	}

	return errors.Join(errs...)
}
