package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/oshokin/crew-alert/internal/config"
	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
	"github.com/oshokin/crew-alert/internal/service/common"
)

// Options controls the checker behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// MemberID is the crew member whose alerts are watched.
	MemberID uint64
	// RetryInterval is the delay before reconnecting after a failure.
	RetryInterval time.Duration
	// Debug enables debug logging for this process.
	Debug bool
	// Out receives the bell and alert lines. Defaults to stdout.
	Out io.Writer
}

// DefaultRetryInterval is the reconnect delay when none is configured.
const DefaultRetryInterval = 5 * time.Second

// bell rings the terminal.
const bell = "\a"

// ticketStream yields tickets until it fails.
type ticketStream interface {
	Next() (*crew.Ticket, error)
}

// watchFunc opens a new ticket stream.
type watchFunc func(ctx context.Context) (ticketStream, error)

// Run watches alerts for a crew member until the context is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err = logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	if opts.Debug {
		ctx = logger.ToContext(ctx, logger.Logger().WithOptions(logger.WithLevel(zapcore.DebugLevel)))
	}

	ctx = logger.WithName(ctx, "crew-checker")

	if opts.MemberID == 0 {
		return fmt.Errorf("%w: member id is required", crew.ErrInvalidInput)
	}

	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	// Determine server address: command line argument overrides config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	// Ensure connection cleanup on function exit.
	defer func() {
		_ = client.Close()
	}()

	memberID := crew.MemberID(opts.MemberID)
	who := crew.Member(memberID)
	ctx = logger.WithKV(ctx, "member_id", memberID)

	logger.InfoKV(ctx, "Watching alerts", "server_address", serverAddress, "retry_interval", opts.RetryInterval.String())

	watch := func(ctx context.Context) (ticketStream, error) {
		return client.Watch(ctx, who, memberID)
	}

	return watchLoop(ctx, watch, opts.RetryInterval, func(ticket *crew.Ticket) {
		alert(ctx, out, ticket)
	})
}

// watchLoop keeps a stream open and passes every ticket to onTicket. It
// returns nil on cancellation and the error for failures a retry cannot fix.
func watchLoop(ctx context.Context, watch watchFunc, retry time.Duration, onTicket func(*crew.Ticket)) error {
	for {
		err := consume(ctx, watch, onTicket)

		switch {
		case ctx.Err() != nil:
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case permanent(err):
			return err
		}

		logger.WarnKV(ctx, "Watch interrupted, reconnecting", "error", err, "retry_in", retry.String())

		timer := time.NewTimer(retry)

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-timer.C:
		}
	}
}

func consume(ctx context.Context, watch watchFunc, onTicket func(*crew.Ticket)) error {
	stream, err := watch(ctx)
	if err != nil {
		return err
	}

	logger.Debug(ctx, "Subscription confirmed")

	for {
		ticket, err := stream.Next()
		if err != nil {
			return err
		}

		onTicket(ticket)
	}
}

// permanent reports errors that reconnecting cannot resolve.
func permanent(err error) bool {
	return errors.Is(err, crew.ErrForbidden) ||
		errors.Is(err, crew.ErrNotFound) ||
		errors.Is(err, crew.ErrInvalidInput)
}

// alert rings the bell and prints and logs the ticket.
func alert(ctx context.Context, out io.Writer, ticket *crew.Ticket) {
	_, _ = fmt.Fprintf(out, "%s[%s] %s: %s (from %s)\n",
		bell, ticket.CreatedAt.Local().Format(time.TimeOnly), ticket.VehicleName,
		strings.TrimSpace(ticket.Message), ticket.Sender)

	logger.WarnKV(ctx, "Alert received",
		"ticket_id", ticket.ID,
		"vehicle", ticket.VehicleName,
		"sender", ticket.Sender,
		"message", ticket.Message)
}
