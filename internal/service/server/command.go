package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	ps "github.com/mitchellh/go-ps"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	api "github.com/oshokin/crew-alert/internal/api/grpc/crew"
	"github.com/oshokin/crew-alert/internal/config"
	"github.com/oshokin/crew-alert/internal/delivery"
	"github.com/oshokin/crew-alert/internal/logger"
	"github.com/oshokin/crew-alert/internal/service/engine"
	"github.com/oshokin/crew-alert/internal/version"
)

// Options controls the crew-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StorePath overrides the store path from settings.
	StorePath string
	// Ready, when set, receives the bound listen address once the server accepts connections.
	Ready func(addr net.Addr)
}

// shutdownGracePeriod bounds how long in-flight calls may delay shutdown.
const shutdownGracePeriod = 10 * time.Second

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the gRPC server and blocks until context is canceled or server stops.
// Loads configuration first, then determines listen address from config or override.
//
//nolint:funlen // Startup reads best as one sequence.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "crew-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Configure(settings.LogLevel, settings.LogFormat); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	if settings.SingleInstance {
		if err = ensureSingleInstance(ps.Processes, currentExecutable()); err != nil {
			return err
		}
	}

	if opts.StorePath != "" {
		settings.Store.Path = opts.StorePath
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	repo, closeStore, err := openStore(ctx, settings.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close store", "error", closeErr)
		}
	}()

	authenticator, err := buildAuthenticator(ctx, settings.AccessCodes)
	if err != nil {
		return err
	}

	hub := delivery.NewHub(delivery.DefaultSubscriptionBuffer)

	channel, err := buildChannel(settings.Delivery.Channels, hub)
	if err != nil {
		return err
	}

	eng, err := engine.New(ctx, repo,
		engine.WithFleet(settings.Fleet),
		engine.WithAuditCapacity(settings.AuditLogCapacity),
		engine.WithDemoCrew(settings.SeedDemoCrew),
		engine.WithAuthenticator(authenticator),
		engine.WithHub(hub),
		engine.WithChannel(channel),
		engine.WithPoolOptions(
			delivery.WithWorkers(settings.Delivery.Workers),
			delivery.WithQueueSize(settings.Delivery.QueueSize),
			delivery.WithNotifyTimeout(settings.Delivery.Timeout),
		),
	)
	if err != nil {
		return fmt.Errorf("initialise engine: %w", err)
	}

	// Flushes the last snapshot after the server stops.
	defer eng.Close()

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	// Create and configure gRPC server with crew and health services.
	grpcServer := grpc.NewServer()
	api.RegisterCrewServiceServer(grpcServer, api.NewServer(eng))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	logger.InfoKV(ctx, "Crew server listening",
		"version", version.Short(),
		"listen_address", lis.Addr().String(),
		"store", settings.Store.Driver,
		"store_path", settings.Store.Path,
		"channels", settings.Delivery.Channels)

	if opts.Ready != nil {
		opts.Ready(lis.Addr())
	}

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		healthServer.Shutdown()
		// Open Watch streams return once their subscriptions end.
		hub.Close()
		stopGracefully(ctx, grpcServer, shutdownGracePeriod)
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// stopGracefully waits for in-flight calls to finish and forces the server
// down when they take longer than grace.
func stopGracefully(ctx context.Context, srv *grpc.Server, grace time.Duration) {
	stopped := make(chan struct{})

	go func() {
		srv.GracefulStop()
		close(stopped)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-stopped:
	case <-timer.C:
		logger.WarnKV(ctx, "Graceful stop timed out, closing remaining connections", "grace", grace.String())
		srv.Stop()
		<-stopped
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	// Extract port from config address (e.g., "server.example.com:8080" -> ":8080").
	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
