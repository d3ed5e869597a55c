package server

import (
	"context"
	"fmt"

	"github.com/oshokin/crew-alert/internal/auth"
	"github.com/oshokin/crew-alert/internal/config"
	"github.com/oshokin/crew-alert/internal/delivery"
	"github.com/oshokin/crew-alert/internal/logger"
	"github.com/oshokin/crew-alert/internal/repository/state"
)

// openStore opens the repository selected by settings. The returned close
// function releases it.
func openStore(ctx context.Context, settings config.StoreConfig) (state.Repository, func() error, error) {
	switch settings.Driver {
	case config.StoreDriverSQLite:
		repo, err := state.OpenSQLite(ctx, settings.Path)
		if err != nil {
			return nil, nil, err
		}

		return repo, repo.Close, nil
	case config.StoreDriverFile, "":
		return state.NewFileRepository(settings.Path), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", settings.Driver)
	}
}

// buildAuthenticator parses the configured hashes. Missing hashes fall back
// to the station's default codes.
func buildAuthenticator(ctx context.Context, codes config.AccessCodes) (*auth.Authenticator, error) {
	supervisorHash, err := hashOrDefault(ctx, "supervisor", codes.Supervisor, config.DefaultSupervisorCode)
	if err != nil {
		return nil, err
	}

	crewMemberHash, err := hashOrDefault(ctx, "crew_member", codes.CrewMember, config.DefaultCrewMemberCode)
	if err != nil {
		return nil, err
	}

	authenticator, err := auth.New(supervisorHash, crewMemberHash)
	if err != nil {
		return nil, fmt.Errorf("access codes: %w", err)
	}

	return authenticator, nil
}

func hashOrDefault(ctx context.Context, name, configured, fallback string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	logger.WarnKV(ctx, "Access code not configured, using the default code", "role", name)

	hash, err := auth.HashCode(fallback, auth.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hash default %s code: %w", name, err)
	}

	return hash, nil
}

// buildChannel combines the configured delivery channels.
//
//nolint:ireturn // The engine only needs the Channel behaviour.
func buildChannel(names []string, hub *delivery.Hub) (delivery.Channel, error) {
	channels := make([]delivery.Channel, 0, len(names))

	for _, name := range names {
		switch name {
		case config.ChannelLog:
			channels = append(channels, delivery.LogChannel{})
		case config.ChannelStream:
			channels = append(channels, hub)
		default:
			return nil, fmt.Errorf("unknown delivery channel %q", name)
		}
	}

	return delivery.Multi(channels...), nil
}
