// Package common holds helpers shared by several services.
//
// It provides a gRPC client for crew-server with per-call timeouts that
// returns domain types and domain errors, and a helper to derive a display
// name for the current operator from the host and user.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
