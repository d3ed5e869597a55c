// Package server runs crew-server: it loads settings, opens the configured
// store, builds the engine with its delivery channels and serves CrewService
// and the standard health service over gRPC until the context is canceled.
package server
