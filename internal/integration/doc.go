// Package integration runs crew-server, its client and crew-checker together
// over real TCP connections.
package integration
