// Package console implements the crew-console commands.
//
// Each command dials crew-server, performs one CrewService call under the
// identity given by the --role, --member and --name flags, and prints the
// result as a table.
package console
