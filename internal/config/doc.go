// Package config defines the settings used by the crew-alert binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Validate fills defaults for every optional field, including the station's
// two-vehicle fleet, so a file with only server_addr is a working setup.
package config
