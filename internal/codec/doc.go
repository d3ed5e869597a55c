// Package codec is the single encoding used by crew-alert: deterministic CBOR
// for persisted snapshots and for gRPC messages.
//
// Importing the package registers a gRPC codec under the "cbor" content
// subtype. Protobuf messages (the standard health service) passed through that
// codec are still encoded as protobuf.
package codec
