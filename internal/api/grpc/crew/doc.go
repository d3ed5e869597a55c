// Package crew implements the gRPC transport for the crew-alert engine.
//
// Messages are plain Go structs carried by the CBOR codec (content subtype
// "cbor"); the service descriptor is declared by hand in service.go. The
// Server adapts a business-service interface and maps domain errors to gRPC
// status codes; FromError maps them back on the client side.
package crew
