// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with console or JSON encoding,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level and format parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// The engine, the transport and the binaries accept a context and extract the
// logger from it, so every log line carries the component name that produced it.
package logger
