// Package checker implements crew-checker, the crew member's alert watcher.
//
// It keeps a Watch stream open for one member, rings the terminal bell and
// logs every ticket it receives, and reconnects after transient failures.
package checker
