// Package engine is the Registration & Alert Dispatch Engine: the single
// entry point that owns the directory, the registration queue, the ticket
// dispatcher and the audit log.
//
// Every command takes the caller's crew.Identity and checks its role first.
// Mutations run under one write lock, append exactly one audit entry and hand
// a snapshot to an asynchronous persister; failed commands change nothing.
// Ticket notifications are queued to the delivery pool after the lock is
// released.
package engine
