// Package crew contains the core domain types of the fire-station roster:
// crew members and their rank, vehicles, registration requests, alert tickets
// and audit log entries, plus the error kinds every engine operation reports.
//
// Types carry Clone helpers so the engine never leaks references to the
// collections it owns.
package crew
