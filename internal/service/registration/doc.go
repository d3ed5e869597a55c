// Package registration implements the queue of pending registration requests
// and their one-shot resolution into crew members.
package registration
