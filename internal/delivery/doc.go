// Package delivery notifies crew members about tickets.
//
// A Channel performs one best-effort notification. Pool runs notifications on
// a fixed set of workers so that a slow or failing channel never blocks the
// engine, and reports every outcome to a callback for bookkeeping. Hub is the
// channel used by connected crew members: each one subscribes with its member
// id and receives tickets on a buffered Go channel.
package delivery
