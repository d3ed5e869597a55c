// Package dispatch creates alert tickets and hands them to the delivery pool.
//
// A ticket freezes the crew of its vehicle at send time. Delivery happens in
// two steps: Send records the ticket (under the engine lock) and Deliver queues
// the notifications (after the lock is released). Delivery outcomes come back
// through Record and are counted per ticket.
package dispatch
