// Package push maintains the websocket channel carrying live service
// status from the control tower.
//
// # Overview
//
// The Manager owns one logical connection: it dials, heartbeats,
// reconnects on a fixed delay after failures, and decodes inbound frames
// into the canonical tower.ServiceStatus type. Decoded messages are
// handed to an Applier (the live store) in transport-delivery order.
//
// # State Machine
//
//	DISCONNECTED --Connect()--> CONNECTING --handshake ok--> CONNECTED
//	     ^                          |                            |
//	     |                    dial failure                 read failure
//	     |                          v                            v
//	     +-----Disconnect()------ ERROR <------------------------+
//	                                |
//	                    one timer, fixed delay, capped
//	                                v
//	                           CONNECTING
//
// After MaxReconnectAttempts consecutive failures the manager stays in
// ERROR until Connect is called again. Disconnect is reachable from any
// state; it synchronously cancels the pending reconnect timer, closes
// the transport, and resets the attempt counter.
//
// # Wire Protocol
//
// Inbound frames are JSON envelopes:
//
//	{"type": "SNAPSHOT" | "UPDATE" | "ERROR", "data": ..., "timestamp": "..."}
//
// SNAPSHOT carries the full collection, UPDATE exactly one entity, ERROR
// a diagnostic string. Entities arrive in the tower's legacy abbreviated
// shape (wire.go); the adapter lives here and nowhere else. Malformed
// frames are recorded as the channel's last error and dropped without
// touching the connection or the collection.
//
// The only outbound frame is {"type": "REFRESH_REQUEST", "timestamp"},
// which asks the tower to push a fresh snapshot.
//
// # Fan-out
//
// Subscribe returns an explicit Subscription handle. Delivery iterates a
// snapshot of the subscriber list, skipping handles cancelled mid-
// delivery, so Cancel is safe at any time, including from inside a
// callback.
package push
