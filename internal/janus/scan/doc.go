// Package scan bridges a continuous decode stream to single-flight
// validation.
//
// A Controller owns the station Session.  The first non-empty code it sees
// closes the gate (Idle -> Locked); every code that arrives while the gate
// is closed is dropped, never queued.  The gate reopens a fixed display
// window after the Result is produced.  A capture failure moves the station
// to Unavailable, which is terminal.
package scan
