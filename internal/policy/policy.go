// Package policy enforces the notification gate: minimum spacing between
// notifications and the permitted time-of-day window. All functions here are
// pure over explicit inputs -- the caller injects "now" rather than this
// package reading a global clock -- so the gate is deterministic under test.
package policy

import (
	"time"

	"umbrella/internal/types"
)

// MinInterval is the minimum spacing between two notifications.
const MinInterval = time.Hour

// Decision explains the outcome of a gate evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allowed reports whether a notification may be sent at the given instant.
// The hour window test uses the wall-clock hour of now in its own location:
// start <= hour < end.
func Allowed(now time.Time, state types.NotificationState) bool {
	return Evaluate(now, state).Allowed
}

// Evaluate applies the gate checks in order of precedence and returns the
// first failing reason, or an allow decision.
//
//  1. Notifications disabled -> deny.
//  2. Current hour outside [WindowStartHour, WindowEndHour) -> deny.
//  3. Less than MinInterval since the last send -> deny.
func Evaluate(now time.Time, state types.NotificationState) Decision {
	if !state.Enabled {
		return Decision{Allowed: false, Reason: "notifications disabled"}
	}

	hour := now.Hour()
	if hour < state.WindowStartHour || hour >= state.WindowEndHour {
		return Decision{Allowed: false, Reason: "outside notification window"}
	}

	elapsed := now.UnixMilli() - state.LastSentAtMs
	if elapsed < MinInterval.Milliseconds() {
		return Decision{Allowed: false, Reason: "minimum spacing not elapsed"}
	}

	return Decision{Allowed: true, Reason: "all gate checks passed"}
}

// RecordSent returns the state with LastSentAtMs set to now. This is the
// only mutation path for that field; callers persist the returned state
// under the store's single-writer discipline.
func RecordSent(state types.NotificationState, now time.Time) types.NotificationState {
	state.LastSentAtMs = now.UnixMilli()
	return state
}
