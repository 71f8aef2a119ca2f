// Package clock provides the time source used to stamp lifecycle events and
// operation transitions.
package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Since returns the elapsed time from t according to NowFunc.
func Since(t time.Time) time.Duration { return NowFunc().Sub(t) }
