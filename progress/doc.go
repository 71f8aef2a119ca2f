// Package progress keeps per-run counters of a machine: states entered and
// left, handled events, faults and executed actions. A tracker is a
// lifecycle listener and travels in the machine context so that actions can
// report through UpdateCtx.
package progress
