// Package dispatcher hosts the single worker that executes machine tasks one
// at a time in submission order. Producers on any goroutine submit tasks to
// an unbounded queue and never block; the worker consumes them sequentially
// so that no two tasks of one dispatcher ever overlap.
package dispatcher
