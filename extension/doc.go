// Package extension provides the run-time registry of action services that
// service states invoke by name.
//
// The registry is normally populated through the public APIs under the root
// fluxchart package, therefore most applications do not need to import this
// package directly.
package extension
