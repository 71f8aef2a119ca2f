// Package idgen issues machine ids and execution tags. Callers treat the
// values as opaque strings.
package idgen
