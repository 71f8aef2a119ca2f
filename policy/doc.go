// Package policy decides whether an action may run. A policy travels with
// the machine context and is consulted by the executor before every call.
package policy
