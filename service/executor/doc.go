// Package executor bridges service states with the backing implementation of
// actions. It looks up the registered service, decodes the declarative input
// into the method's typed input and invokes the method.
package executor
