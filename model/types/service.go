package types

// Service is a named set of methods that chart actions can invoke
type Service interface {
	Name() string
	Methods() Signatures
	Method(name string) (Executable, error)
}
