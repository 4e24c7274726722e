package ioc

import (
	"errors"
	"reflect"
	"strings"
)

var (
	// ErrUnregisteredContract is returned when no binding exists for the
	// requested contract or for one of its dependencies.
	ErrUnregisteredContract = errors.New("unregistered contract")

	// ErrDuplicateRegistration is returned when a contract is registered more
	// than once, regardless of lifetime.
	ErrDuplicateRegistration = errors.New("duplicate registration")

	// ErrNoConstructor is returned when the implementation passed at
	// registration is not a usable constructor function.
	ErrNoConstructor = errors.New("no constructor")

	// ErrAmbiguousConstructor is returned when the constructor's parameter
	// list cannot be mapped to a fixed set of contracts (variadic functions).
	ErrAmbiguousConstructor = errors.New("ambiguous constructor")

	// ErrIncompatibleImplementation is returned when the constructor's result
	// type cannot be assigned to the contract it is registered for.
	ErrIncompatibleImplementation = errors.New("incompatible implementation")

	// ErrCircularDependency is returned when resolution revisits a contract
	// that is already being resolved. The error message includes the cycle.
	ErrCircularDependency = errors.New("circular dependency detected")

	// ErrConstructionFailed is returned when a constructor or producer returns
	// an error or panics.
	ErrConstructionFailed = errors.New("construction failed")

	// ErrAlreadyShutdown is returned by every operation once
	// [Container.Shutdown] has been called.
	ErrAlreadyShutdown = errors.New("container already shut down")
)

// Error carries the structured details of a registration or resolution
// failure. Match the kind with [errors.Is] against the sentinel errors above
// and use [errors.As] to inspect the offending type and resolution path.
type Error struct {
	// Err is one of the sentinel errors declared by this package.
	Err error

	// Type is the contract or implementation type the failure concerns.
	Type reflect.Type

	// Path lists the contracts being resolved when the failure occurred,
	// starting with the requested contract. For ErrCircularDependency it is
	// the cycle itself, with the first and last element equal. A caller that
	// waited on another goroutine's singleton build sees the path from its
	// own requested contract.
	Path []reflect.Type

	// Cause is the underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())

	if errors.Is(e.Err, ErrCircularDependency) {
		b.WriteString(": ")
		b.WriteString(joinPath(e.Path))
		return b.String()
	}

	if e.Type != nil {
		b.WriteString(": ")
		b.WriteString(e.Type.String())
	}

	if len(e.Path) > 1 {
		b.WriteString(" (resolving ")
		b.WriteString(joinPath(e.Path))
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Unwrap exposes both the sentinel and the cause to [errors.Is] and
// [errors.As].
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func newError(kind error, t reflect.Type, path []reflect.Type, cause error) *Error {
	return &Error{
		Err:   kind,
		Type:  t,
		Path:  append([]reflect.Type(nil), path...),
		Cause: cause,
	}
}

func joinPath(path []reflect.Type) string {
	names := make([]string, len(path))
	for i, t := range path {
		names[i] = t.String()
	}
	return strings.Join(names, " -> ")
}
