// Package ioc provides a small, reflection-based inversion-of-control
// container for Go.
//
// A contract (usually an interface type) is bound to a constructor function.
// When a contract is resolved, the container inspects the constructor's
// parameters, resolves each of them as a contract in turn, and calls the
// constructor with the results. Nothing is built at registration time.
//
// # Quick Start
//
//	c := ioc.New()
//	ioc.RegisterSingleton[Clock](c, NewSystemClock)
//	ioc.RegisterTransient[Service](c, NewService) // func NewService(Clock) *service
//
//	svc, err := ioc.Resolve[Service](c)
//
// # Lifetimes
//
// [Transient] — a fresh instance on every resolution, including when the
// contract is needed as a dependency.
//
// [Singleton] — built on first resolution and shared from then on, both with
// direct callers and with every binding that depends on it. Concurrent first
// resolutions build the instance once; a failed build is retried on the next
// resolution.
//
// # Constructors
//
// A constructor has the form func(deps...) T or func(deps...) (T, error),
// where T is assignable to the contract. A constructor without parameters is
// a plain factory. Variadic constructors are rejected with
// [ErrAmbiguousConstructor]; anything that is not a constructor function is
// rejected with [ErrNoConstructor]. Errors and panics raised by a constructor
// surface as [ErrConstructionFailed].
//
// A factory may resolve other contracts from the container it is registered
// in, but it must not resolve, directly or through another contract, the
// singleton it is building: that singleton would wait on itself.
//
// # Errors
//
// Each contract may be registered once; a second registration fails with
// [ErrDuplicateRegistration]. Before any constructor runs, [Container.Resolve]
// checks the requested dependency graph and fails with
// [ErrUnregisteredContract] or [ErrCircularDependency]. Failures are returned
// as [*Error] values naming the offending type and the resolution path:
//
//	var e *ioc.Error
//	if errors.As(err, &e) && errors.Is(err, ioc.ErrUnregisteredContract) {
//		log.Printf("missing %s while resolving %v", e.Type, e.Path)
//	}
package ioc
