package ioc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Container defines the interface for the inversion-of-control container.
// Use [New] to create an instance.
type Container interface {
	// RegisterTransient binds contract to impl with [Transient] lifetime.
	// impl must be a constructor function with the signature
	// func(deps...) T or func(deps...) (T, error), where T is assignable to
	// contract. Parameters are contracts resolved from the container; a
	// constructor without parameters acts as a plain factory.
	RegisterTransient(contract reflect.Type, impl any) error

	// RegisterSingleton binds contract to impl with [Singleton] lifetime.
	// The constructor runs on first resolution and its result is cached for
	// the lifetime of the container.
	RegisterSingleton(contract reflect.Type, impl any) error

	// Has reports whether contract has a binding of either lifetime.
	Has(contract reflect.Type) bool

	// Resolve returns an instance for contract, constructing its dependency
	// graph as needed. Missing registrations and cycles in the graph are
	// reported before any constructor runs. Prefer the generic [Resolve]
	// helper over calling this method directly.
	Resolve(contract reflect.Type) (reflect.Value, error)

	// Validate checks every registration for missing dependencies and
	// circular dependencies without constructing anything.
	Validate() error

	// Shutdown closes all realized singletons that implement [io.Closer], in
	// reverse realization order (dependents are closed before their
	// dependencies). The context controls the overall deadline; if it
	// expires, remaining closers are skipped and the context error is
	// included in the result.
	//
	// After Shutdown every operation, including Shutdown itself, returns
	// [ErrAlreadyShutdown].
	Shutdown(ctx context.Context) error
}

type container struct {
	mu sync.RWMutex

	transients map[reflect.Type]*binding
	singletons map[reflect.Type]*binding

	// verified caches contracts whose dependency graph passed the static
	// walk. Registrations only add bindings, so an entry never goes stale.
	verified sync.Map

	// closers holds realized singletons that implement io.Closer, in the
	// order they were realized. Shutdown iterates them in reverse.
	closers []namedCloser

	logger   *slog.Logger
	shutdown bool
}

type namedCloser struct {
	contract reflect.Type
	closer   io.Closer
}

// New creates an empty [Container] ready for registration.
func New(opts ...Option) Container {
	cfg := config{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &container{
		transients: make(map[reflect.Type]*binding),
		singletons: make(map[reflect.Type]*binding),
		logger:     cfg.logger,
	}
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func (c *container) RegisterTransient(contract reflect.Type, impl any) error {
	return c.register(contract, impl, Transient)
}

func (c *container) RegisterSingleton(contract reflect.Type, impl any) error {
	return c.register(contract, impl, Singleton)
}

func (c *container) register(contract reflect.Type, impl any, lifetime Lifetime) error {
	if contract == nil {
		return errors.New("contract type cannot be nil")
	}

	ctor, err := newConstructor(contract, impl)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown {
		return ErrAlreadyShutdown
	}

	if _, exists := c.lookup(contract); exists {
		return newError(ErrDuplicateRegistration, contract, nil, nil)
	}

	b := &binding{
		contract: contract,
		ctor:     ctor,
		lifetime: lifetime,
	}

	switch lifetime {
	case Singleton:
		b.cell = &singletonCell{}
		c.singletons[contract] = b
	default:
		c.transients[contract] = b
	}

	c.logger.Debug(
		"Registered contract",
		"contract", contract.String(),
		"implementation", ctor.impl.String(),
		"lifetime", lifetime.String(),
		"factory", ctor.producer(),
	)
	return nil
}

// lookup finds the binding for contract. Callers must hold c.mu.
func (c *container) lookup(contract reflect.Type) (*binding, bool) {
	if b, ok := c.transients[contract]; ok {
		return b, true
	}
	b, ok := c.singletons[contract]
	return b, ok
}

func (c *container) Has(contract reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.lookup(contract)
	return ok
}

// RegisterTransient is a generic helper binding the contract C to impl with
// [Transient] lifetime:
//
//	err := ioc.RegisterTransient[Service](c, NewService)
func RegisterTransient[C any](c Container, impl any) error {
	return c.RegisterTransient(reflect.TypeFor[C](), impl)
}

// RegisterSingleton is a generic helper binding the contract C to impl with
// [Singleton] lifetime:
//
//	err := ioc.RegisterSingleton[Clock](c, NewSystemClock)
func RegisterSingleton[C any](c Container, impl any) error {
	return c.RegisterSingleton(reflect.TypeFor[C](), impl)
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

func (c *container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.shutdown {
		return ErrAlreadyShutdown
	}

	contracts := slices.Collect(maps.Keys(c.transients))
	contracts = slices.AppendSeq(contracts, maps.Keys(c.singletons))
	slices.SortFunc(contracts, func(a, b reflect.Type) int {
		return strings.Compare(a.String(), b.String())
	})

	states := make(map[reflect.Type]visitState)
	for _, t := range contracts {
		if err := c.walk(t, states, nil); err != nil {
			return err
		}
	}
	return nil
}

// verify runs the static walk for contract unless an earlier walk already
// covered it.
func (c *container) verify(contract reflect.Type) error {
	if _, ok := c.verified.Load(contract); ok {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	states := make(map[reflect.Type]visitState)
	if err := c.walk(contract, states, nil); err != nil {
		return err
	}

	for t := range states {
		c.verified.Store(t, struct{}{})
	}
	return nil
}

// walk visits the dependency graph depth-first using the constructor plans
// only. Callers must hold c.mu.
func (c *container) walk(t reflect.Type, states map[reflect.Type]visitState, stack []reflect.Type) error {
	switch states[t] {
	case visiting:
		return circularError(stack, t)
	case visited:
		return nil
	}

	b, ok := c.lookup(t)
	if !ok {
		return newError(ErrUnregisteredContract, t, append(stack, t), nil)
	}

	states[t] = visiting
	stack = append(stack, t)

	for _, dep := range b.ctor.params {
		if err := c.walk(dep, states, stack); err != nil {
			return err
		}
	}

	states[t] = visited
	return nil
}

// circularError reports the cycle formed by re-entering t, which must be on
// stack.
func circularError(stack []reflect.Type, t reflect.Type) error {
	start := slices.Index(stack, t)
	cycle := append(slices.Clone(stack[start:]), t)
	return newError(ErrCircularDependency, t, cycle, nil)
}

// ---------------------------------------------------------------------------
// Shutdown
// ---------------------------------------------------------------------------

func (c *container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown {
		return ErrAlreadyShutdown
	}

	c.shutdown = true

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		nc := c.closers[i]
		if err := nc.closer.Close(); err != nil {
			c.logger.Error("Closing singleton failed", "contract", nc.contract.String(), "error", err)
			errs = append(errs, err)
			continue
		}
		c.logger.Debug("Closed singleton", "contract", nc.contract.String())
	}
	c.closers = nil

	return errors.Join(errs...)
}
