package ioc

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
)

// ---------------------------------------------------------------------------
// Container methods
// ---------------------------------------------------------------------------

func (c *container) Resolve(contract reflect.Type) (reflect.Value, error) {
	if contract == nil {
		return reflect.Value{}, errors.New("contract type cannot be nil")
	}

	c.mu.RLock()
	closed := c.shutdown
	c.mu.RUnlock()

	if closed {
		return reflect.Value{}, ErrAlreadyShutdown
	}

	if err := c.verify(contract); err != nil {
		return reflect.Value{}, err
	}

	return c.resolve(contract, nil)
}

// ---------------------------------------------------------------------------
// Generic helpers
// ---------------------------------------------------------------------------

// Resolve is a generic helper that resolves contract C from the container.
// It is the recommended way to retrieve instances:
//
//	svc, err := ioc.Resolve[Service](c)
func Resolve[C any](c Container) (C, error) {
	var zero C
	t := reflect.TypeFor[C]()

	val, err := c.Resolve(t)
	if err != nil {
		return zero, err
	}

	// A constructor may legitimately return a nil interface.
	v := val.Interface()
	if v == nil {
		return zero, nil
	}

	out, ok := v.(C)
	if !ok {
		return zero, fmt.Errorf("cannot convert %s to %s", val.Type(), t)
	}

	return out, nil
}

// MustResolve is like [Resolve] but panics if resolution fails. It is
// intended for program start-up, where a broken graph is fatal anyway.
func MustResolve[C any](c Container) C {
	out, err := Resolve[C](c)
	if err != nil {
		panic(err)
	}
	return out
}

// ---------------------------------------------------------------------------
// Internal
// ---------------------------------------------------------------------------

// resolve produces an instance for t. stack holds the contracts currently
// being resolved on this call path; re-entering one of them is a cycle. The
// registry lock is never held while constructors run.
func (c *container) resolve(t reflect.Type, stack []reflect.Type) (reflect.Value, error) {
	if slices.Contains(stack, t) {
		return reflect.Value{}, circularError(stack, t)
	}

	c.mu.RLock()
	b, ok := c.lookup(t)
	c.mu.RUnlock()

	path := append(stack, t)

	if !ok {
		return reflect.Value{}, newError(ErrUnregisteredContract, t, path, nil)
	}

	if b.lifetime == Transient {
		return c.build(b, path)
	}

	built := false
	v, err := b.cell.get(func() (reflect.Value, error) {
		built = true
		return c.realize(b, path)
	})
	if err != nil {
		c.logger.Debug(
			"Singleton not realized",
			"contract", b.contract.String(),
			"state", b.cell.current(),
		)
		if !built {
			// The error came from another caller's build.
			return reflect.Value{}, rebase(err, path)
		}
		return reflect.Value{}, err
	}
	return v, nil
}

// rebase rewrites the path of a resolution error produced on another call
// path so that it starts from path instead. The segment from path's last
// contract onwards is kept; cycles and foreign errors are returned as is.
func rebase(err error, path []reflect.Type) error {
	var e *Error
	if !errors.As(err, &e) || errors.Is(e.Err, ErrCircularDependency) {
		return err
	}

	at := slices.Index(e.Path, path[len(path)-1])
	if at < 0 {
		return err
	}

	rebased := slices.Concat(path[:len(path)-1], e.Path[at:])
	return newError(e.Err, e.Type, rebased, e.Cause)
}

// build resolves every constructor parameter in declared order and invokes
// the constructor with the results.
func (c *container) build(b *binding, path []reflect.Type) (reflect.Value, error) {
	args := make([]reflect.Value, len(b.ctor.params))

	for i, dep := range b.ctor.params {
		v, err := c.resolve(dep, path)
		if err != nil {
			return reflect.Value{}, err
		}
		args[i] = v
	}

	inst, err := b.ctor.call(args)
	if err != nil {
		c.logger.Warn(
			"Construction failed",
			"contract", b.contract.String(),
			"implementation", b.ctor.impl.String(),
			"error", err,
		)
		return reflect.Value{}, newError(ErrConstructionFailed, b.ctor.impl, path, err)
	}

	return inst, nil
}

// realize builds the instance of a singleton binding. It runs inside the
// binding's cell, at most once per successful realization.
func (c *container) realize(b *binding, path []reflect.Type) (reflect.Value, error) {
	inst, err := c.build(b, path)
	if err != nil {
		return reflect.Value{}, err
	}

	closer, isCloser := asCloser(inst)

	c.mu.Lock()
	closed := c.shutdown
	if isCloser && !closed {
		c.closers = append(c.closers, namedCloser{contract: b.contract, closer: closer})
	}
	c.mu.Unlock()

	// The container shut down while the constructor ran; nobody will close
	// this instance later.
	if closed {
		if isCloser {
			if err := closer.Close(); err != nil {
				c.logger.Error("Closing singleton failed", "contract", b.contract.String(), "error", err)
			}
		}
		return reflect.Value{}, ErrAlreadyShutdown
	}

	c.logger.Debug(
		"Realized singleton",
		"contract", b.contract.String(),
		"implementation", b.ctor.impl.String(),
	)
	return inst, nil
}

func asCloser(v reflect.Value) (io.Closer, bool) {
	if !v.IsValid() || !v.CanInterface() {
		return nil, false
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice:
		if v.IsNil() {
			return nil, false
		}
	}
	closer, ok := v.Interface().(io.Closer)
	return closer, ok
}
