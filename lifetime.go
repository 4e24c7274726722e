package ioc

import (
	"reflect"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Lifetime controls how many instances of a binding the container creates.
type Lifetime int

const (
	// Transient means a new instance is constructed on every
	// [Container.Resolve] call, including when the contract is needed as a
	// dependency.
	Transient Lifetime = iota

	// Singleton means the constructor runs on first resolution and the
	// resulting instance is reused for the lifetime of the container.
	Singleton
)

// String returns the human-readable name of the lifetime.
func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// ---------------------------------------------------------------------------
// Singleton cell
// ---------------------------------------------------------------------------

type cellState int32

const (
	unrealized cellState = iota
	realizing
	realized
)

func (s cellState) String() string {
	switch s {
	case unrealized:
		return "unrealized"
	case realizing:
		return "realizing"
	case realized:
		return "realized"
	default:
		return "unknown"
	}
}

// singletonCell owns the single instance of a singleton binding. The first
// caller claims the cell and builds; concurrent callers wait for that build
// and share its result. A failed build leaves the cell unrealized.
type singletonCell struct {
	state    atomic.Int32
	instance reflect.Value
	flight   singleflight.Group
}

func (s *singletonCell) current() cellState {
	return cellState(s.state.Load())
}

// load returns the cached instance once the cell is realized. instance is
// written before the state is published, so the atomic load orders the read.
func (s *singletonCell) load() (reflect.Value, bool) {
	if s.current() != realized {
		return reflect.Value{}, false
	}
	return s.instance, true
}

func (s *singletonCell) get(build func() (reflect.Value, error)) (reflect.Value, error) {
	if v, ok := s.load(); ok {
		return v, nil
	}

	v, err, _ := s.flight.Do("", func() (any, error) {
		if v, ok := s.load(); ok {
			return v, nil
		}

		s.state.Store(int32(realizing))
		inst, err := build()
		if err != nil {
			s.state.Store(int32(unrealized))
			return nil, err
		}

		s.instance = inst
		s.state.Store(int32(realized))
		return inst, nil
	})
	if err != nil {
		return reflect.Value{}, err
	}

	return v.(reflect.Value), nil
}
