package ioc

import (
	"errors"
	"fmt"
	"reflect"
)

var errorType = reflect.TypeFor[error]()

// constructor is the plan derived from a registered implementation: the
// function to call, the contracts to resolve for its parameters in declared
// order, and the implementation type it produces.
type constructor struct {
	fn         reflect.Value
	params     []reflect.Type
	impl       reflect.Type
	returnsErr bool
}

// newConstructor derives the construction plan for impl, which must be a
// function of the form func(deps...) T or func(deps...) (T, error).
func newConstructor(contract reflect.Type, impl any) (*constructor, error) {
	if impl == nil {
		return nil, newError(ErrNoConstructor, contract, nil, nil)
	}

	val := reflect.ValueOf(impl)
	typ := val.Type()

	if typ.Kind() != reflect.Func || val.IsNil() {
		return nil, newError(ErrNoConstructor, typ, nil,
			fmt.Errorf("implementation for %s must be a constructor function", contract))
	}

	switch {
	case typ.NumOut() == 0 || typ.NumOut() > 2:
		return nil, newError(ErrNoConstructor, typ, nil,
			errors.New("constructor must return (T) or (T, error)"))
	case typ.NumOut() == 2 && typ.Out(1) != errorType:
		return nil, newError(ErrNoConstructor, typ, nil,
			fmt.Errorf("second return value must be error, got %s", typ.Out(1)))
	}

	impType := typ.Out(0)

	if typ.IsVariadic() {
		return nil, newError(ErrAmbiguousConstructor, impType, nil,
			fmt.Errorf("variadic constructor %s has no fixed parameter list", typ))
	}

	if !impType.AssignableTo(contract) {
		return nil, newError(ErrIncompatibleImplementation, impType, nil,
			fmt.Errorf("%s is not assignable to %s", impType, contract))
	}

	params := make([]reflect.Type, typ.NumIn())
	for i := range params {
		params[i] = typ.In(i)
	}

	return &constructor{
		fn:         val,
		params:     params,
		impl:       impType,
		returnsErr: typ.NumOut() == 2,
	}, nil
}

// producer reports whether the constructor takes no arguments, i.e. it is a
// plain factory rather than a binding built from resolved dependencies.
func (k *constructor) producer() bool {
	return len(k.params) == 0
}

// call invokes the constructor. A returned error or a panic is reported as
// the error result.
func (k *constructor) call(args []reflect.Value) (out reflect.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = reflect.Value{}
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	results := k.fn.Call(args)
	if k.returnsErr && !results[1].IsNil() {
		return reflect.Value{}, results[1].Interface().(error)
	}

	return results[0], nil
}
