package ioc

import (
	"log/slog"
	"reflect"
)

// binding holds everything the container knows about one registered
// contract.
type binding struct {
	contract reflect.Type
	ctor     *constructor
	lifetime Lifetime

	// cell is set for singleton bindings only.
	cell *singletonCell
}

// config holds the settings applied by [Option] values.
type config struct {
	logger *slog.Logger
}

// Option configures a [Container] created with [New].
type Option func(*config)

// WithLogger sets the logger the container reports registrations, singleton
// realization and shutdown to. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
