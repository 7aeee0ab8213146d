package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation setup.
var (
	// ErrInvalidConfig indicates construction parameters that cannot produce a valid simulation.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnknownIntegrator indicates an integrator name with no registered implementation.
	ErrUnknownIntegrator = errors.New("dynamo: unknown integrator")

	// ErrUnknownKernel indicates a smoothing kernel name with no registered implementation.
	ErrUnknownKernel = errors.New("dynamo: unknown kernel")

	// ErrUnknownAction indicates a scripted control event with an unrecognised action.
	ErrUnknownAction = errors.New("dynamo: unknown scenario action")
)

// ConfigError reports the first parameter that failed validation.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s=%v: %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Invalid is shorthand for building a *ConfigError.
func Invalid(field string, value any, reason string) error {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}
