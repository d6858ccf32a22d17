package dtmf

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates a buffer without samples
	ErrEmptyInput = errors.New("empty sample buffer")
	// ErrInvalidConfig is wrapped by every ConfigError
	ErrInvalidConfig = errors.New("invalid detector configuration")
)

// ConfigError names the parameter that made a configuration unusable.
type ConfigError struct {
	Param  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %s", e.Param, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
