package config

import (
	"fmt"
	"strings"
)

// ConfigError reports required configuration that is missing or malformed.
type ConfigError struct {
	Keys   []string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration (%s): %s", strings.Join(e.Keys, ", "), e.Reason)
}

// MappingParseError reports a user or state mapping that could not be
// parsed. It is never fatal; callers fall back to an empty mapping.
type MappingParseError struct {
	Key string
	Err error
}

func (e *MappingParseError) Error() string {
	return fmt.Sprintf("unable to parse %s: %v", e.Key, e.Err)
}

func (e *MappingParseError) Unwrap() error {
	return e.Err
}
