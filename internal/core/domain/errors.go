package domain

import "fmt"

// ConfigurationError reports conflicting or incomplete construction inputs,
// such as combining the deprecated flattened data shape with explicit
// start/end/waypoints.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "route configuration: " + e.Reason
}

// ValidationError reports a rejected value for a single attribute, such as a
// travel mode outside the allowed enum.
type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
