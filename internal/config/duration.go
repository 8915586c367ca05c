package config

import (
	"fmt"
	"time"
)

// UnmarshalYAML accepts either a bare number of milliseconds or a
// "<num>(ms|s|m)" duration string, per mcpd.yml's readiness timeout/interval.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var num int64
	if err := unmarshal(&num); err == nil {
		d.Duration = time.Duration(num) * time.Millisecond
		return nil
	}

	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("%w: duration must be a number of ms or a duration string", ErrConfig)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: invalid duration %q: %v", ErrConfig, s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration back out as a Go duration string.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}
