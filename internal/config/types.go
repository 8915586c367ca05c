// Package config loads and validates mcpd.yml service declarations into
// typed ServiceConfig values.
package config

import "time"

// Transport identifies how the supervisor reaches a backend process.
type Transport string

const (
	TransportSSE   Transport = "sse"
	TransportStdio Transport = "stdio"
)

// RestartPolicy controls what the supervisor does after a backend process exits.
type RestartPolicy string

const (
	RestartOnFailure RestartPolicy = "on-failure"
	RestartAlways    RestartPolicy = "always"
	RestartNever     RestartPolicy = "never"
)

// Duration parses YAML values that are either a bare number of milliseconds
// or a "<num>(ms|s|m)" string, per mcpd.yml's readiness timeout/interval.
type Duration struct {
	time.Duration
}

// Readiness describes how the supervisor decides a service is up.
type Readiness struct {
	Check    string   `yaml:"check"` // only "http" is recognized
	URL      string   `yaml:"url,omitempty"`
	Timeout  Duration `yaml:"timeout,omitempty"`
	Interval Duration `yaml:"interval,omitempty"`
}

// MiddlewareConfig is the per-service response transform chain declaration.
type MiddlewareConfig struct {
	Response []string `yaml:"response,omitempty"`
}

// ServiceConfig declares one backend the supervisor manages.
type ServiceConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Cwd     string            `yaml:"cwd,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`

	Transport Transport `yaml:"transport,omitempty"`
	URL       string    `yaml:"url,omitempty"`

	Readiness *Readiness `yaml:"readiness,omitempty"`

	Restart RestartPolicy `yaml:"restart,omitempty"`

	KeepAlive *bool `yaml:"keep_alive,omitempty"`

	ExcludeTools []string `yaml:"exclude_tools,omitempty"`

	Middleware MiddlewareConfig `yaml:"middleware,omitempty"`
}

// Config is the top-level mcpd.yml document.
type Config struct {
	Services map[string]ServiceConfig `yaml:"services"`
}

// EffectiveTransport returns the configured transport, defaulting to sse.
func (s ServiceConfig) EffectiveTransport() Transport {
	if s.Transport == "" {
		return TransportSSE
	}
	return s.Transport
}

// EffectiveRestart returns the configured restart policy, defaulting to on-failure.
func (s ServiceConfig) EffectiveRestart() RestartPolicy {
	if s.Restart == "" {
		return RestartOnFailure
	}
	return s.Restart
}

// EffectiveKeepAlive returns keep_alive, defaulting to true per mcpd.yml's spec.
func (s ServiceConfig) EffectiveKeepAlive() bool {
	if s.KeepAlive == nil {
		return true
	}
	return *s.KeepAlive
}

// ReadinessURL returns the URL to poll for readiness, defaulting to the
// service's own URL when the readiness block omits one.
func (s ServiceConfig) ReadinessURL() string {
	if s.Readiness != nil && s.Readiness.URL != "" {
		return s.Readiness.URL
	}
	return s.URL
}

// ExcludeSet returns exclude_tools as a lookup set.
func (s ServiceConfig) ExcludeSet() map[string]struct{} {
	if len(s.ExcludeTools) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(s.ExcludeTools))
	for _, name := range s.ExcludeTools {
		set[name] = struct{}{}
	}
	return set
}
