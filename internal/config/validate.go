package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ErrConfig marks configuration errors: missing required fields, invalid
// enums, invalid durations, or an unparsable document. Abort startup on it.
var ErrConfig = errors.New("config error")

// Validate checks ServiceConfig invariants and returns a joined ErrConfig
// naming every violation found, sorted by service name for determinism.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	names := make([]string, 0, len(cfg.Services))
	for name := range cfg.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		errs = append(errs, validateService(name, cfg.Services[name])...)
	}
	return errors.Join(errs...)
}

func validateService(name string, svc ServiceConfig) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: services.%s: %s", ErrConfig, name, fmt.Sprintf(format, args...)))
	}

	if strings.TrimSpace(svc.Command) == "" {
		fail("command is required")
	}

	switch svc.Transport {
	case "", TransportSSE, TransportStdio:
	default:
		fail("transport must be %q or %q, got %q", TransportSSE, TransportStdio, svc.Transport)
	}

	if svc.EffectiveTransport() == TransportSSE && strings.TrimSpace(svc.URL) == "" {
		fail("url is required when transport is sse")
	}
	if svc.URL != "" {
		if _, err := url.ParseRequestURI(svc.URL); err != nil {
			fail("url %q is invalid: %v", svc.URL, err)
		}
	}

	switch svc.Restart {
	case "", RestartOnFailure, RestartAlways, RestartNever:
	default:
		fail("restart must be one of on-failure, always, never, got %q", svc.Restart)
	}

	if svc.Readiness != nil {
		r := svc.Readiness
		if r.Check != "" && r.Check != "http" {
			fail("readiness.check only supports \"http\", got %q", r.Check)
		}
		if r.Timeout.Duration <= 0 {
			fail("readiness.timeout must be positive")
		}
		if r.Interval.Duration <= 0 {
			fail("readiness.interval must be positive")
		}
		if u := svc.ReadinessURL(); u != "" {
			if _, err := url.ParseRequestURI(u); err != nil {
				fail("readiness.url %q is invalid: %v", u, err)
			}
		}
	}

	return errs
}
