package supervisor

import "errors"

// ErrStartup marks a StartupError: spawn failed, readiness timed out, or a
// startAll rollback was triggered by a sibling's failure.
var ErrStartup = errors.New("startup error")

// ErrAlreadyRunning is returned by start when the in-memory process map
// already holds a live entry for the service name.
var ErrAlreadyRunning = errors.New("service already running")

// ErrUnknownService is returned by operations naming a service the
// supervisor has never seen a config for.
var ErrUnknownService = errors.New("unknown service")
