package proxy

import (
	"time"

	"github.com/alex4o/mcpd/internal/statestore"
)

// ticker abstracts time.Ticker so pingLoop can be driven by a fake clock in
// tests without a real 30-second wait.
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

var newTicker = func(d time.Duration) ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func storeEntryForPID(pid int) statestore.Entry {
	return statestore.Entry{State: statestore.StateReady, PID: pid}
}
