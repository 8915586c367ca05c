// Package supervisor spawns and tracks backend processes: readiness
// polling, restart policies, crash-vs-clean-exit handling, cross-instance
// reuse via a durable state file, and port/PID recovery for services
// started outside the daemon.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/alex4o/mcpd/internal/config"
	"github.com/alex4o/mcpd/internal/probe"
	"github.com/alex4o/mcpd/internal/statestore"
	"golang.org/x/sync/errgroup"
)

// stopGrace is how long Stop waits after SIGTERM before escalating to
// SIGKILL, per spec.md's "5-second budget".
const stopGrace = 5 * time.Second

// killOrphanGrace is how long a readiness-timeout orphan gets before
// Supervisor escalates to SIGKILL.
const killOrphanGrace = 2 * time.Second

type trackedProcess struct {
	cmd      *exec.Cmd
	pid      int
	owned    bool // true if this instance forked the process
	stopping bool
	exited   chan struct{}
	exitErr  error
}

// Supervisor implements the Service Supervisor: start/stop/restart of
// individual services, fleet-wide startAll/stopAll, and state queries.
type Supervisor struct {
	mu        sync.Mutex
	store     *statestore.Store
	logger    *slog.Logger
	processes map[string]*trackedProcess
	configs   map[string]config.ServiceConfig

	reachableFn   func(ctx context.Context, url string, timeout time.Duration) bool
	recoverPIDFn  func(url, commandHint string, argHints []string) (int, bool, error)
	execCommandFn func(name string, args ...string) *exec.Cmd
	sleepFn       func(time.Duration)
	nowFn         func() time.Time
}

// New builds a Supervisor backed by store, logging through logger (the
// process-wide logger if nil).
func New(store *statestore.Store, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		store:         store,
		logger:        logger.With("component", "supervisor"),
		processes:     make(map[string]*trackedProcess),
		configs:       make(map[string]config.ServiceConfig),
		reachableFn:   probe.Reachable,
		recoverPIDFn:  probe.RecoverPID,
		execCommandFn: exec.Command,
		sleepFn:       time.Sleep,
		nowFn:         time.Now,
	}
}

// Start brings one service up: adopts a reachable, state-file-recorded
// process from a prior instance, recovers the PID of an externally started
// one, or spawns a fresh child — in that order, per spec.md's reuse path.
func (s *Supervisor) Start(ctx context.Context, name string, cfg config.ServiceConfig) error {
	s.mu.Lock()
	s.configs[name] = cfg
	s.mu.Unlock()

	if cfg.EffectiveTransport() == config.TransportSSE {
		readinessURL := cfg.ReadinessURL()

		if entry, ok := s.store.Get(name); ok && entry.PID > 0 && processAlive(entry.PID) &&
			s.reachableFn(ctx, readinessURL, probe.DefaultRequestTimeout) {
			s.adopt(name, entry.PID)
			return s.persist(name, statestore.StateReady, entry.PID, cfg.URL)
		}

		if readinessURL != "" && s.reachableFn(ctx, readinessURL, probe.DefaultRequestTimeout) {
			pid, ok, err := s.recoverPIDFn(readinessURL, cfg.Command, cfg.Args)
			if err != nil {
				s.logger.Warn("port->pid recovery failed", "service", name, "error", err)
			}
			if ok {
				s.adopt(name, pid)
			}
			return s.persist(name, statestore.StateReady, pid, cfg.URL)
		}
	}

	return s.spawn(ctx, name, cfg)
}

func (s *Supervisor) adopt(name string, pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	closed := make(chan struct{})
	close(closed)
	s.processes[name] = &trackedProcess{pid: pid, owned: false, exited: closed}
}

func (s *Supervisor) spawn(ctx context.Context, name string, cfg config.ServiceConfig) error {
	s.mu.Lock()
	if tp, exists := s.processes[name]; exists && processAlive(tp.pid) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
	}
	s.mu.Unlock()

	if err := checkPrerequisites(cfg); err != nil {
		_ = s.persist(name, statestore.StateError, 0, cfg.URL)
		return fmt.Errorf("%w: %v", ErrStartup, err)
	}

	if err := s.persist(name, statestore.StateStarting, 0, cfg.URL); err != nil {
		return err
	}

	cmd := s.execCommandFn(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Cwd
	cmd.Env = mergeEnv(os.Environ(), cfg.Env)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = newSysProcAttrForGroup()

	if err := cmd.Start(); err != nil {
		_ = s.persist(name, statestore.StateError, 0, cfg.URL)
		return fmt.Errorf("%w: spawning %q: %v", ErrStartup, name, err)
	}

	tp := &trackedProcess{cmd: cmd, pid: cmd.Process.Pid, owned: true, exited: make(chan struct{})}
	s.mu.Lock()
	s.processes[name] = tp
	s.mu.Unlock()
	go s.awaitExit(name, tp)

	if cfg.EffectiveTransport() == config.TransportSSE && cfg.Readiness != nil && cfg.Readiness.Check == "http" {
		if err := s.waitReady(ctx, name, cfg); err != nil {
			s.killOrphan(tp)
			_ = s.persist(name, statestore.StateError, 0, cfg.URL)
			return err
		}
	}

	return s.persist(name, statestore.StateReady, tp.pid, cfg.URL)
}

func (s *Supervisor) waitReady(ctx context.Context, name string, cfg config.ServiceConfig) error {
	readiness := cfg.Readiness
	url := cfg.ReadinessURL()
	deadline := s.nowFn().Add(readiness.Timeout.Duration)

	for {
		if s.reachableFn(ctx, url, probe.DefaultRequestTimeout) {
			return nil
		}
		if !s.nowFn().Before(deadline) {
			return fmt.Errorf("%w: service %q readiness timed out after %s", ErrStartup, name, readiness.Timeout.Duration)
		}
		s.sleepFn(readiness.Interval.Duration)
	}
}

func (s *Supervisor) killOrphan(tp *trackedProcess) {
	_ = terminateGraceful(tp.cmd, tp.pid, tp.owned)
	select {
	case <-tp.exited:
	case <-time.After(killOrphanGrace):
		_ = terminateForce(tp.cmd, tp.pid, tp.owned)
		<-tp.exited
	}
}

func (s *Supervisor) awaitExit(name string, tp *trackedProcess) {
	err := tp.cmd.Wait()
	tp.exitErr = err
	close(tp.exited)
	s.handleExit(name, tp, err)
}

func (s *Supervisor) handleExit(name string, tp *trackedProcess, err error) {
	s.mu.Lock()
	if tp.stopping {
		s.mu.Unlock()
		return
	}
	cfg, hasCfg := s.configs[name]
	s.mu.Unlock()
	if !hasCfg {
		return
	}

	entry, _ := s.store.Get(name)
	wasReady := entry.State == statestore.StateReady
	wasStarting := entry.State == statestore.StateStarting
	exitCode := extractExitCode(err)
	policy := cfg.EffectiveRestart()

	restartTriggered := false
	switch {
	case wasReady:
		_ = s.persist(name, statestore.StateError, 0, cfg.URL)
		if policy == config.RestartOnFailure || policy == config.RestartAlways {
			s.scheduleRestart(name, cfg)
			restartTriggered = true
		}
	case exitCode != 0:
		_ = s.persist(name, statestore.StateError, 0, cfg.URL)
		if policy == config.RestartOnFailure || policy == config.RestartAlways {
			s.scheduleRestart(name, cfg)
			restartTriggered = true
		}
	case !wasStarting:
		_ = s.persist(name, statestore.StateStopped, 0, cfg.URL)
	}

	if policy == config.RestartAlways && !restartTriggered {
		s.scheduleRestart(name, cfg)
	}
}

// scheduleRestart runs the retry on its own goroutine rather than inline
// from the exit-wait goroutine, per the design note against unbounded
// in-line recursion on repeated crashes.
func (s *Supervisor) scheduleRestart(name string, cfg config.ServiceConfig) {
	go func() {
		s.mu.Lock()
		delete(s.processes, name)
		s.mu.Unlock()
		if err := s.spawn(context.Background(), name, cfg); err != nil {
			s.logger.Error("restart attempt failed", "service", name, "error", err)
		}
	}()
}

// Stop terminates a running service: SIGTERM, a grace period, then SIGKILL
// if needed. The config's restart policy is suppressed for the duration so
// the exit-handling goroutine does not race a restart against this stop.
func (s *Supervisor) Stop(name string) error {
	s.mu.Lock()
	tp, ok := s.processes[name]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	cfg := s.configs[name]
	originalRestart := cfg.Restart
	cfg.Restart = config.RestartNever
	s.configs[name] = cfg
	tp.stopping = true
	s.mu.Unlock()

	_ = terminateGraceful(tp.cmd, tp.pid, tp.owned)
	s.awaitStop(tp, stopGrace)

	s.mu.Lock()
	cfg = s.configs[name]
	cfg.Restart = originalRestart
	s.configs[name] = cfg
	delete(s.processes, name)
	s.mu.Unlock()

	return s.persist(name, statestore.StateStopped, 0, cfg.URL)
}

func (s *Supervisor) awaitStop(tp *trackedProcess, grace time.Duration) {
	if tp.owned {
		select {
		case <-tp.exited:
			return
		case <-time.After(grace):
		}
		_ = terminateForce(tp.cmd, tp.pid, tp.owned)
		<-tp.exited
		return
	}

	deadline := s.nowFn().Add(grace)
	for processAlive(tp.pid) && s.nowFn().Before(deadline) {
		s.sleepFn(200 * time.Millisecond)
	}
	if !processAlive(tp.pid) {
		return
	}

	_ = terminateForce(tp.cmd, tp.pid, tp.owned)
	escalateDeadline := s.nowFn().Add(grace)
	for processAlive(tp.pid) && s.nowFn().Before(escalateDeadline) {
		s.sleepFn(200 * time.Millisecond)
	}
	if processAlive(tp.pid) {
		s.logger.Warn("adopted process still alive after SIGKILL, giving up", "pid", tp.pid)
	}
}

// Restart stops and then starts a service using its last known config.
func (s *Supervisor) Restart(ctx context.Context, name string) error {
	s.mu.Lock()
	cfg, ok := s.configs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	if err := s.Stop(name); err != nil {
		return err
	}
	return s.Start(ctx, name, cfg)
}

// StartAll launches every service concurrently. If any fails, every
// service that did succeed is rolled back via Stop and a joined error
// naming each failure is returned.
func (s *Supervisor) StartAll(ctx context.Context, cfgMap map[string]config.ServiceConfig) error {
	var (
		mu      sync.Mutex
		started []string
		errs    []error
	)

	var g errgroup.Group
	for name, cfg := range cfgMap {
		name, cfg := name, cfg
		g.Go(func() error {
			err := s.Start(ctx, name, cfg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("starting %q: %w", name, err))
				return nil
			}
			started = append(started, name)
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		for _, name := range started {
			if stopErr := s.Stop(name); stopErr != nil {
				s.logger.Error("rollback stop failed", "service", name, "error", stopErr)
			}
		}
		return fmt.Errorf("%w: %v", ErrStartup, errors.Join(errs...))
	}
	return nil
}

// StopAll stops every tracked service. skip, when non-nil, is consulted
// per service (used by the CLI to honor keep_alive at daemon shutdown);
// pass nil to stop unconditionally.
func (s *Supervisor) StopAll(skip func(name string, cfg config.ServiceConfig) bool) error {
	s.mu.Lock()
	snapshot := make(map[string]config.ServiceConfig, len(s.configs))
	for k, v := range s.configs {
		snapshot[k] = v
	}
	s.mu.Unlock()

	var errs []error
	for name, cfg := range snapshot {
		if skip != nil && skip(name, cfg) {
			continue
		}
		if err := s.Stop(name); err != nil {
			errs = append(errs, fmt.Errorf("stopping %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// GetState returns the persisted state for one service.
func (s *Supervisor) GetState(name string) (statestore.Entry, bool) {
	return s.store.Get(name)
}

// GetAll returns every persisted service state.
func (s *Supervisor) GetAll() map[string]statestore.Entry {
	return s.store.All()
}

// RegisterPid adopts an externally-known PID (e.g. a stdio backend client's
// own child) into the state map, so ps/kill and the next instance's reuse
// logic see a consistent record.
func (s *Supervisor) RegisterPid(name string, pid int, url string) error {
	s.adopt(name, pid)
	return s.persist(name, statestore.StateReady, pid, url)
}

func (s *Supervisor) persist(name string, state statestore.State, pid int, url string) error {
	return s.store.Set(name, statestore.Entry{State: state, PID: pid, URL: url})
}

func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	env := make([]string, len(base), len(base)+len(overrides))
	copy(env, base)
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}

func extractExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
