package proxy

import (
	"context"

	"github.com/alex4o/mcpd/internal/config"
)

// pingLoop is the proxy's liveness check: a ticker calling Ping on the
// current backend client, the same pattern other_examples' one-mcp gateway
// uses to detect a dead SSE/stdio connection before a caller does. A
// failure hands off to the reconnect state machine.
func (p *Proxy) pingLoop(ctx context.Context) {
	ticker := newTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if p.State() != StateServing {
				continue
			}
			client := p.currentClient()
			if client == nil {
				continue
			}
			if err := client.Ping(ctx); err != nil {
				p.logger.Warn("backend ping failed", "error", err)
				p.handleBackendDown(ctx)
			}
		}
	}
}

// handleBackendDown runs the proxy's reconnect state machine per the
// configured restart policy: never initiates shutdown, on-failure makes one
// backoff-driven attempt series and gives up if it's exhausted, always
// retries indefinitely with the same capped exponential backoff.
func (p *Proxy) handleBackendDown(ctx context.Context) {
	p.mu.Lock()
	if p.state == StateReconnecting || p.state == StateShuttingDown {
		p.mu.Unlock()
		return
	}
	p.state = StateReconnecting
	p.mu.Unlock()

	policy := p.opts.Service.EffectiveRestart()
	if policy == config.RestartNever {
		p.logger.Info("backend down, restart policy is never, shutting down")
		go func() { _ = p.Shutdown(context.Background()) }()
		return
	}

	backoff := minBackoff
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p.sleepFn(backoff)

		client, err := p.connectFn(ctx)
		if err == nil {
			p.mu.Lock()
			if old := p.client; old != nil {
				_ = old.Disconnect()
			}
			p.client = client
			p.state = StateServing
			p.mu.Unlock()

			if p.store != nil {
				_ = p.store.Set(p.opts.Name, storeEntryForPID(client.PID()))
			}
			p.logger.Info("backend reconnected")
			return
		}

		p.logger.Warn("reconnect attempt failed", "error", err, "backoff", backoff)

		// Under on-failure, keep retrying with doubling backoff until an
		// attempt made at the capped interval also fails, then give up.
		// Under always, the cap just bounds the interval; retries never stop.
		if policy == config.RestartOnFailure && backoff >= maxBackoff {
			p.logger.Info("backend reconnect exhausted under on-failure policy, shutting down")
			go func() { _ = p.Shutdown(context.Background()) }()
			return
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
