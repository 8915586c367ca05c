package proxy

import (
	"testing"

	"github.com/alex4o/mcpd/internal/config"
)

func TestNewAssignsDistinctRunIDs(t *testing.T) {
	opts := Options{Name: "svc", Port: 0, Service: config.ServiceConfig{Command: "echo"}}
	a := New(opts, nil, nil)
	b := New(opts, nil, nil)

	if a.runID == "" {
		t.Fatal("runID is empty")
	}
	if a.runID == b.runID {
		t.Fatal("two Proxy instances got the same runID")
	}
}

func TestNewDefaultsStateToStarting(t *testing.T) {
	p := New(Options{Name: "svc", Service: config.ServiceConfig{Command: "echo"}}, nil, nil)
	if p.State() != StateStarting {
		t.Fatalf("State() = %v, want %v", p.State(), StateStarting)
	}
}
