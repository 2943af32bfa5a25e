package routing

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type mockExecutor struct {
	output []byte
	err    error

	name string
	args []string
}

func (m *mockExecutor) Run(ctx context.Context, name string, arg ...string) ([]byte, error) {
	m.name = name
	m.args = arg
	return m.output, m.err
}

func newTestAdapter(goos string, exec *mockExecutor) *SystemVIPAdapter {
	a := NewSystemVIPAdapter(nil)
	a.os = goos
	a.executor = exec
	return a
}

func TestSystemVIPAdapter_BindLinux(t *testing.T) {
	exec := &mockExecutor{}
	adapter := newTestAdapter("linux", exec)

	if err := adapter.Bind(context.Background(), "10.0.0.1", "eth0"); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if exec.name != "ip" {
		t.Errorf("command = %s, want ip", exec.name)
	}
	got := strings.Join(exec.args, " ")
	if got != "addr add 10.0.0.1/32 dev eth0" {
		t.Errorf("args = %q", got)
	}
}

func TestSystemVIPAdapter_UnbindLinux(t *testing.T) {
	exec := &mockExecutor{}
	adapter := newTestAdapter("linux", exec)

	if err := adapter.Unbind(context.Background(), "10.0.0.1", "eth0"); err != nil {
		t.Fatalf("Unbind failed: %v", err)
	}
	got := strings.Join(exec.args, " ")
	if got != "addr del 10.0.0.1/32 dev eth0" {
		t.Errorf("args = %q", got)
	}
}

func TestSystemVIPAdapter_BindDarwin(t *testing.T) {
	exec := &mockExecutor{}
	adapter := newTestAdapter("darwin", exec)

	if err := adapter.Bind(context.Background(), "10.0.0.1", "en0"); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if exec.name != "ifconfig" {
		t.Errorf("command = %s, want ifconfig", exec.name)
	}
}

func TestSystemVIPAdapter_BindAlreadyBound(t *testing.T) {
	exec := &mockExecutor{
		output: []byte("RTNETLINK answers: File exists"),
		err:    errors.New("exit status 2"),
	}
	adapter := newTestAdapter("linux", exec)

	if err := adapter.Bind(context.Background(), "10.0.0.1", "eth0"); err != nil {
		t.Fatalf("Bind of an already bound VIP should succeed, got %v", err)
	}
}

func TestSystemVIPAdapter_BindFailure(t *testing.T) {
	exec := &mockExecutor{
		output: []byte("Operation not permitted"),
		err:    errors.New("exit status 2"),
	}
	adapter := newTestAdapter("linux", exec)

	if err := adapter.Bind(context.Background(), "10.0.0.1", "eth0"); err == nil {
		t.Fatal("expected error for failed bind")
	}
}

func TestSystemVIPAdapter_InvalidInput(t *testing.T) {
	adapter := newTestAdapter("linux", &mockExecutor{})
	ctx := context.Background()

	if err := adapter.Bind(ctx, "not-an-ip", "eth0"); err == nil {
		t.Error("expected error for invalid VIP")
	}
	if err := adapter.Bind(ctx, "10.0.0.1", ""); err == nil {
		t.Error("expected error for empty interface")
	}
}

func TestSystemVIPAdapter_UnsupportedOS(t *testing.T) {
	adapter := newTestAdapter("plan9", &mockExecutor{})

	if err := adapter.Bind(context.Background(), "10.0.0.1", "eth0"); err == nil {
		t.Error("expected error for unsupported OS")
	}
}

func TestNewSystemVIPAdapter(t *testing.T) {
	adapter := NewSystemVIPAdapter(nil)
	if adapter == nil || adapter.executor == nil {
		t.Fatal("expected adapter to be non-nil")
	}
}
