package routing

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"runtime"
	"strings"

	"github.com/poyrazK/hora/internal/core/ports"
)

// commandExecutor allows mocking exec.Command for testing
type commandExecutor interface {
	Run(ctx context.Context, name string, arg ...string) ([]byte, error)
}

type realExecutor struct{}

func (e *realExecutor) Run(ctx context.Context, name string, arg ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, arg...).CombinedOutput()
}

// SystemVIPAdapter implements the VIPManager port by executing system
// commands to attach or detach the service VIP on a local interface.
type SystemVIPAdapter struct {
	logger   *slog.Logger
	executor commandExecutor
	os       string // for testing
}

// NewSystemVIPAdapter initializes a new SystemVIPAdapter.
func NewSystemVIPAdapter(logger *slog.Logger) *SystemVIPAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemVIPAdapter{
		logger:   logger,
		executor: &realExecutor{},
		os:       runtime.GOOS,
	}
}

// Bind attaches the VIP to the specified interface. Binding an address that
// is already present is treated as success.
func (a *SystemVIPAdapter) Bind(ctx context.Context, vip, iface string) error {
	name, args, err := a.command(vip, iface, true)
	if err != nil {
		return err
	}

	output, errRun := a.executor.Run(ctx, name, args...)
	if errRun != nil {
		outStr := string(output)
		if strings.Contains(outStr, "File exists") || strings.Contains(outStr, "already bound") {
			a.logger.Info("VIP already bound", "vip", vip, "iface", iface)
			return nil
		}
		a.logger.Warn("VIP bind command failed", "error", errRun, "vip", vip, "output", outStr)
		return fmt.Errorf("failed to bind VIP: %w (output: %s)", errRun, outStr)
	}

	a.logger.Info("bound VIP to interface", "vip", vip, "iface", iface)
	return nil
}

// Unbind removes the VIP from the specified interface.
func (a *SystemVIPAdapter) Unbind(ctx context.Context, vip, iface string) error {
	name, args, err := a.command(vip, iface, false)
	if err != nil {
		return err
	}

	output, errRun := a.executor.Run(ctx, name, args...)
	if errRun != nil {
		outStr := string(output)
		a.logger.Warn("VIP unbind command failed", "error", errRun, "vip", vip, "output", outStr)
		return fmt.Errorf("failed to unbind VIP: %w (output: %s)", errRun, outStr)
	}

	a.logger.Info("unbound VIP from interface", "vip", vip, "iface", iface)
	return nil
}

// command validates inputs and builds the platform address command.
func (a *SystemVIPAdapter) command(vip, iface string, bind bool) (string, []string, error) {
	if net.ParseIP(vip) == nil {
		return "", nil, fmt.Errorf("invalid VIP address: %s", vip)
	}
	if iface == "" {
		return "", nil, fmt.Errorf("interface name cannot be empty")
	}

	switch a.os {
	case "linux":
		action := "add"
		if !bind {
			action = "del"
		}
		return "ip", []string{"addr", action, vip + "/32", "dev", iface}, nil
	case "darwin":
		if bind {
			return "ifconfig", []string{iface, "alias", vip, "255.255.255.255"}, nil
		}
		return "ifconfig", []string{iface, "-alias", vip}, nil
	default:
		return "", nil, fmt.Errorf("unsupported OS for VIP management: %s", a.os)
	}
}

var _ ports.VIPManager = (*SystemVIPAdapter)(nil)
