package services

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/poyrazK/hora/internal/core/ports"
)

// AnycastManager gates the BGP announcement of the service VIP on backend
// health. A node that loses Postgres or Redis withdraws its route so logins
// drain to healthy peers; it re-announces once both stores answer again.
type AnycastManager struct {
	auth       ports.AuthService
	routing    ports.RoutingEngine
	vipManager ports.VIPManager
	vip        string
	iface      string
	interval   time.Duration
	logger     *slog.Logger

	announced atomic.Bool
	vipBound  atomic.Bool
}

func NewAnycastManager(
	auth ports.AuthService,
	routing ports.RoutingEngine,
	vipManager ports.VIPManager,
	vip string,
	iface string,
	interval time.Duration,
	logger *slog.Logger,
) *AnycastManager {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &AnycastManager{
		auth:       auth,
		routing:    routing,
		vipManager: vipManager,
		vip:        vip,
		iface:      iface,
		interval:   interval,
		logger:     logger,
	}
}

// Run checks health on a fixed interval until the context is cancelled,
// then withdraws the route so peers stop sending traffic to a dying node.
func (m *AnycastManager) Run(ctx context.Context) {
	m.logger.Info("starting anycast manager", "vip", m.vip, "iface", m.iface, "interval", m.interval)

	m.reconcile(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("anycast manager stopping, withdrawing route", "vip", m.vip)
			if err := m.routing.Withdraw(context.Background(), m.vip); err != nil {
				m.logger.Error("failed to withdraw route on shutdown", "vip", m.vip, "error", err)
			}
			return
		case <-ticker.C:
			m.reconcile(ctx)
		}
	}
}

// reconcile moves the announcement state toward the current health state.
func (m *AnycastManager) reconcile(ctx context.Context) {
	healthy := true
	for backend, err := range m.auth.HealthCheck(ctx) {
		if err != nil {
			m.logger.Warn("backend unhealthy", "backend", backend, "error", err)
			healthy = false
		}
	}

	switch {
	case healthy && !m.announced.Load():
		m.announce(ctx)
	case !healthy && m.announced.Load():
		m.withdraw(ctx)
	}
}

func (m *AnycastManager) announce(ctx context.Context) {
	if !m.vipBound.Load() {
		if err := m.vipManager.Bind(ctx, m.vip, m.iface); err != nil {
			m.logger.Error("failed to bind VIP", "vip", m.vip, "iface", m.iface, "error", err)
			return
		}
		m.vipBound.Store(true)
	}

	if err := m.routing.Announce(ctx, m.vip); err != nil {
		m.logger.Error("failed to announce route", "vip", m.vip, "error", err)
		return
	}
	m.announced.Store(true)
	m.logger.Info("announced anycast VIP", "vip", m.vip)
}

func (m *AnycastManager) withdraw(ctx context.Context) {
	if err := m.routing.Withdraw(ctx, m.vip); err != nil {
		// Keep claiming announced so the next pass retries the withdrawal.
		m.logger.Error("failed to withdraw route", "vip", m.vip, "error", err)
		return
	}
	m.announced.Store(false)
	m.logger.Warn("withdrew anycast VIP", "vip", m.vip)
	// The VIP stays bound locally so health probes against it keep working.
}
