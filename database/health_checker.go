package database

import (
	"context"
	"fmt"
)

// HealthChecker pings every database instance
type HealthChecker struct {
	manager *Manager
}

func NewHealthChecker(manager *Manager) *HealthChecker {
	return &HealthChecker{manager: manager}
}

func (h *HealthChecker) Name() string {
	return "database"
}

func (h *HealthChecker) Check(ctx context.Context) error {
	if h.manager == nil {
		return fmt.Errorf("database manager not initialized")
	}
	if len(h.manager.Names()) == 0 {
		return fmt.Errorf("no database instances configured")
	}
	return h.manager.Ping(ctx)
}
