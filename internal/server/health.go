package server

import (
	"context"

	"github.com/utopialabs/utopia/internal/store"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// StoreHealthService verifies that the reference store is readable as
// part of health checks.
type StoreHealthService struct {
	Store *store.Store
}

// Probe implements the HealthService interface.
func (s StoreHealthService) Probe(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	snap := s.Store.Snapshot()
	defer snap.Close()
	_, _, err := snap.Get(store.TableUsers, store.UserKey(0))
	return err
}
