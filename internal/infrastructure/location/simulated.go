package location

import (
	"context"
	"sync"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/location"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SIMULATED SOURCE
// Dev-mode and test backend: fixes are injected by hand instead of arriving
// from device hardware.
// ══════════════════════════════════════════════════════════════════════════════

// SimulatedSource is a Source whose fixes are set programmatically.
type SimulatedSource struct {
	mu      sync.Mutex
	status  location.AuthorizationStatus
	current *location.Position
	waiters []chan *location.Position
}

// NewSimulatedSource creates an authorized source with no fix.
func NewSimulatedSource() *SimulatedSource {
	return &SimulatedSource{status: location.AuthorizationAuthorized}
}

// SetAuthorization changes the simulated permission status.
func (s *SimulatedSource) SetAuthorization(status location.AuthorizationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// SetFix installs a fix at the given coordinate, stamped now, and wakes any
// pending waiters.
func (s *SimulatedSource) SetFix(coord shared.Coordinate, accuracyMeters float64) {
	s.PushFix(&location.Position{
		Coordinate:     coord,
		AccuracyMeters: accuracyMeters,
		Timestamp:      time.Now(),
	})
}

// PushFix installs an arbitrary fix, preserving its timestamp.
func (s *SimulatedSource) PushFix(fix *location.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = fix
	for _, w := range s.waiters {
		copied := *fix
		w <- &copied
	}
	s.waiters = nil
}

// ClearFix drops the cached fix.
func (s *SimulatedSource) ClearFix() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Authorization implements Source.
func (s *SimulatedSource) Authorization() location.AuthorizationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastKnown implements Source.
func (s *SimulatedSource) LastKnown() *location.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// WaitForFix implements Source. Blocks until the next PushFix or ctx done.
func (s *SimulatedSource) WaitForFix(ctx context.Context) (*location.Position, error) {
	waiter := make(chan *location.Position, 1)
	s.mu.Lock()
	s.waiters = append(s.waiters, waiter)
	s.mu.Unlock()

	select {
	case fix := <-waiter:
		return fix, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
