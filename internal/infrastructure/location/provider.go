// Package location implements the positioning port over a pluggable fix
// source. The provider enforces the exactly-once resolution contract: each
// request resolves with one fix, a denial, or a timeout, and a fix that
// arrives after its request expired is dropped.
package location

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/location"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIX SOURCE
// ══════════════════════════════════════════════════════════════════════════════

// Source is the raw positioning backend the provider draws fixes from. The
// mobile shell plugs the device's location services in here; tests and dev
// mode use SimulatedSource.
type Source interface {
	// Authorization returns the current permission status without prompting.
	Authorization() location.AuthorizationStatus

	// LastKnown returns the most recent cached fix, nil when there is none.
	LastKnown() *location.Position

	// WaitForFix blocks until the source produces a fix or ctx is done.
	WaitForFix(ctx context.Context) (*location.Position, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROVIDER
// ══════════════════════════════════════════════════════════════════════════════

// DefaultRequestTimeout bounds a position request when the caller passes no
// timeout of its own.
const DefaultRequestTimeout = 15 * time.Second

// Provider implements location.Port over a Source.
type Provider struct {
	source Source
	logger *slog.Logger
	clock  func() time.Time
}

// NewProvider creates a Provider over the given source.
func NewProvider(source Source, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		source: source,
		logger: logger,
		clock:  time.Now,
	}
}

// Authorization implements location.Port.
func (p *Provider) Authorization() location.AuthorizationStatus {
	return p.source.Authorization()
}

// RequestPosition implements location.Port. A fresh cached fix resolves the
// request immediately; otherwise the source is polled for a new fix until the
// timeout. Stale and coarse fixes are skipped, not delivered.
func (p *Provider) RequestPosition(ctx context.Context, timeout time.Duration) (*location.Position, error) {
	if p.source.Authorization() == location.AuthorizationDenied {
		return nil, shared.ErrLocationDenied
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	if cached := p.source.LastKnown(); cached != nil && cached.FreshAt(p.clock()) {
		fix := *cached
		return &fix, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// One goroutine per request. The buffered channel plus sync.Once keeps
	// the resolution single-fire: a fix that loses the race against the
	// deadline is dropped here and never reaches a later request.
	result := make(chan *location.Position, 1)
	var once sync.Once
	go func() {
		for {
			fix, err := p.source.WaitForFix(ctx)
			if err != nil {
				return
			}
			if fix == nil || !fix.FreshAt(p.clock()) {
				continue
			}
			once.Do(func() { result <- fix })
			return
		}
	}()

	select {
	case fix := <-result:
		return fix, nil
	case <-ctx.Done():
		if p.source.Authorization() == location.AuthorizationDenied {
			return nil, shared.ErrLocationDenied
		}
		p.logger.Debug("position request expired", "timeout", timeout)
		return nil, shared.ErrTimeout
	}
}
