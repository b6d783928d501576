package denylist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wikifeeds-api/internal/models"
)

// Source supplies additional denylist entries, e.g. from the database
type Source interface {
	LoadAll(ctx context.Context) ([]models.DenylistEntry, error)
}

// Provider serves the current denylist: a fixed base list merged with the
// entries of an optional Source, reloaded periodically.
type Provider struct {
	base     DenyList
	source   Source
	interval time.Duration
	log      zerolog.Logger

	mu      sync.RWMutex
	current DenyList

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewProvider creates a Provider. source may be nil, in which case the base
// list is served unchanged.
func NewProvider(base DenyList, source Source, interval time.Duration, log zerolog.Logger) *Provider {
	if base == nil {
		base = DenyList{}
	}
	return &Provider{
		base:     base,
		source:   source,
		interval: interval,
		log:      log.With().Str("component", "denylist").Logger(),
		current:  base,
	}
}

// Current returns the denylist in effect
func (p *Provider) Current() DenyList {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Refresh reloads entries from the source. On failure the previous list stays in effect.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.source == nil {
		return nil
	}

	entries, err := p.source.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load denylist entries: %w", err)
	}

	merged := p.base.Merge(New(entries...))

	p.mu.Lock()
	p.current = merged
	p.mu.Unlock()

	p.log.Debug().Int("stored", len(entries)).Int("total", merged.Len()).Msg("Denylist refreshed")
	return nil
}

// Start reloads the list every interval until ctx is cancelled or Stop is called.
// It blocks, so callers usually run it in a goroutine.
func (p *Provider) Start(ctx context.Context) {
	if p.source == nil || p.interval <= 0 {
		return
	}

	p.runMu.Lock()
	if p.running {
		p.runMu.Unlock()
		return
	}
	p.running = true
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.runMu.Unlock()

	defer close(p.done)

	p.log.Info().Dur("interval", p.interval).Msg("Denylist refresher started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("Denylist refresher stopping")
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				p.log.Error().Err(err).Msg("Denylist refresh failed")
			}
		}
	}
}

// Stop ends a running refresh loop and waits for it to exit
func (p *Provider) Stop() {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	if !p.running {
		return
	}

	p.cancel()
	<-p.done
	p.running = false
}
