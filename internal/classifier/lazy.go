package classifier

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"MarketScout/internal/model"
)

// Lazy bootstraps a Model on first use. Callers arriving while the
// bootstrap runs block until it finishes; it never runs twice.
type Lazy struct {
	cfg Config

	// OnBootstrap, when set before first use, observes the bootstrap.
	OnBootstrap func(elapsed time.Duration, err error)

	once  sync.Once
	ready atomic.Bool
	model *Model
	err   error
}

// NewLazy creates a Lazy classifier for cfg.
func NewLazy(cfg Config) *Lazy {
	return &Lazy{cfg: cfg}
}

// Model returns the trained model, bootstrapping it if needed.
func (l *Lazy) Model() (*Model, error) {
	l.once.Do(func() {
		start := time.Now()
		l.model, l.err = Bootstrap(l.cfg)
		elapsed := time.Since(start)
		if l.err != nil {
			log.Error().Err(l.err).Msg("classifier bootstrap failed")
		} else {
			log.Info().
				Int64("seed", l.cfg.Seed).
				Int("trees", l.cfg.Trees).
				Dur("elapsed", elapsed).
				Msg("classifier bootstrapped")
		}
		if l.OnBootstrap != nil {
			l.OnBootstrap(elapsed, l.err)
		}
		l.ready.Store(true)
	})
	return l.model, l.err
}

// Warm starts the bootstrap in the background.
func (l *Lazy) Warm() {
	go func() { _, _ = l.Model() }()
}

// Ready reports whether the bootstrap has finished.
func (l *Lazy) Ready() bool { return l.ready.Load() }

// Classify bootstraps if necessary and classifies f.
func (l *Lazy) Classify(f Features) (model.Verdict, error) {
	m, err := l.Model()
	if err != nil {
		return model.Verdict{}, err
	}
	return m.Classify(f)
}
