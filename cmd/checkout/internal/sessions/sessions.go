package sessions

import (
	"context"
	"sync"
	"time"

	"anarchy.ttfm/payin/quote"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Config struct {
	// Transport to the merchant API
	Service quote.Service
	// How long an idle session survives before eviction
	TTL time.Duration
	// Tick interval handed to the machines
	Interval time.Duration
	// How often idle sessions are swept
	SweepInterval time.Duration
	// Logger to use
	Logger zerolog.Logger
}

const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

type session struct {
	machine  *quote.Machine
	cancel   context.CancelFunc
	runCtx   context.Context
	once     sync.Once
	lastSeen time.Time
}

// start performs the initial fetch and launches the countdown loop
// exactly once, no matter how many visitors race on the first load
func (s *session) start(ctx context.Context) {
	s.once.Do(func() {
		s.machine.Start(ctx)
		go s.machine.Run(s.runCtx)
	})
}

// Registry holds one accept stage machine per active transaction so
// the acceptance countdown keeps refreshing quotes between page loads
type Registry struct {
	service  quote.Service
	ttl      time.Duration
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	done     chan struct{}
}

func New(config Config) (r *Registry) {
	r = &Registry{
		service:  config.Service,
		ttl:      config.TTL,
		interval: config.Interval,
		logger:   config.Logger,
		sessions: make(map[uuid.UUID]*session),
		done:     make(chan struct{}),
	}
	if r.ttl <= 0 {
		r.ttl = DefaultTTL
	}

	sweep := config.SweepInterval
	if sweep <= 0 {
		sweep = DefaultSweepInterval
	}
	go r.janitor(sweep)
	return r
}

// Acquire returns the machine owning the transaction, creating and
// starting it on first visit. The machine's countdown loop runs until
// the session is evicted
func (r *Registry) Acquire(ctx context.Context, id uuid.UUID) (m *quote.Machine) {
	r.mu.Lock()
	entry, found := r.sessions[id]
	if !found {
		runCtx, cancel := context.WithCancel(context.Background())
		entry = &session{
			machine: quote.New(quote.Config{
				Id:       id,
				Service:  r.service,
				Interval: r.interval,
				Logger:   r.logger,
			}),
			cancel: cancel,
			runCtx: runCtx,
		}
		r.sessions[id] = entry
	}
	entry.lastSeen = time.Now()
	r.mu.Unlock()

	entry.start(ctx)
	return entry.machine
}

// Evict drops the session and stops its countdown loop
func (r *Registry) Evict(id uuid.UUID) {
	r.mu.Lock()
	entry, found := r.sessions[id]
	if found {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if found {
		entry.cancel()
	}
}

// Len reports the number of live sessions
func (r *Registry) Len() (n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the janitor and every session loop
func (r *Registry) Close() {
	close(r.done)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.sessions {
		entry.cancel()
		delete(r.sessions, id)
	}
}

func (r *Registry) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Registry) sweep() {
	deadline := time.Now().Add(-r.ttl)

	r.mu.Lock()
	var evicted []*session
	for id, entry := range r.sessions {
		if entry.lastSeen.Before(deadline) {
			evicted = append(evicted, entry)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, entry := range evicted {
		entry.cancel()
	}
	if len(evicted) > 0 {
		r.logger.Debug().Int("count", len(evicted)).Msg("evicted idle checkout sessions")
	}
}
