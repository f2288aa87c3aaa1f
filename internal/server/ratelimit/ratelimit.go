package ratelimit

import (
	"sync"
	"time"
)

// Config controls the fixed-window limiter.
type Config struct {
	Enabled         bool
	Limit           int
	Window          time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig returns the production defaults: 10 requests per minute per
// client, with expired records swept every five minutes.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Limit:           10,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// Info describes the limiter's decision for one request. It carries
// everything a handler needs to set rate-limit response headers.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter enforces a fixed-window request budget per client ID.
type Limiter struct {
	config *Config
	store  Store
	now    func() time.Time

	// mu serializes the check-then-set in Allow so concurrent requests from
	// the same client cannot both observe the count below the limit.
	mu   sync.Mutex
	stop chan struct{}
	once sync.Once
}

// NewLimiter creates a limiter backed by an in-process store. A nil config
// gets the defaults.
func NewLimiter(config *Config) *Limiter {
	return NewLimiterWithStore(config, NewMemoryStore(), time.Now)
}

// NewLimiterWithStore creates a limiter with an explicit store and clock.
// Tests use this to drive the window deterministically.
func NewLimiterWithStore(config *Config, store Store, now func() time.Time) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	if now == nil {
		now = time.Now
	}
	l := &Limiter{
		config: config,
		store:  store,
		now:    now,
		stop:   make(chan struct{}),
	}
	if evicter, ok := store.(Evicter); ok && config.CleanupInterval > 0 {
		go l.cleanupLoop(evicter)
	}
	return l
}

// Allow records one request for clientID and reports whether it is within
// the window budget. The first request after a window elapses starts a fresh
// window rather than carrying the old count forward.
func (l *Limiter) Allow(clientID string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true, Limit: l.config.Limit, Remaining: l.config.Limit}
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.store.Get(clientID)
	if !ok || now.After(record.ResetAt) {
		record = Record{Count: 1, ResetAt: now.Add(l.config.Window)}
		l.store.Set(clientID, record)
		return true, Info{
			Allowed:   true,
			Limit:     l.config.Limit,
			Remaining: l.config.Limit - 1,
			ResetAt:   record.ResetAt,
		}
	}

	if record.Count < l.config.Limit {
		record.Count++
		l.store.Set(clientID, record)
		return true, Info{
			Allowed:   true,
			Limit:     l.config.Limit,
			Remaining: l.config.Limit - record.Count,
			ResetAt:   record.ResetAt,
		}
	}

	return false, Info{
		Allowed:    false,
		Limit:      l.config.Limit,
		Remaining:  0,
		ResetAt:    record.ResetAt,
		RetryAfter: record.ResetAt.Sub(now),
	}
}

// Stop halts the background cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop(evicter Evicter) {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			evicter.Evict(l.now())
		case <-l.stop:
			return
		}
	}
}
