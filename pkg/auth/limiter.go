package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterPool keeps one token bucket per identifier (API key, or client IP
// when auth is off). Idle entries are evicted after ttl.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*limiterEntry
	rps   rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	startCleanup sync.Once
	stop         chan struct{}
}

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	return &limiterPool{
		m:     make(map[string]*limiterEntry),
		rps:   rate.Limit(rps),
		burst: burst,
		ttl:   10 * time.Minute,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
}

// Allow reports whether key may make a request now.
func (p *limiterPool) Allow(key string) bool {
	p.startCleanup.Do(func() { go p.cleanupLoop(time.Minute) })

	p.mu.Lock()
	e, ok := p.m[key]
	if !ok {
		e = &limiterEntry{l: rate.NewLimiter(p.rps, p.burst)}
		p.m[key] = e
	}
	now := p.now()
	e.lastSeen = now
	p.mu.Unlock()

	return e.l.AllowN(now, 1)
}

func (p *limiterPool) cleanupLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.evict()
		case <-p.stop:
			return
		}
	}
}

func (p *limiterPool) evict() {
	cutoff := p.now().Add(-p.ttl)
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, e := range p.m {
		if e.lastSeen.Before(cutoff) {
			delete(p.m, k)
		}
	}
}

func (p *limiterPool) Close() {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
}
