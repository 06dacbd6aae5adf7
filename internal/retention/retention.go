// Package retention prunes every chat log on a cron schedule.
package retention

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/oklog/ulid/v2"

	"chatlog/pkg/config"
	"chatlog/pkg/ingest"
	"chatlog/pkg/logger"
	"chatlog/pkg/store"
)

// ErrLeaseHeld is returned by RunImmediate when another run holds the lease.
var ErrLeaseHeld = errors.New("retention lease held by another run")

// Options wires a Manager.
type Options struct {
	Store *store.Store
	// Locks are the per-chat locks shared with the ingestor.
	Locks  *ingest.ChatLocks
	Config config.RetentionConfig
	// LeaseDir holds the retention lease file.
	LeaseDir string
	Now      func() time.Time
}

type Manager struct {
	store    *store.Store
	locks    *ingest.ChatLocks
	cfg      config.RetentionConfig
	lease    *fileLease
	now      func() time.Time
	newRunID func() string

	mu      sync.Mutex
	running bool
}

func New(opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	locks := opts.Locks
	if locks == nil {
		locks = ingest.NewChatLocks()
	}
	m := &Manager{
		store: opts.Store,
		locks: locks,
		cfg:   opts.Config,
		lease: newFileLease(opts.LeaseDir, now),
		now:   now,
	}
	m.newRunID = func() string {
		return ulid.MustNew(ulid.Timestamp(m.now()), rand.Reader).String()
	}
	return m
}

// Start runs the schedule loop until ctx is done or the returned cancel is
// called. A disabled config starts nothing.
func (m *Manager) Start(ctx context.Context) (context.CancelFunc, error) {
	if !m.cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}
	if !gronx.New().IsValid(m.cfg.Cron) {
		return nil, errors.New("invalid retention cron: " + m.cfg.Cron)
	}
	ctx2, cancel := context.WithCancel(ctx)
	logger.Info("retention_enabled", "cron", m.cfg.Cron, "max_count", m.cfg.MaxCount, "max_age_days", m.cfg.MaxAgeDays, "dry_run", m.cfg.DryRun)
	go m.scheduleLoop(ctx2)
	return cancel, nil
}

// RunImmediate runs one pass now, outside the schedule.
func (m *Manager) RunImmediate(ctx context.Context) (Summary, error) {
	return m.runJob(ctx)
}

func (m *Manager) scheduleLoop(ctx context.Context) {
	for {
		next, err := gronx.NextTickAfter(m.cfg.Cron, m.now(), false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", m.cfg.Cron, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		wait := next.Sub(m.now())
		if wait < 0 {
			wait = 0
		}
		select {
		case <-time.After(wait):
			if _, err := m.runJob(ctx); err != nil && !errors.Is(err, ErrLeaseHeld) {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// runJob guards against overlapping runs inside this process; the lease
// guards across processes.
func (m *Manager) runJob(ctx context.Context) (Summary, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return Summary{}, ErrLeaseHeld
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	sum, err := m.runOnce(ctx)
	switch {
	case err == nil:
		runsTotal.WithLabelValues("ok").Inc()
		lastRunDropped.Set(float64(sum.Dropped))
	case errors.Is(err, ErrLeaseHeld):
		runsTotal.WithLabelValues("skipped").Inc()
	default:
		runsTotal.WithLabelValues("error").Inc()
	}
	return sum, err
}
