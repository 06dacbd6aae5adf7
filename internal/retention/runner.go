package retention

import (
	"context"
	"fmt"
	"time"

	"chatlog/pkg/logger"
	"chatlog/pkg/store"
)

const maxConsecutiveRenewFails = 3

// Summary reports one retention run.
type Summary struct {
	RunID      string    `json:"run_id"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Chats      int       `json:"chats"`
	Rewritten  int       `json:"rewritten"`
	Dropped    int       `json:"dropped"`
	Archived   int       `json:"archived"`
	Failed     int       `json:"failed"`
}

// runOnce takes the lease, prunes every chat under its lock and writes the
// audit trail.
func (m *Manager) runOnce(ctx context.Context) (Summary, error) {
	ttl := m.cfg.LockTTL.Duration()
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	owner := m.newRunID()
	acq, err := m.lease.Acquire(owner, ttl)
	if err != nil {
		return Summary{}, fmt.Errorf("lease acquire failed: %w", err)
	}
	if !acq {
		logger.Info("retention_lease_not_acquired")
		return Summary{}, ErrLeaseHeld
	}
	defer func() {
		if err := m.lease.Release(owner); err != nil {
			logger.Error("retention_lease_release_error", "owner", owner, "error", err)
		}
	}()

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	go m.heartbeat(runCtx, runCancel, owner, ttl)

	sum := Summary{RunID: owner, DryRun: m.cfg.DryRun, StartedAt: m.now()}
	logger.Info("retention_run_start", "run_id", sum.RunID, "dry_run", sum.DryRun)
	logger.AuditInfo("retention_audit_header",
		"run_id", sum.RunID,
		"started_at", sum.StartedAt.Format(time.RFC3339),
		"dry_run", sum.DryRun,
		"max_count", m.cfg.MaxCount,
		"max_age_days", m.cfg.MaxAgeDays,
	)

	ids, err := m.store.ChatIDs()
	if err != nil {
		return sum, fmt.Errorf("list chats: %w", err)
	}
	for _, chatID := range ids {
		if err := runCtx.Err(); err != nil {
			return sum, fmt.Errorf("retention run aborted: %w", err)
		}
		sum.Chats++

		var res store.PruneResult
		err := m.locks.WithLock(chatID, func() error {
			var perr error
			if m.cfg.DryRun {
				res, perr = m.store.PlanPrune(chatID, m.cfg.MaxCount, m.cfg.MaxAgeDays)
			} else {
				res, perr = m.store.Prune(chatID, m.cfg.MaxCount, m.cfg.MaxAgeDays)
			}
			return perr
		})
		if err != nil {
			sum.Failed++
			logger.AuditInfo("retention_audit_item", "run_id", sum.RunID, "chat_id", chatID, "status", "failed", "error", err.Error())
			logger.Error("retention_prune_failed", "chat_id", chatID, "error", err)
			continue
		}
		if res.Dropped == 0 {
			continue
		}
		sum.Dropped += res.Dropped
		sum.Archived += res.Archived
		status := "dry_run"
		if res.Rewritten {
			sum.Rewritten++
			status = "pruned"
		}
		logger.AuditInfo("retention_audit_item",
			"run_id", sum.RunID,
			"chat_id", chatID,
			"status", status,
			"raw", res.Raw,
			"retained", res.Retained,
			"dropped", res.Dropped,
			"archived", res.Archived,
		)
	}

	sum.FinishedAt = m.now()
	logger.AuditInfo("retention_audit_footer",
		"run_id", sum.RunID,
		"chats", sum.Chats,
		"rewritten", sum.Rewritten,
		"dropped", sum.Dropped,
		"failed", sum.Failed,
	)
	logger.Info("retention_run_complete", "run_id", sum.RunID, "chats", sum.Chats, "rewritten", sum.Rewritten, "dropped", sum.Dropped, "failed", sum.Failed)
	return sum, nil
}

// heartbeat renews the lease every ttl/3 and cancels the run after
// repeated renewal failures.
func (m *Manager) heartbeat(ctx context.Context, abort context.CancelFunc, owner string, ttl time.Duration) {
	t := time.NewTicker(ttl / 3)
	defer t.Stop()
	fails := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := m.lease.Renew(owner, ttl); err != nil {
				fails++
				logger.Error("retention_lease_renew_failed", "owner", owner, "error", err, "count", fails)
				if fails >= maxConsecutiveRenewFails {
					abort()
					return
				}
				continue
			}
			fails = 0
		}
	}
}
