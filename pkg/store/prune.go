package store

import (
	"fmt"

	"github.com/valyala/bytebufferpool"

	"chatlog/pkg/logger"
	"chatlog/pkg/models"
)

const secondsPerDay = 24 * 60 * 60

// PruneResult describes a prune, planned or applied.
type PruneResult struct {
	ChatID    int64 `json:"chat_id"`
	Raw       int   `json:"raw"`
	Retained  int   `json:"retained"`
	Dropped   int   `json:"dropped"`
	Skipped   int   `json:"skipped_lines"`
	Rewritten bool  `json:"rewritten"`
	Archived  int   `json:"archived"`
}

type prunePlan struct {
	raw    []models.MessageRecord
	keep   []int // positions into raw, canonical order
	result PruneResult
}

func (p prunePlan) retained() []models.MessageRecord {
	out := make([]models.MessageRecord, len(p.keep))
	for i, j := range p.keep {
		out[i] = p.raw[j]
	}
	return out
}

func (p prunePlan) dropped() []models.MessageRecord {
	kept := make(map[int]struct{}, len(p.keep))
	for _, j := range p.keep {
		kept[j] = struct{}{}
	}
	out := make([]models.MessageRecord, 0, len(p.raw)-len(p.keep))
	for i, r := range p.raw {
		if _, ok := kept[i]; !ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) planPrune(chatID int64, maxCount, maxAgeDays int) (prunePlan, error) {
	read, err := s.ReadAll(chatID)
	if err != nil {
		return prunePlan{}, err
	}
	keep := canonicalIndexes(read.Records)
	if maxAgeDays > 0 {
		cutoff := s.now().Unix() - int64(maxAgeDays)*secondsPerDay
		fresh := make([]int, 0, len(keep))
		for _, j := range keep {
			if read.Records[j].Date >= cutoff {
				fresh = append(fresh, j)
			}
		}
		keep = fresh
	}
	if maxCount > 0 && len(keep) > maxCount {
		keep = keep[len(keep)-maxCount:]
	}
	return prunePlan{
		raw:  read.Records,
		keep: keep,
		result: PruneResult{
			ChatID:   chatID,
			Raw:      len(read.Records),
			Retained: len(keep),
			Dropped:  len(read.Records) - len(keep),
			Skipped:  read.Skipped,
		},
	}, nil
}

// PlanPrune reports what Prune would do without touching disk.
func (s *Store) PlanPrune(chatID int64, maxCount, maxAgeDays int) (PruneResult, error) {
	if maxCount <= 0 && maxAgeDays <= 0 {
		return PruneResult{ChatID: chatID}, nil
	}
	p, err := s.planPrune(chatID, maxCount, maxAgeDays)
	return p.result, err
}

// Prune rewrites a chat's log down to its canonical view, minus records
// older than maxAgeDays and beyond the newest maxCount. A limit <= 0 is
// unset; with neither set Prune does nothing. The log is only rewritten when
// it would shrink, after which the chat's messageCount is synced to the
// retained count. Dropped history is gone unless an Archiver is configured.
func (s *Store) Prune(chatID int64, maxCount, maxAgeDays int) (PruneResult, error) {
	if maxCount <= 0 && maxAgeDays <= 0 {
		return PruneResult{ChatID: chatID}, nil
	}
	plan, err := s.planPrune(chatID, maxCount, maxAgeDays)
	if err != nil {
		return PruneResult{}, err
	}
	res := plan.result
	if res.Retained >= res.Raw {
		return res, nil
	}

	if s.archive != nil {
		dropped := plan.dropped()
		if err := s.archive.Archive(chatID, dropped); err != nil {
			return res, fmt.Errorf("archive pruned records of chat %d: %w", chatID, err)
		}
		res.Archived = len(dropped)
	}

	if err := s.rewriteLog(chatID, plan.retained()); err != nil {
		return res, err
	}
	res.Rewritten = true
	pruneRewritesTotal.Inc()
	prunedRecordsTotal.Add(float64(res.Dropped))

	if err := s.syncMessageCount(chatID, int64(res.Retained)); err != nil {
		return res, err
	}
	logger.Info("chat_log_pruned", "chat_id", chatID, "raw", res.Raw, "retained", res.Retained, "archived", res.Archived)
	return res, nil
}

func (s *Store) rewriteLog(chatID int64, records []models.MessageRecord) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for _, rec := range records {
		if err := encodeLine(buf, rec); err != nil {
			return fmt.Errorf("encode chat %d log: %w", chatID, err)
		}
	}
	if err := writeFileAtomic(s.logPath(chatID), buf.B, 0o600); err != nil {
		return fmt.Errorf("rewrite chat %d log: %w", chatID, err)
	}
	return nil
}
