package watch

import (
	"errors"
	"fmt"
	"time"

	"noveldigest/internal/history"
	"noveldigest/internal/logger"
	"noveldigest/internal/summaries"
)

// ErrInvalidAge rejects a non-positive retention age.
var ErrInvalidAge = errors.New("retention age must be positive")

// Cleaner applies pure age-based retention to summaries and history. It
// runs on its own schedule, independent of reconciliation.
type Cleaner struct {
	summaries *summaries.Repo
	history   *history.Repo
	log       logger.Logger
}

// CleanupResult reports how many records a cleanup removed.
type CleanupResult struct {
	SummariesRemoved int `json:"summariesRemoved"`
	HistoryRemoved   int `json:"historyRemoved"`
}

func NewCleaner(summaryRepo *summaries.Repo, historyRepo *history.Repo, log logger.Logger) *Cleaner {
	return &Cleaner{summaries: summaryRepo, history: historyRepo, log: log}
}

// Cleanup deletes summary and history entries older than maxAgeDays.
func (c *Cleaner) Cleanup(maxAgeDays int) (CleanupResult, error) {
	if maxAgeDays <= 0 {
		return CleanupResult{}, fmt.Errorf("%w: got %d", ErrInvalidAge, maxAgeDays)
	}
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)

	var result CleanupResult
	var err error

	result.SummariesRemoved, err = c.summaries.DeleteOlderThan(cutoff)
	if err != nil {
		return result, fmt.Errorf("cleanup summaries: %w", err)
	}
	result.HistoryRemoved, err = c.history.DeleteOlderThan(cutoff)
	if err != nil {
		return result, fmt.Errorf("cleanup history: %w", err)
	}

	c.log.Info("retention cleanup finished",
		logger.Int("maxAgeDays", maxAgeDays),
		logger.Int("summariesRemoved", result.SummariesRemoved),
		logger.Int("historyRemoved", result.HistoryRemoved))
	return result, nil
}
