// Package hawl implements the periodic Nisab detection scan: it opens a
// draft record the day a user's zakatable wealth first meets the Nisab
// threshold, and marks a running Hawl interrupted the day wealth drops
// below the threshold locked at its start.
package hawl

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hawltrack/internal/models"
	"hawltrack/internal/pricing"
	"hawltrack/internal/services"
)

// ThresholdResolver resolves the current Nisab threshold for a basis.
type ThresholdResolver interface {
	GetNisabThreshold(ctx context.Context, basis pricing.Metal) pricing.Threshold
}

// ScanError records a per-user failure. One user's bad data never stops
// the scan for everyone else.
type ScanError struct {
	UserID string
	Err    error
}

// RunResult contains the outcome of one scan cycle.
type RunResult struct {
	UsersScanned  int
	DraftsCreated int
	Interruptions int
	Errors        []ScanError
	Duration      time.Duration
}

// Scanner walks all active users once per cycle.
type Scanner struct {
	db        *gorm.DB
	prices    ThresholdResolver
	agg       services.AggregationServicer
	lifecycle services.LifecycleServicer
	logger    *zap.SugaredLogger
}

// NewScanner creates a Scanner.
func NewScanner(db *gorm.DB, prices ThresholdResolver, agg services.AggregationServicer, lifecycle services.LifecycleServicer, logger *zap.SugaredLogger) *Scanner {
	return &Scanner{
		db:        db,
		prices:    prices,
		agg:       agg,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Run executes a single scan cycle over all active users. Re-running the
// scan without intervening wealth changes is a no-op.
func (s *Scanner) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{}

	var users []models.User
	if err := s.db.Where("is_active = ?", true).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	for i := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.UsersScanned++

		created, interrupted, err := s.scanUser(ctx, &users[i])
		if err != nil {
			s.logger.Warnw("user scan failed, skipping",
				"user_id", users[i].ID,
				"error", err,
			)
			result.Errors = append(result.Errors, ScanError{UserID: users[i].ID, Err: err})
			continue
		}
		if created {
			result.DraftsCreated++
		}
		if interrupted {
			result.Interruptions++
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// scanUser applies the detection rules to one user.
func (s *Scanner) scanUser(ctx context.Context, user *models.User) (created, interrupted bool, err error) {
	draft, err := s.lifecycle.ActiveDraft(user.ID)
	if err != nil {
		return false, false, err
	}

	summary, err := s.agg.Aggregate(user.ID)
	if err != nil {
		return false, false, err
	}

	if draft != nil {
		// A running Hawl is measured against the threshold locked at its
		// start, never against today's price.
		if draft.IsActiveDraft() && summary.ZakatableWealth.LessThan(draft.NisabThresholdAtStart) {
			now := time.Now().UTC()
			if err := s.lifecycle.MarkInterrupted(user.ID, draft.ID, now, summary.ZakatableWealth); err != nil {
				return false, false, err
			}
			s.logger.Infow("hawl interrupted",
				"user_id", user.ID,
				"record_id", draft.ID,
				"zakatable_wealth", summary.ZakatableWealth,
				"threshold", draft.NisabThresholdAtStart,
			)
			return false, true, nil
		}
		return false, false, nil
	}

	threshold := s.prices.GetNisabThreshold(ctx, pricing.Metal(user.NisabBasis))

	// Meeting the threshold exactly counts as crossing it.
	if summary.ZakatableWealth.GreaterThanOrEqual(threshold.Amount) {
		now := time.Now().UTC()
		record, err := s.lifecycle.CreateDraft(user.ID, services.DraftSeed{
			HawlStartDate:  now,
			NisabBasis:     user.NisabBasis,
			NisabThreshold: threshold.Amount,
			Source:         string(threshold.Source),
		})
		if err != nil {
			return false, false, err
		}
		s.logger.Infow("hawl started",
			"user_id", user.ID,
			"record_id", record.ID,
			"threshold", threshold.Amount,
			"threshold_source", threshold.Source,
			"completion_date", record.HawlCompletionDate.Format("2006-01-02"),
		)
		return true, false, nil
	}

	return false, false, nil
}
