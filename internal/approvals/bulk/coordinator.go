// internal/approvals/bulk/coordinator.go
package bulk

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"approval-console/internal/approvals/selection"
	"approval-console/internal/approvals/transition"
	"approval-console/internal/common/errors"
	"approval-console/internal/common/logger"
	"approval-console/internal/common/metrics"
	"approval-console/internal/models"
)

// Action is the bulk operation applied to every target.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionActivate Action = "activate"
	ActionBlock    Action = "block"
)

// Request describes one bulk run over the selected records.
type Request struct {
	Action  Action
	Reason  string
	Targets []selection.Key
}

// Refetcher re-issues the current QuerySpec page. A bulk action changes the
// membership of a status-filtered list, so a per-item patch is insufficient.
type Refetcher interface {
	Refetch(ctx context.Context) error
}

// Coordinator fans a status transition out across the selected records,
// collects every outcome, and resynchronizes the page afterwards.
type Coordinator struct {
	transitions *transition.Manager
	selected    *selection.Set
	refetcher   Refetcher
	logger      logger.Logger
}

func NewCoordinator(transitions *transition.Manager, selected *selection.Set, refetcher Refetcher, log logger.Logger) *Coordinator {
	return &Coordinator{
		transitions: transitions,
		selected:    selected,
		refetcher:   refetcher,
		logger:      log.WithFields(map[string]interface{}{"component": "bulk"}),
	}
}

// Run validates the request atomically, dispatches one transition per
// target concurrently, and waits for all of them to settle. No target is
// skipped because another failed, and every target is attempted exactly
// once. Results come back in input order.
//
// After the join the current page is re-fetched exactly once and the
// selection is cleared, regardless of the outcome. A run with failures
// returns the results alongside a *errors.PartialBulkFailure.
func (c *Coordinator) Run(ctx context.Context, req Request) ([]models.PendingResult, error) {
	if len(req.Targets) == 0 {
		return nil, errors.NewValidationError("targets", "No records selected")
	}
	// Atomic validation: with a missing reason none of the requests is sent.
	if req.Action == ActionReject && strings.TrimSpace(req.Reason) == "" {
		return nil, errors.NewValidationError("reason", "A rejection reason is required")
	}

	c.logger.Info("starting bulk run", map[string]interface{}{
		"action":  string(req.Action),
		"targets": len(req.Targets),
	})
	metrics.BulkTargets.WithLabelValues(string(req.Action)).Observe(float64(len(req.Targets)))

	results := make([]models.PendingResult, len(req.Targets))
	var wg sync.WaitGroup
	for i, target := range req.Targets {
		wg.Add(1)
		go func(i int, target selection.Key) {
			defer wg.Done()
			err := c.dispatch(ctx, req, target)
			results[i] = models.PendingResult{ID: target.ID, Success: err == nil}
			if err != nil {
				results[i].Error = err.Error()
			}
		}(i, target)
	}
	wg.Wait()

	succeeded, failed := tally(results)

	// Fan-out is done; resync the page once so resolved records leave a
	// status-filtered view.
	if err := c.refetcher.Refetch(ctx); err != nil {
		c.logger.WithError(err).Warn("post-bulk refetch failed", map[string]interface{}{
			"action": string(req.Action),
		})
	}
	c.selected.Clear()

	if failed > 0 {
		metrics.BulkRuns.WithLabelValues(string(req.Action), "partial").Inc()
		return results, errors.NewPartialBulkFailure(string(req.Action), succeeded, failed)
	}
	metrics.BulkRuns.WithLabelValues(string(req.Action), "success").Inc()
	return results, nil
}

func (c *Coordinator) dispatch(ctx context.Context, req Request, target selection.Key) error {
	switch req.Action {
	case ActionApprove:
		if target.Kind != models.KindLoan {
			return errors.NewValidationError("action", "approve applies to loans only")
		}
		return c.transitions.ApproveLoan(ctx, target.ID)
	case ActionReject:
		if target.Kind != models.KindLoan {
			return errors.NewValidationError("action", "reject applies to loans only")
		}
		return c.transitions.RejectLoan(ctx, target.ID, req.Reason)
	case ActionActivate:
		if target.Kind != models.KindCard {
			return errors.NewValidationError("action", "activate applies to cards only")
		}
		return c.transitions.SetCardStatus(ctx, target.ID, models.CardActive, req.Reason)
	case ActionBlock:
		if target.Kind != models.KindCard {
			return errors.NewValidationError("action", "block applies to cards only")
		}
		return c.transitions.SetCardStatus(ctx, target.ID, models.CardBlocked, req.Reason)
	}
	return errors.NewValidationError("action", "Unknown bulk action "+strconv.Quote(string(req.Action)))
}

func tally(results []models.PendingResult) (succeeded, failed int) {
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
