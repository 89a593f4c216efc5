// internal/approvals/transition/transition.go
package transition

import (
	"context"
	"strings"
	"time"

	"approval-console/internal/approvals/cache"
	"approval-console/internal/approvals/client"
	"approval-console/internal/common/errors"
	"approval-console/internal/common/logger"
	"approval-console/internal/common/metrics"
	"approval-console/internal/models"
)

// Reasons recorded when the admin does not supply one for a card toggle.
const (
	DefaultActivateReason = "Card activated by admin"
	DefaultBlockReason    = "Card blocked by admin"
)

// DecisionHook is notified after the approvals service has acknowledged a
// transition. Implementations must not block and must swallow their own
// failures; a hook can never fail the transition it observes.
type DecisionHook interface {
	LoanDecided(ctx context.Context, app models.Application, action client.LoanAction, reason string)
	CardStatusChanged(ctx context.Context, app models.Application, status models.CardStatus, reason string)
}

// Manager validates and executes status transitions for single records.
//
// Loans follow a confirm-then-patch path: the cached view is only updated
// once the service acknowledges. Cards are optimistic: the view is patched
// when the request is sent and rolled back if it fails.
type Manager struct {
	api    client.Service
	cache  *cache.PageCache
	hooks  []DecisionHook
	logger logger.Logger
	now    func() time.Time
}

func NewManager(api client.Service, pageCache *cache.PageCache, log logger.Logger, hooks ...DecisionHook) *Manager {
	return &Manager{
		api:    api,
		cache:  pageCache,
		hooks:  hooks,
		logger: log.WithFields(map[string]interface{}{"component": "transition"}),
		now:    time.Now,
	}
}

// ApproveLoan resolves a pending loan as approved.
func (m *Manager) ApproveLoan(ctx context.Context, id string) error {
	return m.resolveLoan(ctx, id, client.LoanActionApprove, "")
}

// RejectLoan resolves a pending loan as rejected. The reason is mandatory.
func (m *Manager) RejectLoan(ctx context.Context, id, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return errors.NewValidationError("reason", "A rejection reason is required")
	}
	return m.resolveLoan(ctx, id, client.LoanActionReject, reason)
}

func (m *Manager) resolveLoan(ctx context.Context, id string, action client.LoanAction, reason string) error {
	view, ok := m.cache.Get(id)
	if !ok {
		return errors.NewInvalidTransitionError(id, "", string(action))
	}

	// Guard against double submission: once the local view has left
	// pending the call is refused before any network traffic.
	if view.LoanStatus != models.LoanPending {
		metrics.Transitions.WithLabelValues("loan", string(action), "guarded").Inc()
		return errors.NewInvalidTransitionError(id, string(view.LoanStatus), string(action))
	}

	if _, err := m.api.SetLoanStatus(ctx, id, action, reason); err != nil {
		metrics.Transitions.WithLabelValues("loan", string(action), "error").Inc()
		m.logger.WithError(err).Warn("loan transition rejected by service", map[string]interface{}{
			"id":     id,
			"action": string(action),
		})
		return err
	}

	// Patch the view to exactly what was sent; the single-item path never
	// re-fetches.
	patch := models.StatusPatch{}
	switch action {
	case client.LoanActionApprove:
		status := models.LoanApproved
		approvedAt := m.now()
		patch.LoanStatus = &status
		patch.ApprovedDate = &approvedAt
	case client.LoanActionReject:
		status := models.LoanRejected
		patch.LoanStatus = &status
		patch.RejectionReason = &reason
	}
	if err := m.cache.Update(id, patch); err != nil {
		// The page was re-seeded while the request was in flight; the
		// fresh fetch already reflects server state.
		m.logger.Debug("skipping patch of evicted view", map[string]interface{}{"id": id})
	}

	metrics.Transitions.WithLabelValues("loan", string(action), "success").Inc()
	for _, hook := range m.hooks {
		hook.LoanDecided(ctx, view, action, reason)
	}
	return nil
}

// SetCardStatus toggles a card to active or blocked. Both directions are
// reversible; a missing reason is defaulted, never rejected.
func (m *Manager) SetCardStatus(ctx context.Context, id string, status models.CardStatus, reason string) error {
	if status != models.CardActive && status != models.CardBlocked {
		return errors.NewValidationError("status", "Card status must be active or blocked")
	}

	action := "activate"
	if status == models.CardBlocked {
		action = "block"
	}

	view, ok := m.cache.Get(id)
	if !ok {
		return errors.NewInvalidTransitionError(id, "", action)
	}
	if m.cache.HasPending(id) {
		metrics.Transitions.WithLabelValues("card", action, "guarded").Inc()
		return errors.NewInvalidTransitionError(id, string(view.CardStatus), action)
	}

	if strings.TrimSpace(reason) == "" {
		if status == models.CardActive {
			reason = DefaultActivateReason
		} else {
			reason = DefaultBlockReason
		}
	}

	// Optimistic: badge flips immediately, snapshot kept for rollback.
	patch := models.StatusPatch{CardStatus: &status}
	if status == models.CardBlocked {
		patch.RejectionReason = &reason
	}
	if err := m.cache.Apply(id, patch); err != nil {
		return errors.NewInvalidTransitionError(id, string(view.CardStatus), action)
	}

	if _, err := m.api.SetCardStatus(ctx, view.UserID, id, status, reason); err != nil {
		if rbErr := m.cache.Rollback(id); rbErr != nil {
			m.logger.WithError(rbErr).Error("rollback failed", map[string]interface{}{"id": id})
		}
		metrics.Transitions.WithLabelValues("card", action, "error").Inc()
		m.logger.WithError(err).Warn("card transition rejected by service", map[string]interface{}{
			"id":     id,
			"action": action,
		})
		return err
	}

	m.cache.Commit(id)
	metrics.Transitions.WithLabelValues("card", action, "success").Inc()
	for _, hook := range m.hooks {
		hook.CardStatusChanged(ctx, view, status, reason)
	}
	return nil
}
