// internal/approvals/audit/recorder.go
package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"approval-console/internal/approvals/client"
	"approval-console/internal/common/logger"
	"approval-console/internal/models"
)

const insertDecisionSQL = `
	INSERT INTO approval_decisions (id, application_id, kind, action, reason, decided_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

// Recorder writes every acknowledged decision to the audit table. It runs
// as a decision hook: a failed insert is logged and counted but can never
// fail or delay the transition the admin just made.
type Recorder struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewRecorder(db *sql.DB, log logger.Logger) *Recorder {
	return &Recorder{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "audit"}),
		now:    time.Now,
	}
}

func (r *Recorder) LoanDecided(ctx context.Context, app models.Application, action client.LoanAction, reason string) {
	r.record(ctx, app.ID, models.KindLoan, string(action), reason)
}

func (r *Recorder) CardStatusChanged(ctx context.Context, app models.Application, status models.CardStatus, reason string) {
	r.record(ctx, app.ID, models.KindCard, string(status), reason)
}

func (r *Recorder) record(ctx context.Context, applicationID string, kind models.Kind, action, reason string) {
	_, err := r.db.ExecContext(ctx, insertDecisionSQL,
		uuid.NewString(), applicationID, string(kind), action, reason, r.now().UTC(),
	)
	if err != nil {
		r.logger.WithError(err).Error("audit insert failed", map[string]interface{}{
			"applicationId": applicationID,
			"kind":          string(kind),
			"action":        action,
		})
	}
}
