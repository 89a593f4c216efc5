// internal/approvals/priority/scorer.go
package priority

import (
	"time"

	"approval-console/internal/models"
)

const (
	highAmountThreshold   = 1_000_000
	mediumAmountThreshold = 500_000

	// cardAgeEscalation is how long a card request may sit before it is
	// escalated regardless of its type-based tier.
	cardAgeEscalation = 7 * 24 * time.Hour
)

// Score assigns a priority tier to an application. It never fails: missing
// amounts score as zero and a missing creation date reads as the epoch.
func Score(app models.Application) models.Priority {
	return ScoreAt(app, time.Now())
}

// ScoreAt is the deterministic core of Score, evaluated against an explicit
// reference time.
func ScoreAt(app models.Application, now time.Time) models.Priority {
	switch app.Kind {
	case models.KindLoan:
		return loanTier(app.Amount)
	case models.KindCard:
		return cardTier(app, now)
	}
	return models.PriorityLow
}

func loanTier(amount float64) models.Priority {
	switch {
	case amount > highAmountThreshold:
		return models.PriorityHigh
	case amount > mediumAmountThreshold:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func cardTier(app models.Application, now time.Time) models.Priority {
	tier := models.PriorityLow
	if app.CardType == "credit" {
		tier = models.PriorityMedium
	}

	// Age always wins over the type-based tier.
	if now.Sub(app.CreatedAt) > cardAgeEscalation {
		return models.PriorityHigh
	}
	return tier
}
