// internal/approvals/priority/scorer_test.go
package priority

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"approval-console/internal/models"
)

func loanApp(amount float64) models.Application {
	return models.Application{ID: "L1", Kind: models.KindLoan, Amount: amount}
}

func cardApp(cardType string, createdAt time.Time) models.Application {
	return models.Application{ID: "C1", Kind: models.KindCard, CardType: cardType, CreatedAt: createdAt}
}

func TestScore_LoanTiers(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		amount   float64
		expected models.Priority
	}{
		{"well above high threshold", 2_000_000, models.PriorityHigh},
		{"mid range", 600_000, models.PriorityMedium},
		{"small loan", 100_000, models.PriorityLow},
		{"exactly high threshold stays medium", 1_000_000, models.PriorityMedium},
		{"exactly medium threshold stays low", 500_000, models.PriorityLow},
		{"just above medium threshold", 500_001, models.PriorityMedium},
		{"missing amount scores lowest", 0, models.PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScoreAt(loanApp(tt.amount), now))
		})
	}
}

func TestScore_CardTiers(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		cardType  string
		createdAt time.Time
		expected  models.Priority
	}{
		{"fresh credit card", "credit", now.Add(-24 * time.Hour), models.PriorityMedium},
		{"fresh debit card", "debit", now.Add(-24 * time.Hour), models.PriorityLow},
		{"aged credit card escalates", "credit", now.Add(-8 * 24 * time.Hour), models.PriorityHigh},
		{"aged debit card escalates too", "debit", now.Add(-8 * 24 * time.Hour), models.PriorityHigh},
		{"exactly seven days is not yet aged", "debit", now.Add(-7 * 24 * time.Hour), models.PriorityLow},
		{"missing creation date reads as epoch and escalates", "debit", time.Time{}, models.PriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScoreAt(cardApp(tt.cardType, tt.createdAt), now))
		})
	}
}

func TestScore_UnknownKindNeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		got := ScoreAt(models.Application{ID: "X1", Kind: "voucher"}, time.Now())
		assert.Equal(t, models.PriorityLow, got)
	})
}

func TestScore_Deterministic(t *testing.T) {
	now := time.Now()
	app := cardApp("credit", now.Add(-48*time.Hour))
	first := ScoreAt(app, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ScoreAt(app, now))
	}
}
