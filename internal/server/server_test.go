// internal/server/server_test.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approval-console/internal/approvals/client"
	"approval-console/internal/approvals/pending"
	"approval-console/internal/approvals/session"
	"approval-console/internal/common/logger"
	"approval-console/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeService struct {
	mu      sync.Mutex
	byKind  map[models.Kind][]models.Application
	loanErr error
}

func (f *fakeService) ListApplications(_ context.Context, kind models.Kind, _ client.ListParams) (*client.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.byKind[kind]
	return &client.ListResult{Data: items, Total: len(items)}, nil
}

func (f *fakeService) SetLoanStatus(_ context.Context, id string, _ client.LoanAction, _ string) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loanErr != nil {
		return nil, f.loanErr
	}
	return &models.Application{ID: id, Kind: models.KindLoan}, nil
}

func (f *fakeService) SetCardStatus(_ context.Context, _, cardID string, _ models.CardStatus, _ string) (*models.Application, error) {
	return &models.Application{ID: cardID, Kind: models.KindCard}, nil
}

func (f *fakeService) ListPendingApprovals(context.Context) (*client.PendingSummary, error) {
	return &client.PendingSummary{Counts: client.PendingCounts{Loans: 2, Cards: 1}}, nil
}

type fixture struct {
	api   *fakeService
	loans *session.Controller
	cards *session.Controller
	mux   *http.ServeMux
}

func newFixture(t *testing.T) *fixture {
	api := &fakeService{byKind: map[models.Kind][]models.Application{
		models.KindLoan: {
			{ID: "L1", Kind: models.KindLoan, LoanStatus: models.LoanPending, Amount: 50_000},
			{ID: "L2", Kind: models.KindLoan, LoanStatus: models.LoanPending, Amount: 750_000},
		},
		models.KindCard: {
			{ID: "C1", Kind: models.KindCard, UserID: "U1", CardStatus: models.CardActive},
		},
	}}

	log := logger.NewTestLogger(t)
	loans := session.NewController(models.KindLoan, session.Dependencies{API: api, Logger: log})
	cards := session.NewController(models.KindCard, session.Dependencies{API: api, Logger: log})
	t.Cleanup(loans.Close)
	t.Cleanup(cards.Close)

	pendingSvc := pending.NewService(api, nil, 30*time.Second, log)
	srv := New(loans, cards, pendingSvc, log)

	fx := &fixture{api: api, loans: loans, cards: cards, mux: srv.Routes()}
	require.NoError(t, loans.Refetch(context.Background()))
	require.NoError(t, cards.Refetch(context.Background()))
	return fx
}

func (fx *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	fx.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ==========================
// Page
// ==========================

func TestHandlePage(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodGet, "/api/console/loans/page?status=pending&page=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[pageResponse](t, rec)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "pending", resp.Spec.Status)
	assert.Equal(t, 1, resp.Spec.Page)
	assert.Equal(t, models.DefaultPageSize, resp.Spec.PageSize, "missing pageSize falls back to the default")
}

func TestHandlePage_UnknownKindIs404(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodGet, "/api/console/mortgages/page", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==========================
// Single transitions
// ==========================

func TestHandleApproveLoan(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodPost, "/api/console/loans/L1/approve", "")
	require.Equal(t, http.StatusOK, rec.Code)

	page := fx.loans.Page()
	assert.Equal(t, models.LoanApproved, page.Items[0].LoanStatus)
}

func TestHandleApproveLoan_StaleViewIs409(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.loans.ApproveLoan(context.Background(), "L1"))

	rec := fx.do(t, http.MethodPost, "/api/console/loans/L1/approve", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
}

func TestHandleRejectLoan_SchemaRejectsMissingReason(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"blank reason", `{"reason": ""}`},
		{"wrong type", `{"reason": 42}`},
		{"unknown field", `{"reason": "ok", "force": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fx.do(t, http.MethodPost, "/api/console/loans/L1/reject", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	// The record is untouched after every refused request.
	page := fx.loans.Page()
	assert.Equal(t, models.LoanPending, page.Items[0].LoanStatus)
}

func TestHandleRejectLoan(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodPost, "/api/console/loans/L1/reject", `{"reason": "Insufficient income"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	page := fx.loans.Page()
	assert.Equal(t, models.LoanRejected, page.Items[0].LoanStatus)
	assert.Equal(t, "Insufficient income", page.Items[0].RejectionReason)
}

func TestHandleCardStatus(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodPost, "/api/console/cards/C1/status", `{"status": "blocked", "reason": "Suspected fraud"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	page := fx.cards.Page()
	assert.Equal(t, models.CardBlocked, page.Items[0].CardStatus)
}

func TestHandleCardStatus_SchemaRejectsUnknownStatus(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodPost, "/api/console/cards/C1/status", `{"status": "suspended"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// Selection and bulk
// ==========================

func TestSelectionRoundTrip(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodPost, "/api/console/loans/selection/toggle", `{"id": "L1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]interface{}](t, rec)
	assert.Equal(t, true, resp["selected"])
	assert.Equal(t, float64(1), resp["count"])

	rec = fx.do(t, http.MethodPost, "/api/console/loans/selection/toggle-all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[map[string]interface{}](t, rec)
	assert.Equal(t, float64(2), resp["count"])
}

func TestHandleBulk(t *testing.T) {
	fx := newFixture(t)
	fx.loans.ToggleSelectAll()

	rec := fx.do(t, http.MethodPost, "/api/console/loans/bulk", `{"action": "approve"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[struct {
		Results []models.PendingResult `json:"results"`
	}](t, rec)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Success)
	assert.Equal(t, 0, fx.loans.SelectionCount())
}

func TestHandleBulk_PartialFailureIs207(t *testing.T) {
	fx := newFixture(t)
	fx.loans.ToggleSelectAll()

	fx.api.mu.Lock()
	fx.api.loanErr = &client.APIError{StatusCode: 500, Message: "boom"}
	fx.api.mu.Unlock()

	rec := fx.do(t, http.MethodPost, "/api/console/loans/bulk", `{"action": "approve"}`)
	assert.Equal(t, http.StatusMultiStatus, rec.Code)

	resp := decode[struct {
		Results []models.PendingResult `json:"results"`
	}](t, rec)
	require.Len(t, resp.Results, 2)
	assert.False(t, resp.Results[0].Success)
}

func TestHandleBulk_EmptySelectionIs400(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodPost, "/api/console/loans/bulk", `{"action": "approve"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBulk_SchemaRejectsUnknownAction(t *testing.T) {
	fx := newFixture(t)
	fx.loans.ToggleSelectAll()

	rec := fx.do(t, http.MethodPost, "/api/console/loans/bulk", `{"action": "archive"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// Notifications and pending
// ==========================

func TestNotificationsLifecycle(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.loans.ApproveLoan(context.Background(), "L1"))

	rec := fx.do(t, http.MethodGet, "/api/console/loans/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[struct {
		Notifications []struct {
			ID      string `json:"id"`
			Message string `json:"message"`
		} `json:"notifications"`
	}](t, rec)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "Loan approved", resp.Notifications[0].Message)

	rec = fx.do(t, http.MethodDelete, fmt.Sprintf("/api/console/loans/notifications/%s", resp.Notifications[0].ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, fx.loans.Notifications())
}

func TestHandlePending(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodGet, "/api/console/approvals/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode[client.PendingSummary](t, rec)
	assert.Equal(t, 2, summary.Counts.Loans)
	assert.Equal(t, 1, summary.Counts.Cards)
}
