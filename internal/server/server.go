// internal/server/server.go
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"approval-console/internal/approvals/bulk"
	"approval-console/internal/approvals/pending"
	"approval-console/internal/approvals/session"
	"approval-console/internal/common/errors"
	"approval-console/internal/common/logger"
	"approval-console/internal/common/validation"
	"approval-console/internal/models"
)

// Server exposes the engine to the console UI as a JSON API. It holds one
// session controller per entity kind; all view state lives in those
// controllers, the handlers only translate HTTP to engine calls.
type Server struct {
	loans   *session.Controller
	cards   *session.Controller
	pending *pending.Service
	errs    *errors.Handler
	logger  logger.Logger
}

func New(loans, cards *session.Controller, pendingSvc *pending.Service, log logger.Logger) *Server {
	return &Server{
		loans:   loans,
		cards:   cards,
		pending: pendingSvc,
		errs:    errors.NewHandler(log),
		logger:  log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/console/{kind}/page", s.handlePage)
	mux.HandleFunc("GET /api/console/{kind}/notifications", s.handleNotifications)
	mux.HandleFunc("DELETE /api/console/{kind}/notifications/{id}", s.handleDismiss)

	mux.HandleFunc("POST /api/console/{kind}/selection/toggle", s.handleToggleSelection)
	mux.HandleFunc("POST /api/console/{kind}/selection/toggle-all", s.handleToggleAll)

	mux.HandleFunc("POST /api/console/loans/{id}/approve", s.handleApproveLoan)
	mux.HandleFunc("POST /api/console/loans/{id}/reject", s.handleRejectLoan)
	mux.HandleFunc("POST /api/console/cards/{id}/status", s.handleCardStatus)
	mux.HandleFunc("POST /api/console/{kind}/bulk", s.handleBulk)

	mux.HandleFunc("GET /api/console/approvals/pending", s.handlePending)

	return mux
}

func (s *Server) controller(w http.ResponseWriter, r *http.Request) *session.Controller {
	switch r.PathValue("kind") {
	case "loans":
		return s.loans
	case "cards":
		return s.cards
	}
	http.NotFound(w, r)
	return nil
}

// pageResponse is what the console renders one tab from.
type pageResponse struct {
	Items      []models.Application `json:"items"`
	Total      int                  `json:"total"`
	PageCount  int                  `json:"pageCount"`
	Spec       models.QuerySpec     `json:"spec"`
	Loading    session.Loading      `json:"loading"`
	Selected   int                  `json:"selected"`
	FetchError string               `json:"fetchError,omitempty"`
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(w, r)
	if ctrl == nil {
		return
	}

	spec := specFromQuery(r)
	if err := ctrl.UpdateSpec(r.Context(), func(models.QuerySpec) models.QuerySpec { return spec }); err != nil {
		// A failed fetch keeps the previous page on screen; the response
		// still carries it along with the error message for the retry panel.
		s.logger.WithError(err).Warn("page fetch failed", map[string]interface{}{"kind": r.PathValue("kind")})
	}

	page := ctrl.Page()
	s.writeJSON(w, http.StatusOK, pageResponse{
		Items:      page.Items,
		Total:      page.Total,
		PageCount:  page.PageCount,
		Spec:       ctrl.Spec(),
		Loading:    ctrl.Loading(),
		Selected:   ctrl.SelectionCount(),
		FetchError: ctrl.LastFetchError(),
	})
}

func specFromQuery(r *http.Request) models.QuerySpec {
	q := r.URL.Query()
	spec := models.QuerySpec{
		Status:    q.Get("status"),
		LoanType:  q.Get("loanType"),
		CardType:  q.Get("cardType"),
		DateRange: models.DateRange(q.Get("dateRange")),
		Search:    q.Get("search"),
		SortField: q.Get("sortField"),
		SortOrder: models.SortOrder(q.Get("sortOrder")),
	}
	spec.MinAmount, _ = strconv.ParseFloat(q.Get("minAmount"), 64)
	spec.MaxAmount, _ = strconv.ParseFloat(q.Get("maxAmount"), 64)
	spec.Page, _ = strconv.Atoi(q.Get("page"))
	spec.PageSize, _ = strconv.Atoi(q.Get("pageSize"))
	return spec.Normalize()
}

func (s *Server) handleApproveLoan(w http.ResponseWriter, r *http.Request) {
	if err := s.loans.ApproveLoan(r.Context(), r.PathValue("id")); err != nil {
		s.errs.WriteError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleRejectLoan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := s.decodeBody(r, rejectLoanSchema, &body); err != nil {
		s.errs.WriteError(w, err)
		return
	}

	if err := s.loans.RejectLoan(r.Context(), r.PathValue("id"), body.Reason); err != nil {
		s.errs.WriteError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleCardStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.CardStatus `json:"status"`
		Reason string            `json:"reason"`
	}
	if err := s.decodeBody(r, cardStatusSchema, &body); err != nil {
		s.errs.WriteError(w, err)
		return
	}

	if err := s.cards.SetCardStatus(r.Context(), r.PathValue("id"), body.Status, body.Reason); err != nil {
		s.errs.WriteError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(w, r)
	if ctrl == nil {
		return
	}

	var body struct {
		Action bulk.Action `json:"action"`
		Reason string      `json:"reason"`
	}
	if err := s.decodeBody(r, bulkActionSchema, &body); err != nil {
		s.errs.WriteError(w, err)
		return
	}

	results, err := ctrl.RunBulk(r.Context(), body.Action, body.Reason)
	if err != nil && !errors.IsPartialBulkFailure(err) {
		s.errs.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusMultiStatus
	}
	s.writeJSON(w, status, map[string]interface{}{"results": results})
}

func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(w, r)
	if ctrl == nil {
		return
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := s.decodeBody(r, toggleSelectionSchema, &body); err != nil {
		s.errs.WriteError(w, err)
		return
	}

	selected := ctrl.ToggleSelect(body.ID)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"selected": selected,
		"count":    ctrl.SelectionCount(),
	})
}

func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(w, r)
	if ctrl == nil {
		return
	}

	ctrl.ToggleSelectAll()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"count": ctrl.SelectionCount()})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(w, r)
	if ctrl == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": ctrl.Notifications()})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(w, r)
	if ctrl == nil {
		return
	}
	ctrl.DismissNotification(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	summary, err := s.pending.Summary(r.Context())
	if err != nil {
		s.errs.WriteError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// decodeBody validates the raw payload against its schema before decoding,
// so the engine only ever sees well-formed requests.
func (s *Server) decodeBody(r *http.Request, schema string, out interface{}) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.NewValidationError("body", "Unable to read request body")
	}
	if err := validation.ValidateJSON(schema, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewValidationError("body", "Malformed JSON payload")
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("response encoding failed", nil)
	}
}
