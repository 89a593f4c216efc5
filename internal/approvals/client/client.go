// internal/approvals/client/client.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"time"

	"approval-console/internal/common/errors"
	"approval-console/internal/common/http"
	"approval-console/internal/common/logger"
	"approval-console/internal/models"
)

// LoanAction is the resolution applied to a pending loan.
type LoanAction string

const (
	LoanActionApprove LoanAction = "approve"
	LoanActionReject  LoanAction = "reject"
)

// ListParams is the wire-level listing request. Zero-valued fields are
// omitted from the outgoing query string; an empty string filter is never
// sent as a blank constraint.
type ListParams struct {
	Status    string
	LoanType  string
	CardType  string
	Search    string
	SortField string
	SortOrder string
	MinAmount float64
	MaxAmount float64
	StartDate time.Time
	EndDate   time.Time
	Page      int
	PageSize  int
}

// ListResult is the paginated response from the approvals service.
type ListResult struct {
	Data  []models.Application `json:"data"`
	Total int                  `json:"total"`
	Pages int                  `json:"pages"`
}

// PendingCounts carries the dashboard badge counts.
type PendingCounts struct {
	Loans int `json:"loans"`
	Cards int `json:"cards"`
}

// PendingSummary is the response of the pending-approvals overview endpoint.
type PendingSummary struct {
	PendingLoans []models.Application `json:"pendingLoans"`
	PendingCards []models.Application `json:"pendingCards"`
	Counts       PendingCounts        `json:"counts"`
}

// APIError is a structured non-success response from the approvals service.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("approvals api: %d: %s", e.StatusCode, e.Message)
}

// Service is the contract the engine depends on. The remote approvals data
// source implements it over HTTP; tests substitute fakes.
type Service interface {
	ListApplications(ctx context.Context, kind models.Kind, params ListParams) (*ListResult, error)
	SetLoanStatus(ctx context.Context, id string, action LoanAction, reason string) (*models.Application, error)
	SetCardStatus(ctx context.Context, userID, cardID string, status models.CardStatus, reason string) (*models.Application, error)
	ListPendingApprovals(ctx context.Context) (*PendingSummary, error)
}

// HTTPClient talks to the remote approvals service.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    http.NewClient(timeout),
		logger:  log.WithFields(map[string]interface{}{"component": "approvals-client"}),
	}
}

func (c *HTTPClient) ListApplications(ctx context.Context, kind models.Kind, params ListParams) (*ListResult, error) {
	endpoint := fmt.Sprintf("%s/api/admin/%ss", c.baseURL, kind)

	var result ListResult
	if err := c.get(ctx, endpoint, encodeListParams(params), &result); err != nil {
		return nil, errors.NewFetchError("listApplications", fetchMessage(err), err)
	}
	return &result, nil
}

func (c *HTTPClient) SetLoanStatus(ctx context.Context, id string, action LoanAction, reason string) (*models.Application, error) {
	endpoint := fmt.Sprintf("%s/api/admin/loans/%s/status", c.baseURL, url.PathEscape(id))
	body := map[string]string{"action": string(action)}
	if reason != "" {
		body["reason"] = reason
	}

	var app models.Application
	if err := c.put(ctx, endpoint, body, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

func (c *HTTPClient) SetCardStatus(ctx context.Context, userID, cardID string, status models.CardStatus, reason string) (*models.Application, error) {
	endpoint := fmt.Sprintf("%s/api/admin/users/%s/cards/%s/status",
		c.baseURL, url.PathEscape(userID), url.PathEscape(cardID))
	body := map[string]string{"status": string(status), "reason": reason}

	var app models.Application
	if err := c.put(ctx, endpoint, body, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

func (c *HTTPClient) ListPendingApprovals(ctx context.Context) (*PendingSummary, error) {
	endpoint := fmt.Sprintf("%s/api/admin/approvals/pending", c.baseURL)

	var summary PendingSummary
	if err := c.get(ctx, endpoint, nil, &summary); err != nil {
		return nil, errors.NewFetchError("listPendingApprovals", fetchMessage(err), err)
	}
	return &summary, nil
}

// encodeListParams writes only the populated filters into the query string.
func encodeListParams(p ListParams) url.Values {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.LoanType != "" {
		q.Set("loanType", p.LoanType)
	}
	if p.CardType != "" {
		q.Set("cardType", p.CardType)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.SortField != "" {
		q.Set("sortField", p.SortField)
		if p.SortOrder != "" {
			q.Set("sortOrder", p.SortOrder)
		}
	}
	if p.MinAmount > 0 {
		q.Set("minAmount", strconv.FormatFloat(p.MinAmount, 'f', -1, 64))
	}
	if p.MaxAmount > 0 {
		q.Set("maxAmount", strconv.FormatFloat(p.MaxAmount, 'f', -1, 64))
	}
	if !p.StartDate.IsZero() {
		q.Set("startDate", p.StartDate.UTC().Format(time.RFC3339))
	}
	if !p.EndDate.IsZero() {
		q.Set("endDate", p.EndDate.UTC().Format(time.RFC3339))
	}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("pageSize", strconv.Itoa(p.PageSize))
	return q
}

func (c *HTTPClient) get(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	req, err := nethttp.NewRequest(nethttp.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

func (c *HTTPClient) put(ctx context.Context, endpoint string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := nethttp.NewRequest(nethttp.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req, out)
}

func (c *HTTPClient) do(ctx context.Context, req *nethttp.Request, out interface{}) error {
	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = nethttp.StatusText(resp.StatusCode)
		}
		c.logger.Warn("approvals service returned error", map[string]interface{}{
			"url":     req.URL.String(),
			"status":  resp.StatusCode,
			"message": apiErr.Message,
		})
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// fetchMessage extracts the human-readable message for a FetchError.
func fetchMessage(err error) string {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Message
	}
	return "Failed to reach the approvals service"
}
