// internal/approvals/query/engine.go
package query

import (
	"context"
	"time"

	"approval-console/internal/approvals/client"
	"approval-console/internal/approvals/priority"
	"approval-console/internal/common/logger"
	"approval-console/internal/common/metrics"
	"approval-console/internal/models"
)

// Page is a normalized page of applications for display.
type Page struct {
	Items     []models.Application `json:"items"`
	Total     int                  `json:"total"`
	PageCount int                  `json:"pageCount"`
}

// Engine translates a QuerySpec into a listing request against the
// approvals service. Filtering correctness is delegated to the service; the
// engine only resolves shorthands, strips empty constraints, normalizes the
// pagination math and annotates each returned view with its priority tier.
type Engine struct {
	api    client.Service
	logger logger.Logger
	now    func() time.Time
}

func NewEngine(api client.Service, log logger.Logger) *Engine {
	return &Engine{
		api:    api,
		logger: log.WithFields(map[string]interface{}{"component": "query-engine"}),
		now:    time.Now,
	}
}

// Fetch executes the spec against the approvals service. Failures surface
// as *errors.FetchError; the engine does not retry.
func (e *Engine) Fetch(ctx context.Context, kind models.Kind, spec models.QuerySpec) (*Page, error) {
	spec = spec.Normalize()
	params := e.buildParams(spec)

	start := time.Now()
	result, err := e.api.ListApplications(ctx, kind, params)
	metrics.FetchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PageFetches.WithLabelValues(string(kind), "error").Inc()
		e.logger.WithError(err).Warn("page fetch failed", map[string]interface{}{
			"kind": string(kind),
			"page": spec.Page,
		})
		return nil, err
	}
	metrics.PageFetches.WithLabelValues(string(kind), "success").Inc()

	now := e.now()
	for i := range result.Data {
		result.Data[i].Priority = priority.ScoreAt(result.Data[i], now)
	}

	return &Page{
		Items:     result.Data,
		Total:     result.Total,
		PageCount: pageCount(result.Total, spec.PageSize),
	}, nil
}

// buildParams copies the populated filters into the wire request and
// resolves the date-range shorthand against the current wall clock.
func (e *Engine) buildParams(spec models.QuerySpec) client.ListParams {
	params := client.ListParams{
		Status:    spec.Status,
		LoanType:  spec.LoanType,
		CardType:  spec.CardType,
		Search:    spec.Search,
		SortField: spec.SortField,
		SortOrder: string(spec.SortOrder),
		MinAmount: spec.MinAmount,
		MaxAmount: spec.MaxAmount,
		Page:      spec.Page,
		PageSize:  spec.PageSize,
	}

	if spec.DateRange != "" {
		params.StartDate, params.EndDate = resolveDateRange(spec.DateRange, e.now())
	}
	return params
}

// resolveDateRange turns today|week|month into concrete bounds, both
// inclusive of now. Week is the trailing 7 days, month the trailing 30.
func resolveDateRange(r models.DateRange, now time.Time) (time.Time, time.Time) {
	switch r {
	case models.DateRangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), now
	case models.DateRangeWeek:
		return now.AddDate(0, 0, -7), now
	case models.DateRangeMonth:
		return now.AddDate(0, 0, -30), now
	}
	return time.Time{}, time.Time{}
}

// pageCount is ceil(total/pageSize), with 1 for an empty result so the
// console always has a page to display.
func pageCount(total, pageSize int) int {
	if total == 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
