// internal/server/middleware.go
package server

import (
	"net/http"
	"time"

	"approval-console/internal/common/observability"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument records one operation per request against the OTel meter,
// labelled by the matched route pattern rather than the raw path so record
// ids do not explode the cardinality.
func Instrument(obs *observability.Observability, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		op := r.Pattern
		if op == "" {
			op = r.Method + " unmatched"
		}
		status := "success"
		if rec.status >= http.StatusBadRequest {
			status = "error"
		}
		obs.RecordOperation(r.Context(), op, status)
		obs.RecordDuration(r.Context(), op, time.Since(start), status)
	})
}
