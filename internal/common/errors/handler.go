// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// Handler normalizes engine errors and writes them as JSON responses.
type Handler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewHandler(logger Logger) *Handler {
	return &Handler{logger: logger}
}

// HTTPStatus maps an error code to the response status used by the admin API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeInvalidTransition, ErrCodeTransitionRejected, ErrCodeMutationInFlight:
		return http.StatusConflict
	case ErrCodeFetchFailed:
		return http.StatusBadGateway
	case ErrCodePartialBulkFailure:
		// The bulk endpoint reports per-item outcomes in the body.
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// WriteError normalizes err and writes it to w with the mapped status.
func (h *Handler) WriteError(w http.ResponseWriter, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"code":    string(stdErr.Code),
			"message": stdErr.Message,
			"details": stdErr.Details,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(stdErr)
}
