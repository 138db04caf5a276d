package introspect

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelmeta/internal/annotations"
	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to its HTTP status and error code
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, annotations.ErrModelNotFound):
		return http.StatusNotFound, "model_not_found"
	case metadata.IsConfigurationError(err):
		return http.StatusUnprocessableEntity, "invalid_model"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	renderJSON(w, status, ErrorResponse{
		Error:   strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_")),
		Message: err.Error(),
		Code:    code,
	})
}
