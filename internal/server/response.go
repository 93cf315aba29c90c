package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
)

// APIError is the body of every failed request.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps an APIError under the "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes err with a machine-readable code and aborts the
// handler chain.
func RespondError(c *gin.Context, status int, code string, err error) {
	apiErr := APIError{Message: "unknown error", Code: code}
	if err != nil {
		apiErr.Message = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: apiErr})
}

// RespondOK writes payload as a 200 JSON response.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondEngineError maps engine and store sentinels to HTTP statuses.
func respondEngineError(c *gin.Context, code string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, internalerr.ErrInvalidArgument),
		errors.Is(err, internalerr.ErrUnsupportedLanguage):
		status = http.StatusBadRequest
	case errors.Is(err, internalerr.ErrUnknownTopic),
		errors.Is(err, internalerr.ErrNotFound):
		status = http.StatusNotFound
	}
	RespondError(c, status, code, err)
}
