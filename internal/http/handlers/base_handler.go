// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"laborhub/internal/modules/aiquota"
	"laborhub/internal/modules/dispatch"
	"laborhub/internal/modules/order"
	"laborhub/internal/modules/payquote"
	"laborhub/internal/modules/worker"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module sentinel errors onto HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrBadRequest), errors.Is(err, worker.ErrBadRequest),
		errors.Is(err, payquote.ErrBadRequest), errors.Is(err, payquote.ErrUnknownCategory):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound), errors.Is(err, worker.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrUnauthorized), errors.Is(err, dispatch.ErrUnauthorized):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrInvalidState), errors.Is(err, order.ErrConflict),
		errors.Is(err, dispatch.ErrInvalidState), errors.Is(err, dispatch.ErrConflict),
		errors.Is(err, dispatch.ErrNoPending), errors.Is(err, dispatch.ErrDeadlinePassed):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, aiquota.ErrQuotaExhausted):
		writeError(c, http.StatusTooManyRequests, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
