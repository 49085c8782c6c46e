package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/hybridation-api/internal/apperr"
	"github.com/Conceptual-Machines/hybridation-api/internal/logger"
)

// respondError logs err and renders it as the JSON error body.
func respondError(c *gin.Context, err error, fields logger.Fields) {
	status := apperr.HTTPStatus(err)
	fields = fields.With(logger.Fields{
		"status_code": status,
		"error_kind":  string(apperr.KindOf(err)),
	})

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", err, fields)
	} else {
		logger.Warn("request rejected: "+apperr.Detail(err), fields)
	}

	c.JSON(status, gin.H{
		"success":    false,
		"error":      apperr.Detail(err),
		"request_id": c.GetString(requestIDKey),
	})
}

func badInput(op, message string) error {
	return apperr.New(apperr.KindBadInput, op, message)
}
