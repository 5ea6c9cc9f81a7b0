package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
)

// writeError answers with {"error": code, "message": text}. Unclassified
// errors are logged and their text is not sent to the client.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	status := apperr.StatusCode(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", c.GetString(requestIDKey),
			"error", err,
		)
		if apperr.Code(err) == "internal_error" {
			msg = "internal server error"
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.Code(err), "message": msg})
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}
	return id, nil
}
