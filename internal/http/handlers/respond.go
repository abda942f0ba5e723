package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relaydesk/relaydesk-backend/internal/domain/chat"
	errs "github.com/relaydesk/relaydesk-backend/internal/pkg/errors"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
	"github.com/relaydesk/relaydesk-backend/internal/services"
)

// renderError maps the error taxonomy to HTTP statuses: not-found to 404,
// domain/validation rejections to 400, anything else to an opaque 500 whose
// detail is only logged.
func renderError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrInvalidSenderType),
		errors.Is(err, services.ErrUnsupportedStatus),
		errors.Is(err, errs.ErrInvalidArgument),
		chat.IsInvalidState(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error("internal error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
