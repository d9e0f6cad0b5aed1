package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/LovationAdmin/triptrack-api/services"
	"github.com/LovationAdmin/triptrack-api/utils"
)

// respondServiceError maps a service error to its HTTP status. Errors without a
// user-facing message are logged and answered with fallback.
func respondServiceError(c *gin.Context, err error, fallback string) {
	var svcErr *services.Error
	message := fallback
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondError(c, http.StatusBadRequest, message)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrUnauthorized):
		utils.RespondRedirect(c, http.StatusUnauthorized, message, utils.RedirectLogin)
	case errors.Is(err, services.ErrForbidden):
		utils.RespondError(c, http.StatusForbidden, message)
	case errors.Is(err, services.ErrNotFound):
		utils.RespondRedirect(c, http.StatusNotFound, message, utils.RedirectDashboard)
	case errors.Is(err, services.ErrConflict):
		utils.RespondError(c, http.StatusConflict, message)
	case errors.Is(err, services.ErrUnavailable):
		utils.RespondError(c, http.StatusServiceUnavailable, message)
	default:
		slog.Error("[API] "+fallback,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		utils.RespondError(c, http.StatusInternalServerError, fallback)
	}
}

// pathID reads a UUID path parameter in canonical form. Malformed ids are
// answered as not found.
func pathID(c *gin.Context, param, notFoundMessage string) (string, bool) {
	return validID(c, c.Param(param), notFoundMessage)
}

func validID(c *gin.Context, id, notFoundMessage string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		utils.RespondRedirect(c, http.StatusNotFound, notFoundMessage, utils.RedirectDashboard)
		return "", false
	}
	return u.String(), true
}

// confirmed reports whether a destructive request carries ?confirm=true.
func confirmed(c *gin.Context) bool {
	if c.Query("confirm") == "true" {
		return true
	}
	utils.RespondError(c, http.StatusBadRequest, "Please confirm this deletion with ?confirm=true")
	return false
}
