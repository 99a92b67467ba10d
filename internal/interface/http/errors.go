package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-travel-booking/internal/application"
	"github.com/oksasatya/go-travel-booking/pkg/helpers"
	"github.com/oksasatya/go-travel-booking/pkg/response"
)

// respondError maps account service errors onto the response envelope.
// Anything unrecognised is logged and reported as a bare 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var ve *userapp.ValidationError
	var le *userapp.LockedError
	switch {
	case errors.As(err, &ve):
		response.Error[any](c, http.StatusBadRequest, ve.Message, gin.H{"field": ve.Field})
	case errors.As(err, &le):
		response.Error[any](c, http.StatusBadRequest, le.Error(), gin.H{"retry_after_seconds": int(le.Remaining.Seconds())})
	case errors.Is(err, userapp.ErrDuplicateUsername):
		response.Error[any](c, http.StatusBadRequest, "Username is already taken", nil)
	case errors.Is(err, userapp.ErrDuplicateEmail):
		response.Error[any](c, http.StatusBadRequest, "Email is already taken", nil)
	case errors.Is(err, userapp.ErrDuplicatePhone):
		response.Error[any](c, http.StatusBadRequest, "Phone number is already taken", nil)
	case errors.Is(err, userapp.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, userapp.ErrUnauthorized):
		response.Error[any](c, http.StatusUnauthorized, "Incorrect current password", nil)
	case errors.Is(err, userapp.ErrInvalidCredentials):
		response.Error[any](c, http.StatusBadRequest, "Password does not match", nil)
	case errors.Is(err, userapp.ErrInvalidOrExpiredToken):
		response.Error[any](c, http.StatusBadRequest, "Invalid or expired token", nil)
	case errors.Is(err, userapp.ErrMailDeliveryFailed):
		response.Error[any](c, http.StatusBadGateway, "Failed to send reset email", nil)
	default:
		helpers.LogError(logger, "unhandled error", err, logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		})
		response.Error[any](c, http.StatusInternalServerError, "Internal Server Error", nil)
	}
}
