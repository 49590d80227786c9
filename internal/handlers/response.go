package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mlm-platform/internal/services"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyActive),
		errors.Is(err, services.ErrAlreadyClaimed),
		errors.Is(err, services.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidAuthorization),
		errors.Is(err, services.ErrNotClaimable),
		errors.Is(err, services.ErrReferrerInactive),
		errors.Is(err, services.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidWalletAddress):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes {success: false, message} for err. Internal errors are
// logged and replaced with a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		message = "internal server error"
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
