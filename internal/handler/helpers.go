package handler

import (
	"errors"
	"net/http"
	"strconv"

	"hallpass-service/internal/middleware"
	"hallpass-service/internal/service"
	"hallpass-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps domain errors to status codes. Anything else is a 500
// and is logged, the client only sees a generic message.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var domainErr *service.Error
	if !errors.As(err, &domainErr) {
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("requestID")),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Something went wrong, please try again")
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInUse):
		status = http.StatusConflict
	}
	utils.ErrorResponse(c, status, domainErr.Message)
}

func parsePassID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid pass ID")
		return 0, false
	}
	return uint(id), true
}

// actor names the caller in audit rows
func actor(c *gin.Context) string {
	if id := c.GetString(middleware.ContextUserID); id != "" {
		return id
	}
	return "anonymous"
}

func bindError(c *gin.Context, err error) {
	utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
}
