package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/llm"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
	"github.com/rakeshreddymandala/humaneq-hr/internal/service"
)

const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// errorStatus maps a domain error to its HTTP status and client message.
// Unknown errors are 500s with a generic message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return http.StatusBadRequest, "Invalid id"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, repository.ErrEmailExists):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "Interview was updated concurrently"
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict, "Invalid status transition"
	case errors.Is(err, model.ErrUnknownStatus):
		return http.StatusBadRequest, "Invalid status"
	case errors.Is(err, service.ErrTemplateNotFound):
		return http.StatusNotFound, "Template not found"
	case errors.Is(err, service.ErrPracticeLimit):
		return http.StatusForbidden, "Practice limit reached"
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusBadRequest, "Interview quota exceeded"
	case errors.Is(err, service.ErrAlreadyCompleted):
		return http.StatusBadRequest, "This interview has already been completed."
	case errors.Is(err, service.ErrNoAgent):
		return http.StatusNotFound, "No agent configured for this template"
	case errors.Is(err, service.ErrUnknownRecordingType):
		return http.StatusBadRequest, "Invalid recording type"
	case errors.Is(err, llm.ErrEmptyPrompt):
		return http.StatusBadRequest, "Prompt is required"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// fail writes err as {"error": msg}.  Server errors are logged with the
// route; their detail never reaches the client.
func fail(c echo.Context, log *zap.Logger, err error) error {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// bind decodes and validates req.  On failure it returns the message to
// send back with a 400.
func bind(c echo.Context, req any) (string, bool) {
	if err := c.Bind(req); err != nil {
		return "Invalid request body", false
	}
	if err := c.Validate(req); err != nil {
		if v, ok := c.Echo().Validator.(*Validator); ok {
			return v.Message(err), false
		}
		return "Invalid request body", false
	}
	return "", true
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
