package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/middleware"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
	"github.com/rakeshreddymandala/humaneq-hr/internal/service"
)

// SessionStarter is implemented by service.SessionService.
type SessionStarter interface {
	StartPractice(ctx context.Context, studentID, templateID primitive.ObjectID) (*service.Started, error)
	StartGeneral(ctx context.Context, userID, templateID primitive.ObjectID) (*service.Started, error)
	ListPractice(ctx context.Context, studentID primitive.ObjectID, status string, limit int64) ([]service.SessionSummary, error)
	ListGeneral(ctx context.Context, userID primitive.ObjectID) ([]service.SessionSummary, error)
	GeneralTemplates(ctx context.Context) ([]model.AdminTemplate, error)
}

// SessionHandler serves student practice sessions and general-user
// interviews.  Both are interviews owned by the caller.
type SessionHandler struct {
	Sessions SessionStarter
	Log      *zap.Logger
}

func NewSessionHandler(s SessionStarter, log *zap.Logger) *SessionHandler {
	return &SessionHandler{Sessions: s, Log: log}
}

type startSessionReq struct {
	TemplateID string `json:"templateId" validate:"required"`
}

// startArgs reads the caller and the template id.  When ok is false the
// error response has already been written and err is its result.
func startArgs(c echo.Context) (owner, tid primitive.ObjectID, ok bool, err error) {
	owner, perr := middleware.SubjectID(c)
	if perr != nil {
		return owner, tid, false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req startSessionReq
	if msg, valid := bind(c, &req); !valid {
		return owner, tid, false, badRequest(c, msg)
	}
	if tid, perr = repository.ParseID(req.TemplateID); perr != nil {
		return owner, tid, false, badRequest(c, "Valid template ID is required")
	}
	return owner, tid, true, nil
}

// StartPractice creates a practice session for the student.
func (h *SessionHandler) StartPractice(c echo.Context) error {
	owner, tid, ok, err := startArgs(c)
	if !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	started, err := h.Sessions.StartPractice(ctx, owner, tid)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, started)
}

// ListPractice lists the student's sessions, filtered by ?status= and
// capped by ?limit=.
func (h *SessionHandler) ListPractice(c echo.Context) error {
	owner, err := middleware.SubjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var limit int64
	if s := c.QueryParam("limit"); s != "" {
		if limit, err = strconv.ParseInt(s, 10, 64); err != nil || limit < 0 {
			return badRequest(c, "Invalid limit")
		}
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Sessions.ListPractice(ctx, owner, c.QueryParam("status"), limit)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": list, "totalCount": len(list)})
}

// StartGeneral creates an interview for a general user.  An exhausted
// quota is a 403 on this portal.
func (h *SessionHandler) StartGeneral(c echo.Context) error {
	owner, tid, ok, err := startArgs(c)
	if !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	started, err := h.Sessions.StartGeneral(ctx, owner, tid)
	if err != nil {
		if errors.Is(err, service.ErrQuotaExceeded) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Interview quota exceeded"})
		}
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, started)
}

// ListGeneral lists the general user's interviews.
func (h *SessionHandler) ListGeneral(c echo.Context) error {
	owner, err := middleware.SubjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Sessions.ListGeneral(ctx, owner)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"interviews": list})
}

func (h *SessionHandler) GeneralTemplates(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Sessions.GeneralTemplates(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"templates": list})
}
