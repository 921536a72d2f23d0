package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/middleware"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/service"
)

// StudentPortal is implemented by service.StudentService.
type StudentPortal interface {
	Profile(ctx context.Context, id primitive.ObjectID) (*model.Student, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, in service.ProfileInput) (*model.Student, error)
	Analytics(ctx context.Context, id primitive.ObjectID) (*service.Analytics, error)
	Templates(ctx context.Context) ([]model.AdminTemplate, error)
}

type StudentHandler struct {
	Students StudentPortal
	Log      *zap.Logger
}

func NewStudentHandler(s StudentPortal, log *zap.Logger) *StudentHandler {
	return &StudentHandler{Students: s, Log: log}
}

type profileReq struct {
	FirstName string `json:"firstName" validate:"omitempty,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
}

func (h *StudentHandler) Profile(c echo.Context) error {
	id, err := middleware.SubjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Students.Profile(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"student": s})
}

// UpdateProfile changes first and last name only; other fields in the
// body are ignored.
func (h *StudentHandler) UpdateProfile(c echo.Context) error {
	id, err := middleware.SubjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Students.UpdateProfile(ctx, id, service.ProfileInput{FirstName: req.FirstName, LastName: req.LastName})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "student": s})
}

func (h *StudentHandler) Analytics(c echo.Context) error {
	id, err := middleware.SubjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Students.Analytics(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *StudentHandler) Templates(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Students.Templates(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"templates": list})
}
