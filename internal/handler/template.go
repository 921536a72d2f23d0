package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/llm"
	"github.com/rakeshreddymandala/humaneq-hr/internal/middleware"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

const generateTimeout = 90 * time.Second

// CompanyTemplates is the subset of repository.TemplateRepo used here.
type CompanyTemplates interface {
	Create(ctx context.Context, t *model.Template) (primitive.ObjectID, error)
	ListForCompany(ctx context.Context, companyID primitive.ObjectID) ([]model.Template, error)
	ListAll(ctx context.Context) ([]model.Template, error)
}

// TemplateHandler serves company question templates and LLM drafting.
type TemplateHandler struct {
	Templates CompanyTemplates
	LLM       llm.Client
	Log       *zap.Logger
}

func NewTemplateHandler(t CompanyTemplates, c llm.Client, log *zap.Logger) *TemplateHandler {
	return &TemplateHandler{Templates: t, LLM: c, Log: log}
}

type templateReq struct {
	Title             string           `json:"title" validate:"required"`
	Description       string           `json:"description"`
	Questions         []model.Question `json:"questions" validate:"dive"`
	EstimatedDuration int              `json:"estimatedDuration" validate:"gte=0"`
	AgentID           string           `json:"agentId"`
	Difficulty        string           `json:"difficulty"`
	Category          string           `json:"category"`
	IsPublic          bool             `json:"isPublic"`
	PracticeAllowed   bool             `json:"practiceAllowed"`
}

type generateReq struct {
	Prompt string `json:"prompt"`
}

// List returns every template to admins and own plus global templates to
// companies.
func (h *TemplateHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	var (
		list []model.Template
		err  error
	)
	if middleware.Role(c) == model.RoleAdmin {
		list, err = h.Templates.ListAll(ctx)
	} else {
		var owner primitive.ObjectID
		if owner, err = middleware.SubjectID(c); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		list, err = h.Templates.ListForCompany(ctx, owner)
	}
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"templates": list})
}

// Create stores a template owned by the calling company.
func (h *TemplateHandler) Create(c echo.Context) error {
	owner, err := middleware.SubjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req templateReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	t := &model.Template{
		CompanyID:         &owner,
		Title:             strings.TrimSpace(req.Title),
		Description:       req.Description,
		Questions:         model.NormalizeQuestions(req.Questions),
		EstimatedDuration: req.EstimatedDuration,
		IsActive:          true,
		AgentID:           strings.TrimSpace(req.AgentID),
		Difficulty:        req.Difficulty,
		Category:          req.Category,
		IsPublic:          req.IsPublic,
		PracticeAllowed:   req.PracticeAllowed,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Templates.Create(ctx, t); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"template": t})
}

// GenerateQuestions drafts interview questions from a free-text prompt.
func (h *TemplateHandler) GenerateQuestions(c echo.Context) error {
	var req generateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), generateTimeout)
	defer cancel()

	qs, err := llm.GenerateQuestions(ctx, h.LLM, req.Prompt)
	if err != nil {
		var pe *llm.ProviderError
		if errors.As(err, &pe) {
			h.Log.Error("question generation failed", zap.String("provider", pe.Provider), zap.Error(err))
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "Failed to generate questions"})
		}
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"questions": qs})
}
