package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
	"github.com/rakeshreddymandala/humaneq-hr/internal/service"
)

// CompanyAdmin is the subset of repository.UserRepo the admin portal uses.
type CompanyAdmin interface {
	ListCompanies(ctx context.Context) ([]model.User, error)
	UpdateCompanyQuota(ctx context.Context, id primitive.ObjectID, quota int, add bool) error
}

// Reports is implemented by service.ReportService.
type Reports interface {
	Agents(ctx context.Context) ([]repository.AgentRow, service.AgentStats, error)
	Interviews(ctx context.Context, limit int64) ([]repository.InterviewRow, service.InterviewStats, error)
	Dashboard(ctx context.Context) (service.DashboardStats, error)
}

// AdminTemplates is the subset of repository.AdminTemplateRepo used here.
type AdminTemplates interface {
	Create(ctx context.Context, t *model.AdminTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.AdminTemplate, error)
	List(ctx context.Context) ([]model.AdminTemplate, error)
	Update(ctx context.Context, id primitive.ObjectID, p *model.Patch) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AdminHandler serves the admin portal: company quotas, reporting and the
// admin template catalogue.
type AdminHandler struct {
	Companies CompanyAdmin
	Reports   Reports
	Templates AdminTemplates
	Log       *zap.Logger
	Now       func() time.Time
}

func NewAdminHandler(c CompanyAdmin, r Reports, t AdminTemplates, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Companies: c, Reports: r, Templates: t, Log: log}
}

func (h *AdminHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

type quotaReq struct {
	CompanyID      string `json:"companyId" validate:"required"`
	InterviewQuota *int   `json:"interviewQuota" validate:"required"`
	AddToExisting  bool   `json:"addToExisting"`
}

type adminTemplateReq struct {
	Title             string           `json:"title" validate:"required"`
	Description       string           `json:"description"`
	TargetRole        string           `json:"targetRole" validate:"required,oneof=company student general"`
	Questions         []model.Question `json:"questions" validate:"required,min=1,dive"`
	IsActive          *bool            `json:"isActive"`
	Difficulty        string           `json:"difficulty"`
	Category          string           `json:"category"`
	EstimatedDuration int              `json:"estimatedDuration" validate:"gte=0"`
	Skills            []string         `json:"skills"`
	AgentID           string           `json:"agentId"`
}

func (h *AdminHandler) ListCompanies(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Companies.ListCompanies(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"companies": list})
}

// UpdateQuota adds to (addToExisting) or overwrites a company's quota.
func (h *AdminHandler) UpdateQuota(c echo.Context) error {
	var req quotaReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	id, err := repository.ParseID(req.CompanyID)
	if err != nil {
		return badRequest(c, "Invalid company ID")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Companies.UpdateCompanyQuota(ctx, id, *req.InterviewQuota, req.AddToExisting); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Company quota updated successfully"})
}

// Interviews is the admin interview report.  ?limit= caps the row count.
func (h *AdminHandler) Interviews(c echo.Context) error {
	var limit int64
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return badRequest(c, "Invalid limit")
		}
		limit = n
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, stats, err := h.Reports.Interviews(ctx, limit)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"interviews": rows, "stats": stats})
}

func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Reports.Dashboard(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) Agents(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, stats, err := h.Reports.Agents(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "agents": rows, "stats": stats})
}

func (h *AdminHandler) ListTemplates(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Templates.List(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"templates": list})
}

func (h *AdminHandler) GetTemplate(c echo.Context) error {
	id, err := repository.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "Invalid template ID")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Templates.GetByID(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"template": t})
}

func (h *AdminHandler) CreateTemplate(c echo.Context) error {
	var req adminTemplateReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	t := &model.AdminTemplate{
		Title:             strings.TrimSpace(req.Title),
		Description:       req.Description,
		TargetRole:        req.TargetRole,
		Questions:         model.NormalizeQuestions(req.Questions),
		IsActive:          req.IsActive == nil || *req.IsActive,
		Difficulty:        req.Difficulty,
		Category:          req.Category,
		EstimatedDuration: req.EstimatedDuration,
		Skills:            req.Skills,
		AgentID:           strings.TrimSpace(req.AgentID),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Templates.Create(ctx, t); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Template created successfully", "template": t})
}

// UpdateTemplate replaces the editable fields of a template.  Title,
// targetRole and a non-empty question list are required.
func (h *AdminHandler) UpdateTemplate(c echo.Context) error {
	id, err := repository.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "Invalid template ID")
	}
	var req adminTemplateReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	p := model.NewPatch().
		Set("title", strings.TrimSpace(req.Title)).
		Set("description", req.Description).
		Set("targetRole", req.TargetRole).
		Set("questions", model.NormalizeQuestions(req.Questions)).
		Set("updatedAt", h.now())
	if req.IsActive != nil {
		p.Set("isActive", *req.IsActive)
	}
	if req.AgentID != "" {
		p.Set("agentId", strings.TrimSpace(req.AgentID))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Templates.Update(ctx, id, p); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Template updated successfully"})
}

func (h *AdminHandler) DeleteTemplate(c echo.Context) error {
	id, err := repository.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "Invalid template ID")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Templates.Delete(ctx, id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Template deleted successfully"})
}
