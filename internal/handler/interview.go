package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/middleware"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
	"github.com/rakeshreddymandala/humaneq-hr/internal/service"
)

// patchTimeout bounds a candidate PATCH.  Conversation artefacts are
// fetched from the voice agent with retries, which outlasts dbTimeout.
const patchTimeout = 2 * time.Minute

// InterviewWorkflow is implemented by service.InterviewService.
type InterviewWorkflow interface {
	Create(ctx context.Context, companyID primitive.ObjectID, in service.CreateInput) (*model.Interview, string, error)
	List(ctx context.Context, role string, ownerID primitive.ObjectID) ([]model.Interview, error)
	Get(ctx context.Context, token string) (*service.InterviewView, error)
	SignedURL(ctx context.Context, token string) (string, error)
	Update(ctx context.Context, token string, in service.UpdateInput) (*model.Interview, error)
}

// InterviewHandler serves company interview management and the public
// candidate endpoints addressed by link token.
type InterviewHandler struct {
	Interviews InterviewWorkflow
	Log        *zap.Logger
}

func NewInterviewHandler(w InterviewWorkflow, log *zap.Logger) *InterviewHandler {
	return &InterviewHandler{Interviews: w, Log: log}
}

type createInterviewReq struct {
	TemplateID     string `json:"templateId" validate:"required"`
	CandidateName  string `json:"candidateName" validate:"required"`
	CandidateEmail string `json:"candidateEmail" validate:"required,email"`
}

type updateInterviewReq struct {
	Status         *string                   `json:"status"`
	Responses      []model.CandidateResponse `json:"responses"`
	Score          *float64                  `json:"score"`
	ConversationID string                    `json:"conversationId"`
}

// List returns the caller's interviews; admins see every non-practice one.
func (h *InterviewHandler) List(c echo.Context) error {
	owner, err := middleware.SubjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Interviews.List(ctx, middleware.Role(c), owner)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"interviews": list})
}

// Create schedules an interview for a candidate and returns its link.
func (h *InterviewHandler) Create(c echo.Context) error {
	owner, err := middleware.SubjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createInterviewReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	tid, err := repository.ParseID(req.TemplateID)
	if err != nil {
		return badRequest(c, "Invalid template id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	iv, url, err := h.Interviews.Create(ctx, owner, service.CreateInput{
		TemplateID:     tid,
		CandidateName:  req.CandidateName,
		CandidateEmail: req.CandidateEmail,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":      "Interview created successfully",
		"interview":    iv,
		"interviewUrl": url,
	})
}

// Get is the candidate view of an interview link.
func (h *InterviewHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	view, err := h.Interviews.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Update applies a candidate PATCH: responses, score, status and optional
// voice conversation artefacts.
func (h *InterviewHandler) Update(c echo.Context) error {
	var req updateInterviewReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), patchTimeout)
	defer cancel()

	iv, err := h.Interviews.Update(ctx, c.Param("id"), service.UpdateInput{
		Status:         req.Status,
		Responses:      req.Responses,
		Score:          req.Score,
		ConversationID: strings.TrimSpace(req.ConversationID),
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":          true,
		"message":          "Interview updated successfully",
		"updatedInterview": iv,
	})
}

// SignedURL returns a voice agent session URL for the interview template.
func (h *InterviewHandler) SignedURL(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	url, err := h.Interviews.SignedURL(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"signedUrl": url})
}
