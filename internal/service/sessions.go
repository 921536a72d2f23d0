package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
	"github.com/rakeshreddymandala/humaneq-hr/internal/utils"
)

// ErrPracticeLimit is returned when a student has no practice sessions left
// this month.
var ErrPracticeLimit = fmt.Errorf("%w: practice limit reached", ErrQuotaExceeded)

// SessionService starts and lists self-service sessions for students
// (practice) and general users.
type SessionService struct {
	Interviews   InterviewStore
	Templates    TemplateCatalog
	Admin        AdminTemplateStore
	Students     StudentStore
	GeneralUsers GeneralUserStore
	Quota        QuotaReserver
	BaseURL      string
	Now          func() time.Time
}

// SessionSummary is the list view of a practice or general session.
type SessionSummary struct {
	ID          string       `json:"id"`
	UniqueLink  string       `json:"uniqueLink"`
	TemplateID  string       `json:"templateId"`
	Title       string       `json:"title"`
	Type        string       `json:"type"`
	Difficulty  string       `json:"difficulty"`
	Category    string       `json:"category"`
	Score       *float64     `json:"score"`
	Status      model.Status `json:"status"`
	StartedAt   *time.Time   `json:"startedAt"`
	CompletedAt *time.Time   `json:"completedAt"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Started is returned when a session is created.
type Started struct {
	Interview    *model.Interview `json:"session"`
	InterviewURL string           `json:"interviewUrl"`
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// StartPractice creates a pending practice interview for studentID and
// holds one practice unit for it.  The unit turns into practiceUsed on
// completion and is given back if the session expires or is abandoned.
func (s *SessionService) StartPractice(ctx context.Context, studentID, templateID primitive.ObjectID) (*Started, error) {
	st, err := s.Students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st.PracticeUsed >= st.PracticeQuota {
		return nil, ErrPracticeLimit
	}
	tpl, err := s.activeTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	started, err := s.start(ctx, tpl, studentID, st.FirstName+" "+st.LastName, st.Email, &model.SessionMetadata{
		SessionType: model.SessionPractice,
		UserRole:    model.RoleStudent,
		UserID:      studentID.Hex(),
		QuotaType:   model.QuotaPracticeUsed,
	})
	if errors.Is(err, repository.ErrQuotaExhausted) {
		return nil, ErrPracticeLimit
	}
	return started, err
}

// StartGeneral creates a pending interview for a general user against an
// admin template aimed at general users, holding one interview unit.
func (s *SessionService) StartGeneral(ctx context.Context, userID, templateID primitive.ObjectID) (*Started, error) {
	u, err := s.GeneralUsers.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.InterviewsUsed >= u.InterviewQuota {
		return nil, ErrQuotaExceeded
	}
	tpl, err := s.activeTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	started, err := s.start(ctx, tpl, userID, u.FirstName+" "+u.LastName, u.Email, &model.SessionMetadata{
		SessionType: model.SessionInterview,
		UserRole:    model.RoleGeneral,
		UserID:      userID.Hex(),
		QuotaType:   model.QuotaInterviewsUsed,
	})
	if errors.Is(err, repository.ErrQuotaExhausted) {
		return nil, ErrQuotaExceeded
	}
	return started, err
}

func (s *SessionService) activeTemplate(ctx context.Context, id primitive.ObjectID) (*model.Template, error) {
	tpl, err := s.Templates.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tpl.IsActive {
		return nil, ErrTemplateNotFound
	}
	return tpl, nil
}

// start reserves a unit for the owner named in md, then stores the
// session.  The unit is handed back when the session cannot be stored.
func (s *SessionService) start(ctx context.Context, tpl *model.Template, owner primitive.ObjectID, name, email string, md *model.SessionMetadata) (*Started, error) {
	now := s.now()
	link, err := utils.NewUniqueLink(now)
	if err != nil {
		return nil, fmt.Errorf("generate link: %w", err)
	}
	if err := s.Quota.Reserve(ctx, md.UserRole, owner); err != nil {
		return nil, err
	}
	iv := &model.Interview{
		CompanyID:      owner,
		TemplateID:     tpl.ID,
		CandidateName:  name,
		CandidateEmail: email,
		UniqueLink:     link,
		Status:         model.StatusPending,
		CreatedAt:      now,
		Metadata:       md,
		QuotaReserved:  true,
	}
	if _, err := s.Interviews.Insert(ctx, iv); err != nil {
		if uerr := s.Quota.Unreserve(ctx, md.UserRole, owner); uerr != nil {
			err = errors.Join(err, uerr)
		}
		return nil, err
	}
	return &Started{Interview: iv, InterviewURL: utils.InterviewURL(s.BaseURL, link)}, nil
}

// ListPractice returns a student's practice sessions, newest first.  status
// "all" or empty means any status; limit defaults to 10.
func (s *SessionService) ListPractice(ctx context.Context, studentID primitive.ObjectID, status string, limit int64) ([]SessionSummary, error) {
	practice := true
	f := repository.ListFilter{OwnerID: &studentID, Practice: &practice, Limit: limit}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if status != "" && status != "all" {
		st, err := model.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	ivs, err := s.Interviews.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, ivs, model.SessionPractice), nil
}

// ListGeneral returns a general user's sessions, newest first.
func (s *SessionService) ListGeneral(ctx context.Context, userID primitive.ObjectID) ([]SessionSummary, error) {
	practice := false
	ivs, err := s.Interviews.List(ctx, repository.ListFilter{OwnerID: &userID, Practice: &practice})
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, ivs, model.SessionInterview), nil
}

// GeneralTemplates lists the active admin templates offered to general
// users.
func (s *SessionService) GeneralTemplates(ctx context.Context) ([]model.AdminTemplate, error) {
	return s.Admin.ListForRole(ctx, model.RoleGeneral)
}

func (s *SessionService) summaries(ctx context.Context, ivs []model.Interview, kind string) []SessionSummary {
	titles := map[primitive.ObjectID]*model.Template{}
	out := make([]SessionSummary, 0, len(ivs))
	for i := range ivs {
		iv := &ivs[i]
		tpl, ok := titles[iv.TemplateID]
		if !ok {
			tpl, _ = s.Templates.Find(ctx, iv.TemplateID)
			titles[iv.TemplateID] = tpl
		}
		sum := SessionSummary{
			ID:          iv.ID.Hex(),
			UniqueLink:  iv.UniqueLink,
			TemplateID:  iv.TemplateID.Hex(),
			Title:       "Unknown Template",
			Type:        kind,
			Difficulty:  "intermediate",
			Category:    "general",
			Score:       iv.Score,
			Status:      iv.Status,
			StartedAt:   iv.StartedAt,
			CompletedAt: iv.CompletedAt,
			CreatedAt:   iv.CreatedAt,
		}
		if tpl != nil {
			sum.Title = tpl.Title
			if tpl.Difficulty != "" {
				sum.Difficulty = tpl.Difficulty
			}
			if tpl.Category != "" {
				sum.Category = tpl.Category
			}
		}
		out = append(out, sum)
	}
	return out
}
