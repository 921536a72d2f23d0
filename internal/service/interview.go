package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/metrics"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/queue"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
	"github.com/rakeshreddymandala/humaneq-hr/internal/utils"
)

// InterviewService owns the interview lifecycle.
type InterviewService struct {
	Interviews InterviewStore
	Resolver   *repository.Resolver
	Templates  TemplateCatalog
	Companies  CompanyStore
	Accountant QuotaAccountant
	Events     EventPublisher
	Voice      VoiceAgent
	Analyzer   TranscriptAnalyzer
	Media      *MediaService
	BaseURL    string
	Log        *zap.Logger
	Now        func() time.Time
}

// CreateInput is the body of a company interview creation.
type CreateInput struct {
	TemplateID     primitive.ObjectID
	CandidateName  string
	CandidateEmail string
}

// InterviewView is what a candidate sees when opening a link.
type InterviewView struct {
	Interview   *model.Interview `json:"interview"`
	Template    *model.Template  `json:"template"`
	CompanyName string           `json:"companyName"`
	Analysis    map[string]any   `json:"analysis,omitempty"`
	FinalScore  map[string]any   `json:"finalScore,omitempty"`
}

// UpdateInput is a candidate PATCH.  Nil fields are left untouched.
type UpdateInput struct {
	Status         *string
	Responses      []model.CandidateResponse
	Score          *float64
	ConversationID string
}

func (s *InterviewService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *InterviewService) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Create schedules a pending interview for a company after checking the
// template exists, and holds one unit of the company's quota for it.  The
// unit is charged at completion or given back if the interview expires.
func (s *InterviewService) Create(ctx context.Context, companyID primitive.ObjectID, in CreateInput) (*model.Interview, string, error) {
	tpl, err := s.Templates.Find(ctx, in.TemplateID)
	if err != nil {
		return nil, "", err
	}
	if _, err := s.Companies.GetByID(ctx, companyID); err != nil {
		return nil, "", err
	}
	if err := s.Accountant.Reserve(ctx, model.RoleCompany, companyID); err != nil {
		if errors.Is(err, repository.ErrQuotaExhausted) {
			return nil, "", ErrQuotaExceeded
		}
		return nil, "", err
	}

	now := s.now()
	link, err := utils.NewUniqueLink(now)
	if err != nil {
		s.unreserve(ctx, model.RoleCompany, companyID)
		return nil, "", fmt.Errorf("generate link: %w", err)
	}
	iv := &model.Interview{
		CompanyID:      companyID,
		TemplateID:     tpl.ID,
		CandidateName:  strings.TrimSpace(in.CandidateName),
		CandidateEmail: strings.ToLower(strings.TrimSpace(in.CandidateEmail)),
		UniqueLink:     link,
		Status:         model.StatusPending,
		CreatedAt:      now,
		QuotaReserved:  true,
		Metadata: &model.SessionMetadata{
			SessionType: model.SessionInterview,
			UserRole:    model.RoleCompany,
			UserID:      companyID.Hex(),
			QuotaType:   model.QuotaInterviewsUsed,
		},
	}
	if _, err := s.Interviews.Insert(ctx, iv); err != nil {
		s.unreserve(ctx, model.RoleCompany, companyID)
		return nil, "", err
	}
	return iv, utils.InterviewURL(s.BaseURL, link), nil
}

// List returns non-practice interviews, all of them for admins and the
// company's own otherwise.
func (s *InterviewService) List(ctx context.Context, role string, ownerID primitive.ObjectID) ([]model.Interview, error) {
	practice := false
	f := repository.ListFilter{Practice: &practice}
	if role != model.RoleAdmin {
		f.OwnerID = &ownerID
	}
	return s.Interviews.List(ctx, f)
}

// Get resolves token for the candidate page.  Completed interviews are
// refused.
func (s *InterviewService) Get(ctx context.Context, token string) (*InterviewView, error) {
	iv, err := s.Resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if iv.Status == model.StatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	tpl, err := s.Templates.Find(ctx, iv.TemplateID)
	if err != nil {
		return nil, err
	}
	return &InterviewView{
		Interview:   iv,
		Template:    tpl,
		CompanyName: s.companyName(ctx, iv),
		Analysis:    iv.Analysis,
		FinalScore:  iv.FinalScore,
	}, nil
}

func (s *InterviewService) companyName(ctx context.Context, iv *model.Interview) string {
	if iv.OwnerRole() != model.RoleCompany || s.Companies == nil {
		return "Unknown Company"
	}
	u, err := s.Companies.GetByID(ctx, iv.CompanyID)
	if err != nil {
		return "Unknown Company"
	}
	switch {
	case u.CompanyName != "":
		return u.CompanyName
	case u.Name != "":
		return u.Name
	default:
		return "Company"
	}
}

// SignedURL returns a voice-agent session URL for the interview's template.
func (s *InterviewService) SignedURL(ctx context.Context, token string) (string, error) {
	iv, err := s.Resolver.Resolve(ctx, token)
	if err != nil {
		return "", err
	}
	tpl, err := s.Templates.Find(ctx, iv.TemplateID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(tpl.AgentID) == "" {
		return "", ErrNoAgent
	}
	return s.Voice.SignedURL(ctx, tpl.AgentID)
}

// Update applies a candidate PATCH.  Any write that names a status is
// conditional on the status the request saw, so it can never overwrite a
// transition committed by someone else; only the request that commits a
// transition into completed charges the quota and publishes the completion
// event.
func (s *InterviewService) Update(ctx context.Context, token string, in UpdateInput) (*model.Interview, error) {
	iv, err := s.Resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	now := s.now()

	data := model.NewPatch().Set("updatedAt", now)
	if in.Responses != nil {
		data.Set("responses", in.Responses)
	}
	if in.Score != nil {
		data.Set("score", *in.Score)
	}

	var from, to model.Status
	if in.Status != nil {
		if to, err = model.ParseStatus(*in.Status); err != nil {
			return nil, err
		}
		if from, err = model.ParseStatus(string(iv.Status)); err != nil {
			return nil, err
		}
		tp, err := model.Transition(from, to, now)
		if err != nil {
			return nil, err
		}
		data.Merge(tp)
	}

	conversationID := strings.TrimSpace(in.ConversationID)
	if conversationID != "" {
		data.Merge(s.conversationArtefacts(ctx, iv, conversationID))
	}

	var updated *model.Interview
	if in.Status == nil {
		matched, err := s.Interviews.ApplyPatch(ctx, bson.M{"_id": iv.ID}, data)
		if err != nil {
			return nil, err
		}
		if !matched {
			return nil, repository.ErrNotFound
		}
		if updated, err = s.Interviews.FindOne(ctx, bson.M{"_id": iv.ID}); err != nil {
			return nil, err
		}
	} else if updated, err = s.Interviews.TransitionStatus(ctx, iv.ID, from, data); err != nil {
		return nil, err
	}

	if conversationID != "" {
		s.dropConversation(ctx, iv, conversationID)
	}
	if in.Status == nil || from == to {
		return updated, nil
	}

	metrics.Transition(string(to))
	s.log().Info("interview status changed",
		zap.String("interview_id", iv.ID.Hex()), zap.String("from", string(from)), zap.String("to", string(to)))

	switch to {
	case model.StatusCompleted:
		if err := s.complete(ctx, updated); err != nil {
			return nil, err
		}
	case model.StatusExpired, model.StatusAbandoned:
		s.release(ctx, updated)
	}
	return updated, nil
}

// complete charges the quota and publishes the event.  Publishing failures
// never fail the request.
func (s *InterviewService) complete(ctx context.Context, iv *model.Interview) error {
	charge, err := s.Accountant.Account(ctx, iv)
	if errors.Is(err, repository.ErrAlreadyAccounted) {
		s.log().Info("completion already accounted", zap.String("interview_id", iv.ID.Hex()))
		return nil
	}
	if err != nil {
		s.log().Error("quota accounting failed",
			zap.String("interview_id", iv.ID.Hex()), zap.String("field", charge.Field), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrAccounting, err)
	}
	metrics.QuotaAccounted(charge.Field)

	if s.Events != nil {
		ev := queue.NewInterviewCompleted(iv, charge.Field)
		if err := s.Events.PublishInterviewCompleted(ctx, ev); err != nil {
			s.log().Warn("publish interview.completed failed",
				zap.String("interview_id", iv.ID.Hex()), zap.Error(err))
		}
	}
	return nil
}

// release gives back the unit held by an interview that ended without
// completing.  The status is already committed, so failures are logged.
func (s *InterviewService) release(ctx context.Context, iv *model.Interview) {
	err := s.Accountant.Release(ctx, iv)
	if err != nil && !errors.Is(err, repository.ErrAlreadyAccounted) {
		s.log().Error("quota release failed", zap.String("interview_id", iv.ID.Hex()), zap.Error(err))
	}
}

func (s *InterviewService) unreserve(ctx context.Context, role string, owner primitive.ObjectID) {
	if err := s.Accountant.Unreserve(ctx, role, owner); err != nil {
		s.log().Error("quota unreserve failed", zap.String("owner_id", owner.Hex()), zap.Error(err))
	}
}

// conversationArtefacts pulls audio, transcript and analysis for a finished
// voice conversation.  Every step is best effort; the returned patch only
// holds what succeeded.
func (s *InterviewService) conversationArtefacts(ctx context.Context, iv *model.Interview, conversationID string) *model.Patch {
	p := model.NewPatch().Set("conversationId", conversationID)
	if s.Voice == nil {
		return p
	}
	log := s.log().With(zap.String("interview_id", iv.ID.Hex()), zap.String("conversation_id", conversationID))

	if audio, err := s.Voice.Audio(ctx, conversationID); err != nil {
		log.Warn("fetch conversation audio failed", zap.Error(err))
	} else if s.Media != nil {
		res, err := s.Media.IngestAudio(ctx, conversationID, audio)
		if err != nil {
			log.Warn("store conversation audio failed", zap.Error(err))
		} else {
			p.Set("audio", res.LocalPath)
			if res.S3URL != nil {
				p.Set("audioS3", *res.S3URL)
			}
		}
	}

	turns, err := s.Voice.Transcript(ctx, conversationID)
	if err != nil {
		log.Warn("fetch transcript failed", zap.Error(err))
	} else if len(turns) > 0 {
		p.Set("transcript", turns)
		if s.Analyzer != nil {
			if res, err := s.Analyzer.Analyze(ctx, turns); err != nil {
				log.Warn("transcript analysis failed", zap.Error(err))
			} else {
				p.Set("analysis", res.Analysis).Set("finalScore", res.FinalScore)
			}
		}
	}

	return p
}

// dropConversation deletes the conversation from the provider once its
// artefacts are stored on the interview.
func (s *InterviewService) dropConversation(ctx context.Context, iv *model.Interview, conversationID string) {
	if s.Voice == nil {
		return
	}
	if err := s.Voice.DeleteConversation(ctx, conversationID); err != nil {
		s.log().Warn("delete conversation failed",
			zap.String("interview_id", iv.ID.Hex()), zap.String("conversation_id", conversationID), zap.Error(err))
	}
}

// ExpireStale moves pending interviews created before now-after to expired
// and returns how many it changed.  Interviews that moved on concurrently
// are skipped.
func (s *InterviewService) ExpireStale(ctx context.Context, after time.Duration) (int, error) {
	now := s.now()
	ids, err := s.Interviews.ListStale(ctx, model.StatusPending, now.Add(-after))
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		p, err := model.Transition(model.StatusPending, model.StatusExpired, now)
		if err != nil {
			return expired, err
		}
		iv, err := s.Interviews.TransitionStatus(ctx, id, model.StatusPending, p)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			return expired, err
		}
		s.release(ctx, iv)
		metrics.Transition(string(model.StatusExpired))
		expired++
	}
	return expired, nil
}
