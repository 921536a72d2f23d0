// Package service holds the interview workflow: creation, candidate access,
// the status machine with quota accounting, media ingestion and reporting.
// Handlers talk to these services; services talk to the stores through the
// narrow interfaces below.
package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rakeshreddymandala/humaneq-hr/internal/analysis"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/queue"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
)

// InterviewStore is the subset of repository.InterviewRepo used here.
type InterviewStore interface {
	Insert(ctx context.Context, iv *model.Interview) (primitive.ObjectID, error)
	FindOne(ctx context.Context, filter bson.M) (*model.Interview, error)
	ApplyPatch(ctx context.Context, filter bson.M, p *model.Patch) (bool, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from model.Status, p *model.Patch) (*model.Interview, error)
	List(ctx context.Context, f repository.ListFilter) ([]model.Interview, error)
	ListStale(ctx context.Context, status model.Status, cutoff time.Time) ([]primitive.ObjectID, error)
}

// CompanyTemplateStore reads company templates.
type CompanyTemplateStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Template, error)
}

// AdminTemplateStore reads admin templates.
type AdminTemplateStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.AdminTemplate, error)
	ListForRole(ctx context.Context, role string) ([]model.AdminTemplate, error)
}

// CompanyStore reads company accounts.
type CompanyStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
}

// StudentStore reads and patches student accounts.
type StudentStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Student, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p *model.Patch) error
}

// GeneralUserStore reads general user accounts.
type GeneralUserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.GeneralUser, error)
}

// QuotaReserver holds one unit of an owner's quota while an interview is
// open.  Reserve returns repository.ErrQuotaExhausted when none is left.
type QuotaReserver interface {
	Reserve(ctx context.Context, role string, owner primitive.ObjectID) error
	Unreserve(ctx context.Context, role string, owner primitive.ObjectID) error
}

// QuotaAccountant settles reserved units: a completed interview is charged
// to its owner, an expired or abandoned one gives its unit back.
type QuotaAccountant interface {
	QuotaReserver
	Account(ctx context.Context, iv *model.Interview) (repository.Charge, error)
	Release(ctx context.Context, iv *model.Interview) error
}

// EventPublisher fans completion events out to the broker.
type EventPublisher interface {
	PublishInterviewCompleted(ctx context.Context, ev queue.InterviewCompletedEvent) error
}

// VoiceAgent is the conversational agent provider.
type VoiceAgent interface {
	SignedURL(ctx context.Context, agentID string) (string, error)
	Audio(ctx context.Context, conversationID string) ([]byte, error)
	Transcript(ctx context.Context, conversationID string) ([]model.TranscriptTurn, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

// TranscriptAnalyzer scores a finished conversation.
type TranscriptAnalyzer interface {
	Analyze(ctx context.Context, turns []model.TranscriptTurn) (*analysis.Result, error)
}

// ReportStore runs the reporting aggregations.
type ReportStore interface {
	Agents(ctx context.Context) ([]repository.AgentRow, error)
	Interviews(ctx context.Context, limit int64) ([]repository.InterviewRow, error)
	StatusGroups(ctx context.Context) ([]repository.StatusGroup, error)
	CountAgents(ctx context.Context) (int64, error)
}

// CompanyCounter counts company accounts.
type CompanyCounter interface {
	CountCompanies(ctx context.Context) (int64, error)
}
