// Package queue defines the interview events exchanged over the message
// broker, the publisher used by the API and the background consumer that
// keeps an audit log of them.
package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

// InterviewCompletedEvent is published once per accounted completion.  It
// carries enough context for downstream consumers to log or notify without
// querying the database.
type InterviewCompletedEvent struct {
	EventID        string   `json:"event_id"`
	InterviewID    string   `json:"interview_id"`
	OwnerID        string   `json:"owner_id"`
	OwnerRole      string   `json:"owner_role"`
	SessionType    string   `json:"session_type"`
	QuotaField     string   `json:"quota_field"`
	TemplateID     string   `json:"template_id"`
	CandidateName  string   `json:"candidate_name"`
	CandidateEmail string   `json:"candidate_email"`
	Score          *float64 `json:"score,omitempty"`
	CompletedAt    string   `json:"completed_at"`
}

// NewInterviewCompleted builds the event for iv.  quotaField is the counter
// the completion was charged to.
func NewInterviewCompleted(iv *model.Interview, quotaField string) InterviewCompletedEvent {
	completed := time.Now().UTC()
	if iv.CompletedAt != nil {
		completed = iv.CompletedAt.UTC()
	}
	sessionType := model.SessionInterview
	if iv.IsPractice() {
		sessionType = model.SessionPractice
	} else if iv.Metadata != nil && iv.Metadata.SessionType != "" {
		sessionType = iv.Metadata.SessionType
	}
	return InterviewCompletedEvent{
		EventID:        uuid.NewString(),
		InterviewID:    iv.ID.Hex(),
		OwnerID:        iv.CompanyID.Hex(),
		OwnerRole:      iv.OwnerRole(),
		SessionType:    sessionType,
		QuotaField:     quotaField,
		TemplateID:     iv.TemplateID.Hex(),
		CandidateName:  iv.CandidateName,
		CandidateEmail: iv.CandidateEmail,
		Score:          iv.Score,
		CompletedAt:    completed.Format(time.RFC3339),
	}
}

// LogLine renders ev as one audit log line.
func (ev InterviewCompletedEvent) LogLine() string {
	score := "-"
	if ev.Score != nil {
		score = fmt.Sprintf("%.1f", *ev.Score)
	}
	return fmt.Sprintf("[%s] Interview completed | interview_id=%s | owner=%s:%s | session=%s | quota=%s | candidate=%q | score=%s | event_id=%s\n",
		ev.CompletedAt, ev.InterviewID, ev.OwnerRole, ev.OwnerID, ev.SessionType, ev.QuotaField, ev.CandidateName, score, ev.EventID)
}
