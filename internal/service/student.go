package service

import (
	"context"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
)

// StudentService backs the student portal pages.
type StudentService struct {
	Students   StudentStore
	Interviews InterviewStore
	Admin      AdminTemplateStore
	Now        func() time.Time
}

// ProfileInput is the editable part of a student profile.  Only non-empty
// names are applied.
type ProfileInput struct {
	FirstName string
	LastName  string
}

// Analytics summarises a student's practice history.
type Analytics struct {
	TotalSessions     int               `json:"totalSessions"`
	CompletedSessions int               `json:"completedSessions"`
	AverageScore      int               `json:"averageScore"`
	PracticeUsed      int               `json:"practiceUsed"`
	PracticeQuota     int               `json:"practiceQuota"`
	RecentSessions    []model.Interview `json:"recentSessions"`
	Improvement       []ScorePoint      `json:"improvement"`
}

// ScorePoint is one completed session on the improvement chart.
type ScorePoint struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

// Profile returns the student record.
func (s *StudentService) Profile(ctx context.Context, id primitive.ObjectID) (*model.Student, error) {
	return s.Students.GetByID(ctx, id)
}

// UpdateProfile patches first and last name and returns the fresh record.
func (s *StudentService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (*model.Student, error) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	p := model.NewPatch().Set("updatedAt", now)
	if v := strings.TrimSpace(in.FirstName); v != "" {
		p.Set("firstName", v)
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		p.Set("lastName", v)
	}
	if err := s.Students.UpdateProfile(ctx, id, p); err != nil {
		return nil, err
	}
	return s.Students.GetByID(ctx, id)
}

// Analytics computes totals, the rounded average of completed scores, the
// five most recent sessions and the last ten completed scores oldest first.
func (s *StudentService) Analytics(ctx context.Context, id primitive.ObjectID) (*Analytics, error) {
	st, err := s.Students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	practice := true
	sessions, err := s.Interviews.List(ctx, repository.ListFilter{OwnerID: &id, Practice: &practice})
	if err != nil {
		return nil, err
	}

	a := &Analytics{
		TotalSessions:  len(sessions),
		PracticeUsed:   st.PracticeUsed,
		PracticeQuota:  st.PracticeQuota,
		RecentSessions: sessions[:min(5, len(sessions))],
		Improvement:    []ScorePoint{},
	}
	var scores []*float64
	for i := range sessions {
		iv := &sessions[i]
		if iv.Status != model.StatusCompleted {
			continue
		}
		a.CompletedSessions++
		scores = append(scores, iv.Score)
		if iv.Score != nil && len(a.Improvement) < 10 {
			at := iv.CreatedAt
			if iv.CompletedAt != nil {
				at = *iv.CompletedAt
			}
			a.Improvement = append(a.Improvement, ScorePoint{Date: at, Score: *iv.Score})
		}
	}
	a.AverageScore = int(math.Round(AverageScore(scores)))
	// sessions are newest first; the chart reads left to right.
	for i, j := 0, len(a.Improvement)-1; i < j; i, j = i+1, j-1 {
		a.Improvement[i], a.Improvement[j] = a.Improvement[j], a.Improvement[i]
	}
	return a, nil
}

// Templates lists the active admin templates offered to students.
func (s *StudentService) Templates(ctx context.Context) ([]model.AdminTemplate, error) {
	return s.Admin.ListForRole(ctx, model.RoleStudent)
}
