package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
)

// ReportService shapes the admin aggregations for the dashboard.
type ReportService struct {
	Reports   ReportStore
	Companies CompanyCounter
}

// AgentStats counts agents per owner type.
type AgentStats struct {
	TotalAgents   int `json:"totalAgents"`
	CompanyAgents int `json:"companyAgents"`
	StudentAgents int `json:"studentAgents"`
	GeneralAgents int `json:"generalAgents"`
}

// InterviewStats summarises interviews per status.
type InterviewStats struct {
	Total        int64   `json:"total"`
	Completed    int64   `json:"completed"`
	InProgress   int64   `json:"inProgress"`
	Scheduled    int64   `json:"scheduled"`
	AverageScore float64 `json:"averageScore"`
}

// DashboardStats feeds the admin landing page.
type DashboardStats struct {
	TotalCompanies   int64 `json:"totalCompanies"`
	TotalInterviews  int64 `json:"totalInterviews"`
	ActiveInterviews int64 `json:"activeInterviews"`
	ActiveAgents     int64 `json:"activeAgents"`
}

// Agents returns the agents view and its per-type counts.
func (s *ReportService) Agents(ctx context.Context) ([]repository.AgentRow, AgentStats, error) {
	rows, err := s.Reports.Agents(ctx)
	if err != nil {
		return nil, AgentStats{}, err
	}
	st := AgentStats{TotalAgents: len(rows)}
	for _, r := range rows {
		switch r.UserType {
		case model.RoleCompany:
			st.CompanyAgents++
		case model.RoleStudent:
			st.StudentAgents++
		default:
			st.GeneralAgents++
		}
	}
	return rows, st, nil
}

// Interviews returns the latest interviews with display defaults applied,
// plus stats over the whole collection.
func (s *ReportService) Interviews(ctx context.Context, limit int64) ([]repository.InterviewRow, InterviewStats, error) {
	rows, err := s.Reports.Interviews(ctx, limit)
	if err != nil {
		return nil, InterviewStats{}, err
	}
	for i := range rows {
		r := &rows[i]
		if r.CompanyName == "" {
			r.CompanyName = "Unknown Company"
		}
		if r.TemplateName == "" {
			r.TemplateName = "Unknown Template"
		}
		r.Duration = FormatDuration(r.StartedAt, r.CompletedAt)
	}
	groups, err := s.Reports.StatusGroups(ctx)
	if err != nil {
		return nil, InterviewStats{}, err
	}
	return rows, Summarize(groups), nil
}

// Dashboard returns the headline counters.
func (s *ReportService) Dashboard(ctx context.Context) (DashboardStats, error) {
	var d DashboardStats
	companies, err := s.Companies.CountCompanies(ctx)
	if err != nil {
		return d, err
	}
	groups, err := s.Reports.StatusGroups(ctx)
	if err != nil {
		return d, err
	}
	agents, err := s.Reports.CountAgents(ctx)
	if err != nil {
		return d, err
	}
	sum := Summarize(groups)
	d.TotalCompanies = companies
	d.TotalInterviews = sum.Total
	d.ActiveInterviews = sum.Scheduled + sum.InProgress
	d.ActiveAgents = agents
	return d, nil
}

// FormatDuration renders completedAt-startedAt in whole minutes, or "-"
// when either is missing.
func FormatDuration(startedAt, completedAt *time.Time) string {
	if startedAt == nil || completedAt == nil {
		return "-"
	}
	mins := math.Round(completedAt.Sub(*startedAt).Minutes())
	return fmt.Sprintf("%d min", int64(mins))
}

// Summarize folds per-status groups into InterviewStats.  Records without
// a status count as scheduled.
func Summarize(groups []repository.StatusGroup) InterviewStats {
	var (
		st     InterviewStats
		sum    float64
		scored int64
	)
	for _, g := range groups {
		st.Total += g.Count
		switch g.Status {
		case model.StatusCompleted:
			st.Completed += g.Count
		case model.StatusInProgress:
			st.InProgress += g.Count
		case model.StatusPending, "":
			st.Scheduled += g.Count
		}
		sum += g.ScoreSum
		scored += g.Scored
	}
	if scored > 0 {
		st.AverageScore = round1(sum / float64(scored))
	}
	return st
}

// AverageScore averages the non-nil scores, rounded to one decimal.  It is
// 0 when nothing is scored.
func AverageScore(scores []*float64) float64 {
	var (
		sum float64
		n   int
	)
	for _, s := range scores {
		if s == nil {
			continue
		}
		sum += *s
		n++
	}
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
