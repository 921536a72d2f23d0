package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rakeshreddymandala/humaneq-hr/internal/database"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

// ReportRepo runs the read-only aggregations behind the admin dashboards.
type ReportRepo struct {
	interviews *mongo.Collection
	templates  *mongo.Collection
}

func NewReportRepo(db *mongo.Database) *ReportRepo {
	return &ReportRepo{
		interviews: db.Collection(database.Interviews),
		templates:  db.Collection(database.Templates),
	}
}

// AgentRow is one voice agent bound to a template, joined with its owner.
type AgentRow struct {
	AgentID        string             `bson:"agentId" json:"agentId"`
	TemplateID     primitive.ObjectID `bson:"templateId" json:"templateId"`
	TemplateTitle  string             `bson:"templateTitle" json:"templateTitle"`
	CompanyName    string             `bson:"companyName" json:"companyName"`
	OwnerRole      string             `bson:"ownerRole" json:"-"`
	OwnedByStudent bool               `bson:"ownedByStudent" json:"-"`
	UserType       string             `bson:"-" json:"userType"`
	Status         string             `bson:"-" json:"status"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// InterviewRow is one interview joined with its company and template.
type InterviewRow struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	CandidateName  string             `bson:"candidateName" json:"candidateName"`
	CandidateEmail string             `bson:"candidateEmail" json:"candidateEmail"`
	Status         model.Status       `bson:"status" json:"status"`
	Score          *float64           `bson:"score" json:"score"`
	CompanyName    string             `bson:"companyName" json:"companyName"`
	TemplateName   string             `bson:"templateName" json:"templateName"`
	Duration       string             `bson:"-" json:"duration"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	StartedAt      *time.Time         `bson:"startedAt" json:"startedAt"`
	CompletedAt    *time.Time         `bson:"completedAt" json:"completedAt"`
}

// StatusGroup carries per-status counts and score sums.  Scored counts only
// documents whose score is a number.
type StatusGroup struct {
	Status   model.Status `bson:"_id"`
	Count    int64        `bson:"count"`
	ScoreSum float64      `bson:"scoreSum"`
	Scored   int64        `bson:"scored"`
}

// AgentUserType classifies the owner of an agent-bearing template.
func AgentUserType(ownerRole string, ownedByStudent bool) string {
	switch {
	case ownerRole == model.RoleCompany:
		return model.RoleCompany
	case ownedByStudent:
		return model.RoleStudent
	default:
		return model.RoleGeneral
	}
}

func first(field string) bson.M {
	return bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{field, 0}}, ""}}
}

// Agents lists templates bound to a voice agent, newest first.
func (r *ReportRepo) Agents(ctx context.Context) ([]AgentRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"agentId": bson.M{"$exists": true, "$nin": bson.A{"", nil}}}}},
		{{Key: "$lookup", Value: bson.M{
			"from": database.Users, "localField": "companyId", "foreignField": "_id", "as": "owner",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from": database.Students, "localField": "companyId", "foreignField": "_id", "as": "student",
		}}},
		{{Key: "$project", Value: bson.M{
			"agentId":        1,
			"templateId":     "$_id",
			"templateTitle":  "$title",
			"companyName":    first("$owner.companyName"),
			"ownerRole":      first("$owner.role"),
			"ownedByStudent": bson.M{"$gt": bson.A{bson.M{"$size": "$student"}, 0}},
			"createdAt":      1,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	cur, err := r.templates.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate agents: %w", err)
	}
	defer cur.Close(ctx)

	out := []AgentRow{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode agents: %w", err)
	}
	for i := range out {
		out[i].UserType = AgentUserType(out[i].OwnerRole, out[i].OwnedByStudent)
		out[i].Status = "active"
	}
	return out, nil
}

// Interviews lists the latest interviews joined with company and template
// names.  Duration and name defaults are filled by the caller.
func (r *ReportRepo) Interviews(ctx context.Context, limit int64) ([]InterviewRow, error) {
	if limit <= 0 {
		limit = 100
	}
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from": database.Users, "localField": "companyId", "foreignField": "_id", "as": "company",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from": database.Templates, "localField": "templateId", "foreignField": "_id", "as": "template",
		}}},
		{{Key: "$project", Value: bson.M{
			"candidateName":  1,
			"candidateEmail": 1,
			"status":         1,
			"score":          1,
			"createdAt":      1,
			"startedAt":      1,
			"completedAt":    1,
			"companyName":    first("$company.companyName"),
			"templateName":   first("$template.title"),
		}}},
	}
	cur, err := r.interviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate interviews: %w", err)
	}
	defer cur.Close(ctx)

	out := []InterviewRow{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode interview rows: %w", err)
	}
	return out, nil
}

// StatusGroups counts interviews per status and sums their numeric scores.
func (r *ReportRepo) StatusGroups(ctx context.Context) ([]StatusGroup, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":      "$status",
			"count":    bson.M{"$sum": 1},
			"scoreSum": bson.M{"$sum": "$score"},
			"scored": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$isNumber": "$score"}, 1, 0},
			}},
		}}},
	}
	cur, err := r.interviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate status groups: %w", err)
	}
	defer cur.Close(ctx)

	out := []StatusGroup{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode status groups: %w", err)
	}
	return out, nil
}

// CountAgents counts templates bound to a voice agent.
func (r *ReportRepo) CountAgents(ctx context.Context) (int64, error) {
	return r.templates.CountDocuments(ctx,
		bson.M{"agentId": bson.M{"$exists": true, "$nin": bson.A{"", nil}}})
}
