package model

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question types accepted in templates.
const (
	QuestionText           = "text"
	QuestionVideo          = "video"
	QuestionMultipleChoice = "multiple-choice"
)

// Question is one entry in a template's ordered question list.
type Question struct {
	ID        string   `bson:"id" json:"id" yaml:"id"`
	Type      string   `bson:"type" json:"type" yaml:"type" validate:"omitempty,oneof=text video multiple-choice"`
	Question  string   `bson:"question" json:"question" yaml:"question" validate:"required"`
	TimeLimit int      `bson:"timeLimit,omitempty" json:"timeLimit,omitempty" yaml:"timeLimit"`
	Options   []string `bson:"options,omitempty" json:"options,omitempty" yaml:"options"`
	Required  bool     `bson:"required" json:"required" yaml:"required"`
}

// Template is a company-owned question set (`templates`).  CompanyID is nil
// for global templates.  AgentID binds the template to a voice agent.
type Template struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	CompanyID         *primitive.ObjectID `bson:"companyId,omitempty" json:"companyId,omitempty"`
	Title             string              `bson:"title" json:"title"`
	Description       string              `bson:"description" json:"description"`
	Questions         []Question          `bson:"questions" json:"questions"`
	EstimatedDuration int                 `bson:"estimatedDuration" json:"estimatedDuration"`
	IsActive          bool                `bson:"isActive" json:"isActive"`
	AgentID           string              `bson:"agentId,omitempty" json:"agentId,omitempty"`
	Difficulty        string              `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Category          string              `bson:"category,omitempty" json:"category,omitempty"`
	IsPublic          bool                `bson:"isPublic" json:"isPublic"`
	PracticeAllowed   bool                `bson:"practiceAllowed" json:"practiceAllowed"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// AdminTemplate is a template authored by an admin for a target portal
// (`admin_templates`).
type AdminTemplate struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id" yaml:"-"`
	Title             string             `bson:"title" json:"title" yaml:"title"`
	Description       string             `bson:"description" json:"description" yaml:"description"`
	TargetRole        string             `bson:"targetRole" json:"targetRole" yaml:"targetRole"`
	Questions         []Question         `bson:"questions" json:"questions" yaml:"questions"`
	IsActive          bool               `bson:"isActive" json:"isActive" yaml:"isActive"`
	Difficulty        string             `bson:"difficulty,omitempty" json:"difficulty,omitempty" yaml:"difficulty"`
	Category          string             `bson:"category,omitempty" json:"category,omitempty" yaml:"category"`
	EstimatedDuration int                `bson:"estimatedDuration,omitempty" json:"estimatedDuration,omitempty" yaml:"estimatedDuration"`
	Skills            []string           `bson:"skills,omitempty" json:"skills,omitempty" yaml:"skills"`
	AgentID           string             `bson:"agentId,omitempty" json:"agentId,omitempty" yaml:"agentId"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt" yaml:"-"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}

// AsTemplate returns the company-template view of an admin template so
// interviews can reference either kind through one shape.
func (a *AdminTemplate) AsTemplate() *Template {
	return &Template{
		ID:                a.ID,
		Title:             a.Title,
		Description:       a.Description,
		Questions:         a.Questions,
		EstimatedDuration: a.EstimatedDuration,
		IsActive:          a.IsActive,
		AgentID:           a.AgentID,
		Difficulty:        a.Difficulty,
		Category:          a.Category,
		PracticeAllowed:   a.TargetRole == RoleStudent,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// NormalizeQuestions fills missing question ids (q1, q2, ...) and types in
// place and returns qs.
func NormalizeQuestions(qs []Question) []Question {
	for i := range qs {
		if qs[i].ID == "" {
			qs[i].ID = "q" + strconv.Itoa(i+1)
		}
		if qs[i].Type == "" {
			qs[i].Type = QuestionText
		}
	}
	return qs
}
