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

// StudentRepo persists student accounts.
type StudentRepo struct{ col *mongo.Collection }

func NewStudentRepo(db *mongo.Database) *StudentRepo {
	return &StudentRepo{col: db.Collection(database.Students)}
}

// NextQuotaReset returns the first instant of the month after now, in UTC.
func NextQuotaReset(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

// Create inserts a student with the default practice quota.
func (r *StudentRepo) Create(ctx context.Context, s *model.Student) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	s.Email = normalizeEmail(s.Email)
	s.CreatedAt, s.UpdatedAt = now, now
	if s.PracticeQuota == 0 {
		s.PracticeQuota = model.DefaultPracticeQuota
	}
	if s.AccountStatus == "" {
		s.AccountStatus = model.AccountActive
	}
	if s.SubscriptionTier == "" {
		s.SubscriptionTier = "free"
	}
	if s.QuotaResetDate.IsZero() {
		s.QuotaResetDate = NextQuotaReset(now)
	}
	res, err := r.col.InsertOne(ctx, s)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrEmailExists
		}
		return primitive.NilObjectID, fmt.Errorf("insert student: %w", err)
	}
	s.ID = res.InsertedID.(primitive.ObjectID)
	return s.ID, nil
}

func (r *StudentRepo) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	var s model.Student
	if err := r.col.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&s); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *StudentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Student, error) {
	var s model.Student
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// RecordLogin bumps loginCount and stamps lastLoginAt.
func (r *StudentRepo) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"loginCount": 1},
		"$set": bson.M{"lastLoginAt": at, "updatedAt": at},
	})
	return err
}

// UpdateProfile applies a partial update to the student document.
func (r *StudentRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, p *model.Patch) error {
	if p.Len() == 0 {
		return nil
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, p.Update())
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPracticeUsage zeroes practiceUsed for every student whose
// quotaResetDate has passed and moves the reset date to the next month.
func (r *StudentRepo) ResetPracticeUsage(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"quotaResetDate": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{
			"practiceUsed":   0,
			"quotaResetDate": NextQuotaReset(now),
			"updatedAt":      now,
		}})
	if err != nil {
		return 0, fmt.Errorf("reset practice usage: %w", err)
	}
	return res.ModifiedCount, nil
}
