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

// GeneralUserRepo persists self-service candidate accounts.
type GeneralUserRepo struct{ col *mongo.Collection }

func NewGeneralUserRepo(db *mongo.Database) *GeneralUserRepo {
	return &GeneralUserRepo{col: db.Collection(database.GeneralUsers)}
}

func (r *GeneralUserRepo) Create(ctx context.Context, g *model.GeneralUser) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	g.Email = normalizeEmail(g.Email)
	g.CreatedAt, g.UpdatedAt = now, now
	if g.InterviewQuota == 0 {
		g.InterviewQuota = model.DefaultGeneralQuota
	}
	if g.AccountStatus == "" {
		g.AccountStatus = model.AccountActive
	}
	if g.SubscriptionTier == "" {
		g.SubscriptionTier = "free"
	}
	if g.QuotaResetDate.IsZero() {
		g.QuotaResetDate = NextQuotaReset(now)
	}
	res, err := r.col.InsertOne(ctx, g)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrEmailExists
		}
		return primitive.NilObjectID, fmt.Errorf("insert general user: %w", err)
	}
	g.ID = res.InsertedID.(primitive.ObjectID)
	return g.ID, nil
}

func (r *GeneralUserRepo) GetByEmail(ctx context.Context, email string) (*model.GeneralUser, error) {
	var g model.GeneralUser
	if err := r.col.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&g); err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (r *GeneralUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.GeneralUser, error) {
	var g model.GeneralUser
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// RecordLogin stamps lastLoginAt.
func (r *GeneralUserRepo) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastLoginAt": at, "updatedAt": at}})
	return err
}
