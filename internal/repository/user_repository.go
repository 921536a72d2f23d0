package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rakeshreddymandala/humaneq-hr/internal/database"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

// UserRepo persists admin and company accounts in the users collection.
type UserRepo struct{ col *mongo.Collection }

func NewUserRepo(db *mongo.Database) *UserRepo { return &UserRepo{col: db.Collection(database.Users)} }

// Create inserts u and returns its id.  Companies without an explicit quota
// receive model.DefaultCompanyQuota.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	u.Email = normalizeEmail(u.Email)
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == model.RoleCompany && u.InterviewQuota == 0 {
		u.InterviewQuota = model.DefaultCompanyQuota
	}
	if u.AccountStatus == "" {
		u.AccountStatus = model.AccountActive
	}
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrEmailExists
		}
		return primitive.NilObjectID, fmt.Errorf("insert user: %w", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return u.ID, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.col.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var u model.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ListCompanies returns every company account, newest first.
func (r *UserRepo) ListCompanies(ctx context.Context) ([]model.User, error) {
	cur, err := r.col.Find(ctx, bson.M{"role": model.RoleCompany},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find companies: %w", err)
	}
	defer cur.Close(ctx)

	out := []model.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode companies: %w", err)
	}
	return out, nil
}

// UpdateCompanyQuota adds quota to the company's interviewQuota ($inc) when
// add is true, otherwise overwrites it ($set).  Both forms stamp updatedAt
// in the same single-document update.
func (r *UserRepo) UpdateCompanyQuota(ctx context.Context, id primitive.ObjectID, quota int, add bool) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"interviewQuota": quota, "updatedAt": now}}
	if add {
		update = bson.M{"$inc": bson.M{"interviewQuota": quota}, "$set": bson.M{"updatedAt": now}}
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "role": model.RoleCompany}, update)
	if err != nil {
		return fmt.Errorf("update company quota: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountCompanies returns the number of company accounts.
func (r *UserRepo) CountCompanies(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"role": model.RoleCompany})
}
