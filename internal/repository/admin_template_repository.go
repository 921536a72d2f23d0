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

// AdminTemplateRepo persists admin-authored templates aimed at a portal.
type AdminTemplateRepo struct{ col *mongo.Collection }

func NewAdminTemplateRepo(db *mongo.Database) *AdminTemplateRepo {
	return &AdminTemplateRepo{col: db.Collection(database.AdminTemplates)}
}

// RoleFilter is the filter used to list the templates offered to a portal.
// Only active templates are ever offered.
func RoleFilter(role string) bson.M {
	return bson.M{"targetRole": role, "isActive": true}
}

func (r *AdminTemplateRepo) Create(ctx context.Context, t *model.AdminTemplate) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	res, err := r.col.InsertOne(ctx, t)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert admin template: %w", err)
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return t.ID, nil
}

// InsertMany bulk-inserts seed templates and returns how many were written.
func (r *AdminTemplateRepo) InsertMany(ctx context.Context, ts []model.AdminTemplate) (int, error) {
	if len(ts) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	docs := make([]any, 0, len(ts))
	for i := range ts {
		ts[i].CreatedAt, ts[i].UpdatedAt = now, now
		docs = append(docs, ts[i])
	}
	res, err := r.col.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert admin templates: %w", err)
	}
	return len(res.InsertedIDs), nil
}

func (r *AdminTemplateRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.AdminTemplate, error) {
	var t model.AdminTemplate
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// List returns every admin template, newest first.
func (r *AdminTemplateRepo) List(ctx context.Context) ([]model.AdminTemplate, error) {
	return r.find(ctx, bson.M{})
}

// ListForRole returns the active templates targeted at role, newest first.
func (r *AdminTemplateRepo) ListForRole(ctx context.Context, role string) ([]model.AdminTemplate, error) {
	return r.find(ctx, RoleFilter(role))
}

// Update applies p to the template.
func (r *AdminTemplateRepo) Update(ctx context.Context, id primitive.ObjectID, p *model.Patch) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, p.Update())
	if err != nil {
		return fmt.Errorf("update admin template: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AdminTemplateRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete admin template: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AdminTemplateRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *AdminTemplateRepo) find(ctx context.Context, filter bson.M) ([]model.AdminTemplate, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find admin templates: %w", err)
	}
	defer cur.Close(ctx)

	out := []model.AdminTemplate{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode admin templates: %w", err)
	}
	return out, nil
}
