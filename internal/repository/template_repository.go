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

// TemplateRepo persists company-owned templates.
type TemplateRepo struct{ col *mongo.Collection }

func NewTemplateRepo(db *mongo.Database) *TemplateRepo {
	return &TemplateRepo{col: db.Collection(database.Templates)}
}

// Create inserts t and returns its id.
func (r *TemplateRepo) Create(ctx context.Context, t *model.Template) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	if t.Questions == nil {
		t.Questions = []model.Question{}
	}
	res, err := r.col.InsertOne(ctx, t)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert template: %w", err)
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return t.ID, nil
}

// GetByID fetches a template by id.
func (r *TemplateRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Template, error) {
	var t model.Template
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// ListForCompany returns the company's own templates plus global ones
// (companyId null), newest first.
func (r *TemplateRepo) ListForCompany(ctx context.Context, companyID primitive.ObjectID) ([]model.Template, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"companyId": companyID},
		bson.M{"companyId": nil},
	}}
	return r.find(ctx, filter)
}

// ListAll returns every template, newest first.
func (r *TemplateRepo) ListAll(ctx context.Context) ([]model.Template, error) {
	return r.find(ctx, bson.M{})
}

func (r *TemplateRepo) find(ctx context.Context, filter bson.M) ([]model.Template, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find templates: %w", err)
	}
	defer cur.Close(ctx)

	out := []model.Template{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	return out, nil
}
