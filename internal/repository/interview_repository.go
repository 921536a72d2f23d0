package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rakeshreddymandala/humaneq-hr/internal/database"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

// InterviewRepo persists interviews and practice sessions.  Every update is
// a $set of a model.Patch against a single document.
type InterviewRepo struct{ col *mongo.Collection }

func NewInterviewRepo(db *mongo.Database) *InterviewRepo {
	return &InterviewRepo{col: db.Collection(database.Interviews)}
}

// ListFilter narrows List.  Zero values mean "any".
type ListFilter struct {
	OwnerID  *primitive.ObjectID
	Practice *bool
	Status   model.Status
	Limit    int64
}

// Insert stores a new interview.  Status defaults to pending.
func (r *InterviewRepo) Insert(ctx context.Context, iv *model.Interview) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = now
	}
	iv.UpdatedAt = now
	if iv.Status == "" {
		iv.Status = model.StatusPending
	}
	if iv.Responses == nil {
		iv.Responses = []model.CandidateResponse{}
	}
	res, err := r.col.InsertOne(ctx, iv)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert interview: %w", err)
	}
	iv.ID = res.InsertedID.(primitive.ObjectID)
	return iv.ID, nil
}

// FindOne returns the first interview matching filter.
func (r *InterviewRepo) FindOne(ctx context.Context, filter bson.M) (*model.Interview, error) {
	var iv model.Interview
	if err := r.col.FindOne(ctx, filter).Decode(&iv); err != nil {
		return nil, notFound(err)
	}
	return &iv, nil
}

// ApplyPatch $sets p on the single interview matched by filter and reports
// whether a document matched.
func (r *InterviewRepo) ApplyPatch(ctx context.Context, filter bson.M, p *model.Patch) (bool, error) {
	if p.Len() == 0 {
		return false, nil
	}
	res, err := r.col.UpdateOne(ctx, filter, p.Update())
	if err != nil {
		return false, fmt.Errorf("update interview: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// TransitionStatus applies p only while the interview is still in status
// from and returns the updated document.  ErrConflict means the status moved
// underneath the caller (or the interview vanished).
func (r *InterviewRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, from model.Status, p *model.Patch) (*model.Interview, error) {
	var iv model.Interview
	err := r.col.FindOneAndUpdate(ctx, statusFilter(id, from), p.Update(),
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&iv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("transition interview: %w", err)
	}
	return &iv, nil
}

// statusFilter pins _id and the current status.  Records written before the
// status field existed count as pending.
func statusFilter(id primitive.ObjectID, from model.Status) bson.M {
	if from == "" || from == model.StatusPending {
		return bson.M{"_id": id, "$or": bson.A{
			bson.M{"status": model.StatusPending},
			bson.M{"status": ""},
			bson.M{"status": bson.M{"$exists": false}},
		}}
	}
	return bson.M{"_id": id, "status": from}
}

// List returns interviews matching f, newest first.
func (r *InterviewRepo) List(ctx context.Context, f ListFilter) ([]model.Interview, error) {
	filter := listFilter(f)
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find interviews: %w", err)
	}
	defer cur.Close(ctx)

	out := []model.Interview{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode interviews: %w", err)
	}
	return out, nil
}

func listFilter(f ListFilter) bson.M {
	filter := bson.M{}
	if f.OwnerID != nil {
		filter["companyId"] = *f.OwnerID
	}
	if f.Practice != nil {
		if *f.Practice {
			filter["$or"] = bson.A{
				bson.M{"metadata.sessionType": model.SessionPractice},
				bson.M{"isStudentPractice": true},
			}
		} else {
			filter["metadata.sessionType"] = bson.M{"$ne": model.SessionPractice}
			filter["isStudentPractice"] = bson.M{"$ne": true}
		}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

// ListStale returns ids of interviews still in status created before cutoff.
func (r *InterviewRepo) ListStale(ctx context.Context, status model.Status, cutoff time.Time) ([]primitive.ObjectID, error) {
	cur, err := r.col.Find(ctx,
		bson.M{"status": status, "createdAt": bson.M{"$lt": cutoff}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find stale interviews: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode stale interviews: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// CountByStatus returns the number of interviews in any of statuses (all
// interviews when none are given).
func (r *InterviewRepo) CountByStatus(ctx context.Context, statuses ...model.Status) (int64, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return r.col.CountDocuments(ctx, filter)
}
