package repository

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

// InterviewFinder is the read side of InterviewRepo used by the resolver.
type InterviewFinder interface {
	FindOne(ctx context.Context, filter bson.M) (*model.Interview, error)
}

// LookupStrategy resolves one identifier form.  It returns ErrNotFound to
// let the next strategy try.
type LookupStrategy interface {
	Name() string
	Lookup(ctx context.Context, token string) (*model.Interview, error)
}

type lookupFunc struct {
	name string
	fn   func(ctx context.Context, token string) (*model.Interview, error)
}

func (l lookupFunc) Name() string { return l.name }

func (l lookupFunc) Lookup(ctx context.Context, token string) (*model.Interview, error) {
	return l.fn(ctx, token)
}

// ByUniqueLink matches the candidate-facing link token.
func ByUniqueLink(f InterviewFinder) LookupStrategy {
	return lookupFunc{name: "uniqueLink", fn: func(ctx context.Context, token string) (*model.Interview, error) {
		return f.FindOne(ctx, bson.M{"uniqueLink": token})
	}}
}

// ByObjectID matches the document id.  Strings that are not ObjectID hex are
// simply not found.
func ByObjectID(f InterviewFinder) LookupStrategy {
	return lookupFunc{name: "objectId", fn: func(ctx context.Context, token string) (*model.Interview, error) {
		id, err := primitive.ObjectIDFromHex(token)
		if err != nil {
			return nil, ErrNotFound
		}
		return f.FindOne(ctx, bson.M{"_id": id})
	}}
}

// Resolver turns an opaque identifier (unique link or ObjectID hex) into an
// interview by trying its strategies in order.
type Resolver struct {
	strategies []LookupStrategy
}

func NewResolver(strategies ...LookupStrategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// NewInterviewResolver tries the unique link first, then the ObjectID.
func NewInterviewResolver(f InterviewFinder) *Resolver {
	return NewResolver(ByUniqueLink(f), ByObjectID(f))
}

// Resolve returns the interview identified by token or ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, token string) (*model.Interview, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}
	for _, s := range r.strategies {
		iv, err := s.Lookup(ctx, token)
		if err == nil {
			return iv, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// FilterFor resolves token and returns the primary-key filter of the record.
func (r *Resolver) FilterFor(ctx context.Context, token string) (bson.M, error) {
	iv, err := r.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": iv.ID}, nil
}
