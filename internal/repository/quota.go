package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rakeshreddymandala/humaneq-hr/internal/database"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

// Charge describes the counter update owed by one completed interview.
type Charge struct {
	Collection  string
	OwnerID     primitive.ObjectID
	Field       string
	SessionType string
	Inc         bson.M
}

// slot names the collection and counters an owner role is limited by.
type slot struct {
	collection string
	used       string
	quota      string
}

func slotFor(role string) slot {
	switch role {
	case model.RoleStudent:
		return slot{database.Students, "practiceUsed", "practiceQuota"}
	case model.RoleGeneral:
		return slot{database.GeneralUsers, "interviewsUsed", "interviewQuota"}
	}
	return slot{database.Users, "interviewsUsed", "interviewQuota"}
}

// ChargeFor works out which collection and counters a completion touches.
// Practice sessions bump the student's practiceUsed; company interviews
// consume one unit of quota and bump interviewsUsed in a single update;
// general users only track usage.  A reserved unit is given back in the
// same update.
func ChargeFor(iv *model.Interview) Charge {
	c := Charge{OwnerID: iv.CompanyID, SessionType: model.SessionInterview}
	if iv.Metadata != nil && iv.Metadata.SessionType != "" {
		c.SessionType = iv.Metadata.SessionType
	}
	role := iv.OwnerRole()
	s := slotFor(role)
	c.Collection = s.collection
	c.Field = s.used
	switch role {
	case model.RoleStudent:
		c.SessionType = model.SessionPractice
		c.Inc = bson.M{"practiceUsed": 1}
	case model.RoleGeneral:
		c.Inc = bson.M{"interviewsUsed": 1}
	default:
		c.Inc = bson.M{"interviewQuota": -1, "interviewsUsed": 1}
	}
	if iv.QuotaReserved {
		c.Inc["reservedSessions"] = -1
	}
	return c
}

// reserveFilter matches the owner only while used plus held reservations
// is still below the quota.  Missing counters count as zero.
func reserveFilter(owner primitive.ObjectID, s slot) bson.M {
	orZero := func(field string) bson.M { return bson.M{"$ifNull": bson.A{"$" + field, 0}} }
	return bson.M{
		"_id": owner,
		"$expr": bson.M{"$lt": bson.A{
			bson.M{"$add": bson.A{orZero(s.used), orZero("reservedSessions")}},
			orZero(s.quota),
		}},
	}
}

// Accountant holds quota for open interviews and charges completed ones to
// their owner at most once, guarded by the quota_ledger unique index on
// interviewId.
type Accountant struct {
	db     *mongo.Database
	ledger *mongo.Collection
	now    func() time.Time
}

func NewAccountant(db *mongo.Database) *Accountant {
	return &Accountant{
		db:     db,
		ledger: db.Collection(database.QuotaLedger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Reserve holds one unit of the owner's quota for a new interview in a
// single conditional update.  ErrQuotaExhausted means nothing was left to
// hold (or the owner does not exist).
func (a *Accountant) Reserve(ctx context.Context, role string, owner primitive.ObjectID) error {
	s := slotFor(role)
	res, err := a.db.Collection(s.collection).UpdateOne(ctx, reserveFilter(owner, s), bson.M{
		"$inc": bson.M{"reservedSessions": 1},
		"$set": bson.M{"updatedAt": a.now()},
	})
	if err != nil {
		return fmt.Errorf("reserve %s: %w", s.quota, err)
	}
	if res.MatchedCount == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

// Unreserve gives back a unit taken by Reserve for an interview that was
// never stored.
func (a *Accountant) Unreserve(ctx context.Context, role string, owner primitive.ObjectID) error {
	s := slotFor(role)
	_, err := a.db.Collection(s.collection).UpdateOne(ctx,
		bson.M{"_id": owner, "reservedSessions": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"reservedSessions": -1}, "$set": bson.M{"updatedAt": a.now()}})
	if err != nil {
		return fmt.Errorf("unreserve %s: %w", s.quota, err)
	}
	return nil
}

// Release gives back the unit held by an interview that expired or was
// abandoned.  The ledger row makes it happen at most once per interview.
func (a *Accountant) Release(ctx context.Context, iv *model.Interview) error {
	if !iv.QuotaReserved {
		return nil
	}
	c := ChargeFor(iv)
	if err := a.record(ctx, iv.ID, c, model.QuotaReleased); err != nil {
		return err
	}
	return a.Unreserve(ctx, iv.OwnerRole(), c.OwnerID)
}

// Account records the ledger entry and applies the counter update.  It
// returns ErrAlreadyAccounted when the interview was charged before.  A
// missing owner is not an error.
func (a *Accountant) Account(ctx context.Context, iv *model.Interview) (Charge, error) {
	c := ChargeFor(iv)
	if err := a.record(ctx, iv.ID, c, c.Field); err != nil {
		return c, err
	}

	_, err := a.db.Collection(c.Collection).UpdateOne(ctx,
		bson.M{"_id": c.OwnerID},
		bson.M{"$inc": c.Inc, "$set": bson.M{"updatedAt": a.now()}})
	if err != nil {
		err = fmt.Errorf("increment %s: %w", c.Field, err)
		// The ledger only lists charges that landed.
		if _, derr := a.ledger.DeleteOne(ctx, bson.M{"interviewId": iv.ID}); derr != nil {
			err = errors.Join(err, fmt.Errorf("remove quota entry: %w", derr))
		}
		return c, err
	}
	return c, nil
}

func (a *Accountant) record(ctx context.Context, interviewID primitive.ObjectID, c Charge, field string) error {
	_, err := a.ledger.InsertOne(ctx, model.QuotaEntry{
		InterviewID: interviewID,
		OwnerID:     c.OwnerID,
		Field:       field,
		SessionType: c.SessionType,
		CreatedAt:   a.now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyAccounted
	}
	if err != nil {
		return fmt.Errorf("insert quota entry: %w", err)
	}
	return nil
}
