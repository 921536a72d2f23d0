package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	Users          = "users"
	Students       = "students"
	GeneralUsers   = "general_users"
	Templates      = "templates"
	AdminTemplates = "admin_templates"
	Interviews     = "interviews"
	QuotaLedger    = "quota_ledger"
	RefreshTokens  = "refresh_tokens"
)

// Open connects to MongoDB and verifies the connection with a primary ping.
func Open(ctx context.Context, uri, name string) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(25).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(name), nil
}

// EnsureIndexes creates the unique indexes the repositories rely on.  It is
// idempotent and safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	plan := map[string][]mongo.IndexModel{
		Users:        {unique(bson.D{{Key: "email", Value: 1}}), {Keys: bson.D{{Key: "role", Value: 1}}}},
		Students:     {unique(bson.D{{Key: "email", Value: 1}})},
		GeneralUsers: {unique(bson.D{{Key: "email", Value: 1}})},
		Interviews: {
			unique(bson.D{{Key: "uniqueLink", Value: 1}}),
			{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		QuotaLedger:    {unique(bson.D{{Key: "interviewId", Value: 1}})},
		RefreshTokens:  {unique(bson.D{{Key: "tokenHash", Value: 1}}), {Keys: bson.D{{Key: "userId", Value: 1}}}},
		AdminTemplates: {{Keys: bson.D{{Key: "targetRole", Value: 1}, {Key: "isActive", Value: 1}}}},
	}
	for coll, models := range plan {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
