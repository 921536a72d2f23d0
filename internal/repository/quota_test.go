package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

func TestAccountRollback(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	iv := &model.Interview{ID: primitive.NewObjectID(), CompanyID: primitive.NewObjectID()}
	incFailed := mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad $inc"})

	mt.Run("ledger row removed", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			incFailed,
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)
		_, err := NewAccountant(mt.DB).Account(context.Background(), iv)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "increment interviewsUsed")
		assert.NotContains(t, err.Error(), "remove quota entry")
	})

	mt.Run("failed removal is reported", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			incFailed,
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not allowed"}),
		)
		_, err := NewAccountant(mt.DB).Account(context.Background(), iv)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "increment interviewsUsed")
		assert.Contains(t, err.Error(), "remove quota entry")
		assert.Contains(t, err.Error(), "not allowed")
	})
}
