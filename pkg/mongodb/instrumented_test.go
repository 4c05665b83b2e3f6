package mongodb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.opentelemetry.io/otel"
)

func newTestCollection(mt *mtest.T, name string) *InstrumentedCollection {
	coll := mt.DB.Collection(name)
	return &InstrumentedCollection{
		collection: coll,
		name:       name,
		database:   coll.Database().Name(),
		tracer:     otel.Tracer("mongodb"),
	}
}

func TestInstrumentedCollection_Operations(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert and update pass through", func(mt *mtest.T) {
		coll := newTestCollection(mt, "allocations")
		ctx := context.Background()

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		_, err := coll.InsertOne(ctx, bson.M{"_id": "ALC-1", "sku": "SKU-1"})
		require.NoError(t, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		result, err := coll.UpdateOne(ctx, bson.M{"_id": "ALC-1"}, bson.M{"$set": bson.M{"status": "released"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.ModifiedCount)
	})

	mt.Run("missing document is not an operation failure", func(mt *mtest.T) {
		coll := newTestCollection(mt, "allocations")
		ns := mt.DB.Name() + ".allocations"

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		result := coll.FindOne(context.Background(), bson.M{"_id": "ALC-missing"})
		assert.True(t, errors.Is(result.Err(), mongo.ErrNoDocuments))
	})

	mt.Run("count reports matched documents", func(mt *mtest.T) {
		coll := newTestCollection(mt, "dock_schedules")
		ns := mt.DB.Name() + ".dock_schedules"

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "n", Value: int32(3)},
		}))
		count, err := coll.CountDocuments(context.Background(), bson.M{"dockId": "DCK-1"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	mt.Run("find one and update returns the new document", func(mt *mtest.T) {
		coll := newTestCollection(mt, "inventory")

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "sku", Value: "SKU-1"},
			{Key: "availableQuantity", Value: 6},
		}}))
		result := coll.FindOneAndUpdate(context.Background(),
			bson.M{"sku": "SKU-1", "availableQuantity": bson.M{"$gte": 4}},
			bson.M{"$inc": bson.M{"availableQuantity": -4, "allocatedQuantity": 4}},
		)
		require.NoError(t, result.Err())

		var doc bson.M
		require.NoError(t, result.Decode(&doc))
		assert.Equal(t, "SKU-1", doc["sku"])
	})
}
