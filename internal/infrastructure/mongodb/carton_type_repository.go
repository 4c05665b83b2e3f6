package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// CartonTypeRepository persists the carton catalog. The catalog is plain
// reference data with no domain events, so writes skip the outbox.
type CartonTypeRepository struct {
	collection *mongo.Collection
}

func NewCartonTypeRepository(db *mongo.Database) *CartonTypeRepository {
	repo := &CartonTypeRepository{collection: db.Collection("carton_types")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *CartonTypeRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "cartonTypeId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "volumeCm3", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *CartonTypeRepository) Save(ctx context.Context, carton *domain.CartonType) error {
	carton.UpdatedAt = time.Now()
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"cartonTypeId": carton.CartonTypeID}
	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": carton}, opts)
	return err
}

func (r *CartonTypeRepository) FindByID(ctx context.Context, cartonTypeID string) (*domain.CartonType, error) {
	var carton domain.CartonType
	err := r.collection.FindOne(ctx, bson.M{"cartonTypeId": cartonTypeID}).Decode(&carton)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &carton, err
}

func (r *CartonTypeRepository) FindAll(ctx context.Context) ([]domain.CartonType, error) {
	opts := options.Find().SetSort(bson.D{{Key: "volumeCm3", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var cartons []domain.CartonType
	err = cursor.All(ctx, &cartons)
	return cartons, err
}
