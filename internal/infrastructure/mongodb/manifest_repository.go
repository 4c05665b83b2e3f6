package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// ManifestRepository persists end-of-day manifests. Manifests are immutable
// once written, so there is no upsert path and no outbox involvement.
type ManifestRepository struct {
	collection *mongo.Collection
}

func NewManifestRepository(db *mongo.Database) *ManifestRepository {
	repo := &ManifestRepository{collection: db.Collection("manifests")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ManifestRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "manifestId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "carrierCode", Value: 1}, {Key: "generatedAt", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *ManifestRepository) Save(ctx context.Context, manifest *domain.Manifest) error {
	_, err := r.collection.InsertOne(ctx, manifest)
	return err
}

func (r *ManifestRepository) FindByID(ctx context.Context, manifestID string) (*domain.Manifest, error) {
	var manifest domain.Manifest
	err := r.collection.FindOne(ctx, bson.M{"manifestId": manifestID}).Decode(&manifest)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &manifest, err
}
