package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/outbound-service/pkg/cloudevents"
	"github.com/wms-platform/outbound-service/pkg/kafka"
	outboxMongo "github.com/wms-platform/outbound-service/pkg/outbox/mongodb"

	"github.com/wms-platform/outbound-service/internal/domain"
)

type BackorderRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewBackorderRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *BackorderRepository {
	collection := db.Collection("backorders")
	repo := &BackorderRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *BackorderRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "backorderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "salesOrderId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *BackorderRepository) Save(ctx context.Context, backorder *domain.Backorder) error {
	backorder.UpdatedAt = time.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"backorderId": backorder.BackorderID}
		if _, err := r.collection.UpdateOne(sessCtx, filter, bson.M{"$set": backorder}, opts); err != nil {
			return nil, fmt.Errorf("failed to save backorder: %w", err)
		}

		if err := saveEventsToOutbox(sessCtx, r.outboxRepo, r.eventFactory,
			backorder.BackorderID, "Backorder", "backorder/"+backorder.BackorderID,
			kafka.Topics.AllocationEvents, backorder.GetDomainEvents()); err != nil {
			return nil, err
		}

		backorder.ClearDomainEvents()
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *BackorderRepository) FindByID(ctx context.Context, backorderID string) (*domain.Backorder, error) {
	var backorder domain.Backorder
	err := r.collection.FindOne(ctx, bson.M{"backorderId": backorderID}).Decode(&backorder)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &backorder, err
}

func (r *BackorderRepository) FindOpen(ctx context.Context, limit int) ([]*domain.Backorder, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": domain.BackorderStatusOpen}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var backorders []*domain.Backorder
	err = cursor.All(ctx, &backorders)
	return backorders, err
}

func (r *BackorderRepository) FindBySalesOrderID(ctx context.Context, salesOrderID string) ([]*domain.Backorder, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"salesOrderId": salesOrderID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var backorders []*domain.Backorder
	err = cursor.All(ctx, &backorders)
	return backorders, err
}
