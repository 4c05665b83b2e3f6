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

type DockRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewDockRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *DockRepository {
	collection := db.Collection("docks")
	repo := &DockRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *DockRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "dockId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *DockRepository) Save(ctx context.Context, dock *domain.LoadingDock) error {
	dock.UpdatedAt = time.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"dockId": dock.DockID}
		if _, err := r.collection.UpdateOne(sessCtx, filter, bson.M{"$set": dock}, opts); err != nil {
			return nil, fmt.Errorf("failed to save dock: %w", err)
		}

		if err := saveEventsToOutbox(sessCtx, r.outboxRepo, r.eventFactory,
			dock.DockID, "LoadingDock", "dock/"+dock.DockID,
			kafka.Topics.DockEvents, dock.GetDomainEvents()); err != nil {
			return nil, err
		}

		dock.ClearDomainEvents()
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *DockRepository) FindByID(ctx context.Context, dockID string) (*domain.LoadingDock, error) {
	var dock domain.LoadingDock
	err := r.collection.FindOne(ctx, bson.M{"dockId": dockID}).Decode(&dock)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &dock, err
}

func (r *DockRepository) FindByWarehouse(ctx context.Context, warehouseID string) ([]*domain.LoadingDock, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"warehouseId": warehouseID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var docks []*domain.LoadingDock
	err = cursor.All(ctx, &docks)
	return docks, err
}

func (r *DockRepository) FindAll(ctx context.Context) ([]*domain.LoadingDock, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var docks []*domain.LoadingDock
	err = cursor.All(ctx, &docks)
	return docks, err
}
