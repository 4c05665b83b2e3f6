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

type PackOrderRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewPackOrderRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *PackOrderRepository {
	collection := db.Collection("pack_orders")
	repo := &PackOrderRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *PackOrderRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "packOrderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "salesOrderId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *PackOrderRepository) Save(ctx context.Context, order *domain.PackOrder) error {
	order.UpdatedAt = time.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"packOrderId": order.PackOrderID}
		if _, err := r.collection.UpdateOne(sessCtx, filter, bson.M{"$set": order}, opts); err != nil {
			return nil, fmt.Errorf("failed to save pack order: %w", err)
		}

		if err := saveEventsToOutbox(sessCtx, r.outboxRepo, r.eventFactory,
			order.PackOrderID, "PackOrder", "pack-order/"+order.PackOrderID,
			kafka.Topics.PackingEvents, order.GetDomainEvents()); err != nil {
			return nil, err
		}

		order.ClearDomainEvents()
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *PackOrderRepository) FindByID(ctx context.Context, packOrderID string) (*domain.PackOrder, error) {
	var order domain.PackOrder
	err := r.collection.FindOne(ctx, bson.M{"packOrderId": packOrderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &order, err
}

func (r *PackOrderRepository) FindBySalesOrderID(ctx context.Context, salesOrderID string) (*domain.PackOrder, error) {
	var order domain.PackOrder
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"salesOrderId": salesOrderID}, opts).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &order, err
}

func (r *PackOrderRepository) FindByStatus(ctx context.Context, status domain.PackOrderStatus) ([]*domain.PackOrder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var orders []*domain.PackOrder
	err = cursor.All(ctx, &orders)
	return orders, err
}
