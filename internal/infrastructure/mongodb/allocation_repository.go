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

type AllocationRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewAllocationRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *AllocationRepository {
	collection := db.Collection("allocations")
	repo := &AllocationRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *AllocationRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "allocationId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "salesOrderId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *AllocationRepository) Save(ctx context.Context, allocation *domain.OrderAllocation) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := r.upsert(sessCtx, allocation); err != nil {
			return nil, err
		}

		if err := saveEventsToOutbox(sessCtx, r.outboxRepo, r.eventFactory,
			allocation.AllocationID, "OrderAllocation", "allocation/"+allocation.AllocationID,
			kafka.Topics.AllocationEvents, allocation.GetDomainEvents()); err != nil {
			return nil, err
		}

		allocation.ClearDomainEvents()
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// SaveAll persists a batch of allocations and their events in one transaction
func (r *AllocationRepository) SaveAll(ctx context.Context, allocations []*domain.OrderAllocation) error {
	if len(allocations) == 0 {
		return nil
	}

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		for _, allocation := range allocations {
			if err := r.upsert(sessCtx, allocation); err != nil {
				return nil, err
			}
			if err := saveEventsToOutbox(sessCtx, r.outboxRepo, r.eventFactory,
				allocation.AllocationID, "OrderAllocation", "allocation/"+allocation.AllocationID,
				kafka.Topics.AllocationEvents, allocation.GetDomainEvents()); err != nil {
				return nil, err
			}
			allocation.ClearDomainEvents()
		}
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *AllocationRepository) upsert(ctx context.Context, allocation *domain.OrderAllocation) error {
	allocation.UpdatedAt = time.Now()
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"allocationId": allocation.AllocationID}
	if _, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": allocation}, opts); err != nil {
		return fmt.Errorf("failed to save allocation: %w", err)
	}
	return nil
}

func (r *AllocationRepository) FindByID(ctx context.Context, allocationID string) (*domain.OrderAllocation, error) {
	var allocation domain.OrderAllocation
	err := r.collection.FindOne(ctx, bson.M{"allocationId": allocationID}).Decode(&allocation)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &allocation, err
}

func (r *AllocationRepository) FindBySalesOrderID(ctx context.Context, salesOrderID string) ([]*domain.OrderAllocation, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"salesOrderId": salesOrderID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var allocations []*domain.OrderAllocation
	err = cursor.All(ctx, &allocations)
	return allocations, err
}

func (r *AllocationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*domain.OrderAllocation, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "expiresAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{
		"status":    bson.M{"$in": bson.A{domain.AllocationStatusAllocated, domain.AllocationStatusPartiallyPicked}},
		"expiresAt": bson.M{"$lte": now},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var allocations []*domain.OrderAllocation
	err = cursor.All(ctx, &allocations)
	return allocations, err
}
