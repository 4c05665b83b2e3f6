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
	"github.com/wms-platform/outbound-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/outbound-service/pkg/outbox/mongodb"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// InventoryRepository persists the inventory ledger. Quantity mutations during
// allocation go through conditional updates so concurrent allocations against
// the same slice cannot oversell it.
type InventoryRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewInventoryRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *InventoryRepository {
	collection := db.Collection("inventory")
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	repo := &InventoryRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	_ = outboxRepo.EnsureIndexes(context.Background())

	return repo
}

func (r *InventoryRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "sku", Value: 1},
				{Key: "locationId", Value: 1},
				{Key: "lotNumber", Value: 1},
				{Key: "serialNumber", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "sku", Value: 1}, {Key: "availableQuantity", Value: 1}}},
		{Keys: bson.D{{Key: "expiryDate", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// sliceFilter matches one inventory slice. Empty lot and serial fields are
// omitted from documents, so an empty value must match the absent field too.
func sliceFilter(sku, locationID, lotNumber, serialNumber string) bson.M {
	filter := bson.M{"sku": sku, "locationId": locationID}
	if lotNumber != "" {
		filter["lotNumber"] = lotNumber
	} else {
		filter["lotNumber"] = bson.M{"$in": bson.A{nil, ""}}
	}
	if serialNumber != "" {
		filter["serialNumber"] = serialNumber
	} else {
		filter["serialNumber"] = bson.M{"$in": bson.A{nil, ""}}
	}
	return filter
}

func (r *InventoryRepository) Save(ctx context.Context, record *domain.InventoryRecord) error {
	record.UpdatedAt = time.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.Update().SetUpsert(true)
		filter := sliceFilter(record.SKU, record.LocationID, record.LotNumber, record.SerialNumber)
		update := bson.M{"$set": record}

		if _, err := r.collection.UpdateOne(sessCtx, filter, update, opts); err != nil {
			return nil, fmt.Errorf("failed to save inventory record: %w", err)
		}

		if err := saveEventsToOutbox(sessCtx, r.outboxRepo, r.eventFactory,
			record.SKU, "InventoryRecord", "inventory/"+record.SKU,
			kafka.Topics.InventoryEvents, record.GetDomainEvents()); err != nil {
			return nil, err
		}

		record.ClearDomainEvents()
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *InventoryRepository) FindBySlice(ctx context.Context, sku, locationID, lotNumber, serialNumber string) (*domain.InventoryRecord, error) {
	var record domain.InventoryRecord
	err := r.collection.FindOne(ctx, sliceFilter(sku, locationID, lotNumber, serialNumber)).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &record, err
}

func (r *InventoryRepository) FindAvailableBySKU(ctx context.Context, sku string) ([]*domain.InventoryRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"sku":               sku,
		"availableQuantity": bson.M{"$gt": 0},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var records []*domain.InventoryRecord
	err = cursor.All(ctx, &records)
	return records, err
}

func (r *InventoryRepository) FindBySKU(ctx context.Context, sku string) ([]*domain.InventoryRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sku": sku})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var records []*domain.InventoryRecord
	err = cursor.All(ctx, &records)
	return records, err
}

// DecrementAvailable moves quantity from available to allocated. The filter
// requires at least quantity available, so a concurrent allocation that
// drained the slice makes the update match nothing instead of going negative.
func (r *InventoryRepository) DecrementAvailable(ctx context.Context, sku, locationID, lotNumber, serialNumber string, quantity int) error {
	filter := sliceFilter(sku, locationID, lotNumber, serialNumber)
	filter["availableQuantity"] = bson.M{"$gte": quantity}

	update := bson.M{
		"$inc": bson.M{
			"availableQuantity": -quantity,
			"allocatedQuantity": quantity,
		},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	result := r.collection.FindOneAndUpdate(ctx, filter, update)
	if result.Err() == mongo.ErrNoDocuments {
		return domain.ErrInsufficientInventory
	}
	return result.Err()
}

// Release moves quantity from allocated back to available.
func (r *InventoryRepository) Release(ctx context.Context, sku, locationID, lotNumber, serialNumber string, quantity int) error {
	filter := sliceFilter(sku, locationID, lotNumber, serialNumber)
	filter["allocatedQuantity"] = bson.M{"$gte": quantity}

	update := bson.M{
		"$inc": bson.M{
			"availableQuantity": quantity,
			"allocatedQuantity": -quantity,
		},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	result := r.collection.FindOneAndUpdate(ctx, filter, update)
	if result.Err() == mongo.ErrNoDocuments {
		return fmt.Errorf("no inventory slice with %d allocated for sku %s", quantity, sku)
	}
	return result.Err()
}

// GetOutboxRepository returns the outbox repository for this service
func (r *InventoryRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}
