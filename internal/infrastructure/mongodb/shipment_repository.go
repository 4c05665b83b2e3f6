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

type ShipmentRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewShipmentRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *ShipmentRepository {
	collection := db.Collection("shipments")
	repo := &ShipmentRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ShipmentRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "shipmentId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "orderId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "carrierCode", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "label.trackingNumber", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *ShipmentRepository) Save(ctx context.Context, shipment *domain.Shipment) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := r.upsert(sessCtx, shipment); err != nil {
			return nil, err
		}
		if err := r.saveShipmentEvents(sessCtx, shipment); err != nil {
			return nil, err
		}
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// SaveAll persists a batch of shipments in one transaction. Load planning
// uses this so a plan never references shipments it only half assigned.
func (r *ShipmentRepository) SaveAll(ctx context.Context, shipments []*domain.Shipment) error {
	if len(shipments) == 0 {
		return nil
	}

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		for _, shipment := range shipments {
			if err := r.upsert(sessCtx, shipment); err != nil {
				return nil, err
			}
			if err := r.saveShipmentEvents(sessCtx, shipment); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *ShipmentRepository) upsert(ctx context.Context, shipment *domain.Shipment) error {
	shipment.UpdatedAt = time.Now()
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shipmentId": shipment.ShipmentID}
	if _, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": shipment}, opts); err != nil {
		return fmt.Errorf("failed to save shipment: %w", err)
	}
	return nil
}

func (r *ShipmentRepository) saveShipmentEvents(sessCtx mongo.SessionContext, shipment *domain.Shipment) error {
	if err := saveEventsToOutbox(sessCtx, r.outboxRepo, r.eventFactory,
		shipment.ShipmentID, "Shipment", "shipment/"+shipment.ShipmentID,
		kafka.Topics.ShippingEvents, shipment.GetDomainEvents()); err != nil {
		return err
	}
	shipment.ClearDomainEvents()
	return nil
}

func (r *ShipmentRepository) FindByID(ctx context.Context, shipmentID string) (*domain.Shipment, error) {
	var shipment domain.Shipment
	err := r.collection.FindOne(ctx, bson.M{"shipmentId": shipmentID}).Decode(&shipment)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &shipment, err
}

func (r *ShipmentRepository) FindByIDs(ctx context.Context, shipmentIDs []string) ([]*domain.Shipment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"shipmentId": bson.M{"$in": shipmentIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var shipments []*domain.Shipment
	err = cursor.All(ctx, &shipments)
	return shipments, err
}

func (r *ShipmentRepository) FindByStatus(ctx context.Context, status domain.ShipmentStatus) ([]*domain.Shipment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var shipments []*domain.Shipment
	err = cursor.All(ctx, &shipments)
	return shipments, err
}

func (r *ShipmentRepository) FindLabeledByCarrier(ctx context.Context, carrierCode string) ([]*domain.Shipment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"carrierCode": carrierCode,
		"label":       bson.M{"$ne": nil},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var shipments []*domain.Shipment
	err = cursor.All(ctx, &shipments)
	return shipments, err
}
