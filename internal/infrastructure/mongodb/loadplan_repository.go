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

type LoadPlanRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewLoadPlanRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *LoadPlanRepository {
	collection := db.Collection("load_plans")
	repo := &LoadPlanRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *LoadPlanRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "loadPlanId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "loadPlanNumber", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *LoadPlanRepository) Save(ctx context.Context, plan *domain.LoadPlan) error {
	plan.UpdatedAt = time.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"loadPlanId": plan.LoadPlanID}
		if _, err := r.collection.UpdateOne(sessCtx, filter, bson.M{"$set": plan}, opts); err != nil {
			return nil, fmt.Errorf("failed to save load plan: %w", err)
		}

		if err := saveEventsToOutbox(sessCtx, r.outboxRepo, r.eventFactory,
			plan.LoadPlanID, "LoadPlan", "load-plan/"+plan.LoadPlanID,
			kafka.Topics.LoadEvents, plan.GetDomainEvents()); err != nil {
			return nil, err
		}

		plan.ClearDomainEvents()
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *LoadPlanRepository) FindByID(ctx context.Context, loadPlanID string) (*domain.LoadPlan, error) {
	var plan domain.LoadPlan
	err := r.collection.FindOne(ctx, bson.M{"loadPlanId": loadPlanID}).Decode(&plan)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &plan, err
}

func (r *LoadPlanRepository) FindByStatus(ctx context.Context, status domain.LoadStatus) ([]*domain.LoadPlan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var plans []*domain.LoadPlan
	err = cursor.All(ctx, &plans)
	return plans, err
}
