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

type QualityCheckRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewQualityCheckRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *QualityCheckRepository {
	collection := db.Collection("quality_checks")
	repo := &QualityCheckRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *QualityCheckRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "checkId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "entityType", Value: 1}, {Key: "entityId", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *QualityCheckRepository) Save(ctx context.Context, check *domain.QualityCheck) error {
	check.UpdatedAt = time.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"checkId": check.CheckID}
		if _, err := r.collection.UpdateOne(sessCtx, filter, bson.M{"$set": check}, opts); err != nil {
			return nil, fmt.Errorf("failed to save quality check: %w", err)
		}

		if err := saveEventsToOutbox(sessCtx, r.outboxRepo, r.eventFactory,
			check.CheckID, "QualityCheck", "quality-check/"+check.CheckID,
			kafka.Topics.QualityEvents, check.GetDomainEvents()); err != nil {
			return nil, err
		}

		check.ClearDomainEvents()
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *QualityCheckRepository) FindByID(ctx context.Context, checkID string) (*domain.QualityCheck, error) {
	var check domain.QualityCheck
	err := r.collection.FindOne(ctx, bson.M{"checkId": checkID}).Decode(&check)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &check, err
}

func (r *QualityCheckRepository) FindByEntity(ctx context.Context, entityType domain.QCEntityType, entityID string) ([]*domain.QualityCheck, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"entityType": entityType, "entityId": entityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var checks []*domain.QualityCheck
	err = cursor.All(ctx, &checks)
	return checks, err
}

type QualityExceptionRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewQualityExceptionRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *QualityExceptionRepository {
	collection := db.Collection("quality_exceptions")
	repo := &QualityExceptionRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *QualityExceptionRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "exceptionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "entityType", Value: 1}, {Key: "entityId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *QualityExceptionRepository) Save(ctx context.Context, exception *domain.QualityException) error {
	exception.UpdatedAt = time.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"exceptionId": exception.ExceptionID}
		if _, err := r.collection.UpdateOne(sessCtx, filter, bson.M{"$set": exception}, opts); err != nil {
			return nil, fmt.Errorf("failed to save quality exception: %w", err)
		}

		if err := saveEventsToOutbox(sessCtx, r.outboxRepo, r.eventFactory,
			exception.ExceptionID, "QualityException", "quality-exception/"+exception.ExceptionID,
			kafka.Topics.QualityEvents, exception.GetDomainEvents()); err != nil {
			return nil, err
		}

		exception.ClearDomainEvents()
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *QualityExceptionRepository) FindByID(ctx context.Context, exceptionID string) (*domain.QualityException, error) {
	var exception domain.QualityException
	err := r.collection.FindOne(ctx, bson.M{"exceptionId": exceptionID}).Decode(&exception)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &exception, err
}

func (r *QualityExceptionRepository) FindByEntity(ctx context.Context, entityType domain.QCEntityType, entityID string) ([]*domain.QualityException, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"entityType": entityType, "entityId": entityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var exceptions []*domain.QualityException
	err = cursor.All(ctx, &exceptions)
	return exceptions, err
}

func (r *QualityExceptionRepository) CountOpenByEntity(ctx context.Context, entityType domain.QCEntityType, entityID string) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"entityType": entityType,
		"entityId":   entityID,
		"status":     bson.M{"$ne": domain.ExceptionStatusResolved},
	})
	return int(count), err
}

func (r *QualityExceptionRepository) FindByStatus(ctx context.Context, status domain.ExceptionStatus, limit int) ([]*domain.QualityException, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var exceptions []*domain.QualityException
	err = cursor.All(ctx, &exceptions)
	return exceptions, err
}
