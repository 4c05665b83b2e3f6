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

type DockScheduleRepository struct {
	collection     *mongo.Collection
	dockCollection *mongo.Collection
	db             *mongo.Database
	outboxRepo     *outboxMongo.OutboxRepository
	eventFactory   *cloudevents.EventFactory
}

func NewDockScheduleRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *DockScheduleRepository {
	repo := &DockScheduleRepository{
		collection:     db.Collection("dock_schedules"),
		dockCollection: db.Collection("docks"),
		db:             db,
		outboxRepo:     outboxMongo.NewOutboxRepository(db),
		eventFactory:   eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *DockScheduleRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "scheduleId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "dockId", Value: 1}, {Key: "scheduledDate", Value: 1}}},
		{Keys: bson.D{{Key: "scheduledDate", Value: 1}}},
		{Keys: bson.D{{Key: "loadPlanId", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *DockScheduleRepository) Save(ctx context.Context, schedule *domain.DockSchedule) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := r.upsertSchedule(sessCtx, schedule); err != nil {
			return nil, err
		}
		if err := r.saveScheduleEvents(sessCtx, schedule); err != nil {
			return nil, err
		}
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// SaveWithDock writes the schedule and the dock status change it caused in
// one transaction, so an occupied dock never points at an unsaved schedule.
func (r *DockScheduleRepository) SaveWithDock(ctx context.Context, schedule *domain.DockSchedule, dock *domain.LoadingDock) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := r.upsertSchedule(sessCtx, schedule); err != nil {
			return nil, err
		}

		dock.UpdatedAt = time.Now()
		opts := options.Update().SetUpsert(true)
		if _, err := r.dockCollection.UpdateOne(sessCtx, bson.M{"dockId": dock.DockID}, bson.M{"$set": dock}, opts); err != nil {
			return nil, fmt.Errorf("failed to save dock: %w", err)
		}

		if err := r.saveScheduleEvents(sessCtx, schedule); err != nil {
			return nil, err
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

func (r *DockScheduleRepository) upsertSchedule(ctx context.Context, schedule *domain.DockSchedule) error {
	schedule.UpdatedAt = time.Now()
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"scheduleId": schedule.ScheduleID}
	if _, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": schedule}, opts); err != nil {
		return fmt.Errorf("failed to save dock schedule: %w", err)
	}
	return nil
}

func (r *DockScheduleRepository) saveScheduleEvents(sessCtx mongo.SessionContext, schedule *domain.DockSchedule) error {
	if err := saveEventsToOutbox(sessCtx, r.outboxRepo, r.eventFactory,
		schedule.ScheduleID, "DockSchedule", "dock-schedule/"+schedule.ScheduleID,
		kafka.Topics.DockEvents, schedule.GetDomainEvents()); err != nil {
		return err
	}
	schedule.ClearDomainEvents()
	return nil
}

func (r *DockScheduleRepository) FindByID(ctx context.Context, scheduleID string) (*domain.DockSchedule, error) {
	var schedule domain.DockSchedule
	err := r.collection.FindOne(ctx, bson.M{"scheduleId": scheduleID}).Decode(&schedule)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &schedule, err
}

func (r *DockScheduleRepository) FindByDockAndDate(ctx context.Context, dockID, date string) ([]*domain.DockSchedule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduledStart", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"dockId": dockID, "scheduledDate": date}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var schedules []*domain.DockSchedule
	err = cursor.All(ctx, &schedules)
	return schedules, err
}

func (r *DockScheduleRepository) FindByDateRange(ctx context.Context, from, to string) ([]*domain.DockSchedule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduledStart", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{
		"scheduledDate": bson.M{"$gte": from, "$lte": to},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var schedules []*domain.DockSchedule
	err = cursor.All(ctx, &schedules)
	return schedules, err
}

func (r *DockScheduleRepository) FindByLoadPlanID(ctx context.Context, loadPlanID string) (*domain.DockSchedule, error) {
	var schedule domain.DockSchedule
	err := r.collection.FindOne(ctx, bson.M{"loadPlanId": loadPlanID}).Decode(&schedule)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &schedule, err
}
