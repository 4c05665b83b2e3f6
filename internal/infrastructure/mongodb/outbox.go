package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/outbound-service/pkg/cloudevents"
	"github.com/wms-platform/outbound-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/outbound-service/pkg/outbox/mongodb"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// saveEventsToOutbox converts an aggregate's domain events to CloudEvents and
// writes them to the outbox inside the caller's transaction. The caller clears
// the aggregate's events after the transaction commits.
func saveEventsToOutbox(
	sessCtx mongo.SessionContext,
	outboxRepo *outboxMongo.OutboxRepository,
	eventFactory *cloudevents.EventFactory,
	aggregateID, aggregateType, subject, topic string,
	events []domain.DomainEvent,
) error {
	if len(events) == 0 {
		return nil
	}

	outboxEvents := make([]*outbox.OutboxEvent, 0, len(events))
	for _, event := range events {
		cloudEvent := eventFactory.CreateEvent(sessCtx, event.EventType(), subject, event)

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(aggregateID, aggregateType, topic, cloudEvent)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	if err := outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}
