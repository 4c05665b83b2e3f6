package mongodb

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/wms-platform/outbound-service/pkg/logging"
	"github.com/wms-platform/outbound-service/pkg/metrics"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedClient wraps the MongoDB client with metrics and tracing for
// the outbound collections (inventory, allocations, docks, load plans,
// pack orders, quality checks, shipments).
type InstrumentedClient struct {
	client  *Client
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewInstrumentedClient wraps an existing client
func NewInstrumentedClient(client *Client, m *metrics.Metrics, logger *logging.Logger) *InstrumentedClient {
	return &InstrumentedClient{
		client:  client,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("mongodb"),
	}
}

// Collection returns an instrumented handle on one outbound collection
func (c *InstrumentedClient) Collection(name string) *InstrumentedCollection {
	return &InstrumentedCollection{
		collection: c.client.Collection(name),
		name:       name,
		database:   c.client.config.Database,
		metrics:    c.metrics,
		logger:     c.logger,
		tracer:     c.tracer,
	}
}

// Database returns the underlying database handle
func (c *InstrumentedClient) Database() *mongo.Database {
	return c.client.Database()
}

// Client returns the underlying MongoDB client
func (c *InstrumentedClient) Client() *mongo.Client {
	return c.client.Client()
}

// Close disconnects the client
func (c *InstrumentedClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck pings the primary with tracing
func (c *InstrumentedClient) HealthCheck(ctx context.Context) error {
	return c.trace(ctx, "mongodb.ping", c.client.HealthCheck)
}

// WithTransaction runs fn inside a traced MongoDB transaction. Repositories
// use this to commit an aggregate and its outbox events atomically.
func (c *InstrumentedClient) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	return c.trace(ctx, "mongodb.transaction", func(ctx context.Context) error {
		return c.client.WithTransaction(ctx, fn)
	})
}

// RawClient returns the underlying Client for advanced operations
func (c *InstrumentedClient) RawClient() *Client {
	return c.client
}

func (c *InstrumentedClient) trace(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, name,
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.client.config.Database),
		),
	)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// PoolMonitor returns a driver pool monitor that feeds the open-connection
// gauge. Pass it through Config before connecting.
func PoolMonitor(m *metrics.Metrics) *event.PoolMonitor {
	var open int64
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			if m == nil {
				return
			}
			switch e.Type {
			case event.ConnectionCreated:
				m.SetMongoDBConnections(int(atomic.AddInt64(&open, 1)))
			case event.ConnectionClosed:
				m.SetMongoDBConnections(int(atomic.AddInt64(&open, -1)))
			}
		},
	}
}

// InstrumentedCollection wraps a collection with per-operation metrics,
// query logging and client spans. It exposes the operations the outbound
// repositories perform; anything else goes through Underlying.
type InstrumentedCollection struct {
	collection *mongo.Collection
	name       string
	database   string
	metrics    *metrics.Metrics
	logger     *logging.Logger
	tracer     trace.Tracer
}

// observe opens a span for one operation and returns the context plus a
// finish callback. ErrNoDocuments counts as a successful lookup, not a
// failure.
func (c *InstrumentedCollection) observe(ctx context.Context, operation string) (context.Context, func(rowsAffected int64, err error)) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.database),
			semconv.DBOperationKey.String(operation),
			attribute.String("db.collection", c.name),
		),
	)

	return ctx, func(rowsAffected int64, err error) {
		defer span.End()
		duration := time.Since(start)
		success := err == nil || errors.Is(err, mongo.ErrNoDocuments)

		if c.metrics != nil {
			c.metrics.RecordMongoDBOperation(c.name, operation, success, duration)
		}
		if c.logger != nil {
			c.logger.DatabaseQuery(ctx, c.name, operation, duration, success, rowsAffected)
		}

		if !success {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	}
}

// InsertOne inserts a single document
func (c *InstrumentedCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	ctx, finish := c.observe(ctx, "insertOne")
	result, err := c.collection.InsertOne(ctx, document, opts...)

	var rows int64
	if err == nil {
		rows = 1
	}
	finish(rows, err)
	return result, err
}

// InsertMany inserts a batch of documents
func (c *InstrumentedCollection) InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	ctx, finish := c.observe(ctx, "insertMany")
	result, err := c.collection.InsertMany(ctx, documents, opts...)

	var rows int64
	if err == nil && result != nil {
		rows = int64(len(result.InsertedIDs))
	}
	finish(rows, err)
	return result, err
}

// FindOne looks up a single document
func (c *InstrumentedCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	ctx, finish := c.observe(ctx, "findOne")
	result := c.collection.FindOne(ctx, filter, opts...)

	var rows int64
	if result.Err() == nil {
		rows = 1
	}
	finish(rows, result.Err())
	return result
}

// Find opens a cursor over matching documents. The row count is unknown
// until the cursor is drained, so it is reported as zero.
func (c *InstrumentedCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	ctx, finish := c.observe(ctx, "find")
	cursor, err := c.collection.Find(ctx, filter, opts...)
	finish(0, err)
	return cursor, err
}

// UpdateOne updates a single document
func (c *InstrumentedCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	ctx, finish := c.observe(ctx, "updateOne")
	result, err := c.collection.UpdateOne(ctx, filter, update, opts...)

	var rows int64
	if err == nil && result != nil {
		rows = result.ModifiedCount
	}
	finish(rows, err)
	return result, err
}

// FindOneAndUpdate atomically updates and returns a document. Conditional
// ledger decrements and idempotency locks depend on this being a single
// round trip.
func (c *InstrumentedCollection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	ctx, finish := c.observe(ctx, "findOneAndUpdate")
	result := c.collection.FindOneAndUpdate(ctx, filter, update, opts...)

	var rows int64
	if result.Err() == nil {
		rows = 1
	}
	finish(rows, result.Err())
	return result
}

// DeleteMany deletes all matching documents
func (c *InstrumentedCollection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	ctx, finish := c.observe(ctx, "deleteMany")
	result, err := c.collection.DeleteMany(ctx, filter, opts...)

	var rows int64
	if err == nil && result != nil {
		rows = result.DeletedCount
	}
	finish(rows, err)
	return result, err
}

// CountDocuments counts matching documents
func (c *InstrumentedCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	ctx, finish := c.observe(ctx, "countDocuments")
	count, err := c.collection.CountDocuments(ctx, filter, opts...)
	finish(count, err)
	return count, err
}

// CreateIndex creates a single index
func (c *InstrumentedCollection) CreateIndex(ctx context.Context, model mongo.IndexModel, opts ...*options.CreateIndexesOptions) (string, error) {
	ctx, finish := c.observe(ctx, "createIndex")
	name, err := c.collection.Indexes().CreateOne(ctx, model, opts...)
	finish(0, err)
	return name, err
}

// Underlying returns the wrapped mongo.Collection
func (c *InstrumentedCollection) Underlying() *mongo.Collection {
	return c.collection
}

// Name returns the collection name
func (c *InstrumentedCollection) Name() string {
	return c.name
}
