package idempotency

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
)

// InitializeIndexes creates all required indexes for idempotency functionality.
// This should be called during service startup before processing any requests.
func InitializeIndexes(ctx context.Context, db *mongo.Database) error {
	keyRepo := NewMongoKeyRepository(db)
	if err := keyRepo.EnsureIndexes(ctx); err != nil {
		slog.Error("Failed to create idempotency_keys indexes", "error", err)
		return err
	}

	slog.Info("Idempotency indexes initialized")
	return nil
}
