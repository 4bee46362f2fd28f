package mongodb

import (
	"context"
	"fmt"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// auditRepository implements the AuditRepository interface using MongoDB
type auditRepository struct {
	collection *mongo.Collection
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &auditRepository{
		collection: db.Collection("emergency_logs"),
	}
}

func (r *auditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) History(ctx context.Context, emergencyID string) ([]*models.AuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"emergency_id": emergencyID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.AuditEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}
	return entries, nil
}
