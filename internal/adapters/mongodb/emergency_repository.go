package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// emergencyRepository implements the EmergencyRepository interface using MongoDB
type emergencyRepository struct {
	collection *mongo.Collection
}

// NewEmergencyRepository creates a new MongoDB emergency repository
func NewEmergencyRepository(db *mongo.Database) ports.EmergencyRepository {
	return &emergencyRepository{
		collection: db.Collection("emergencies"),
	}
}

func (r *emergencyRepository) Create(ctx context.Context, emergency *models.Emergency) error {
	emergency.Version = 1

	if _, err := r.collection.InsertOne(ctx, emergency); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ports.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create emergency: %w", err)
	}
	return nil
}

func (r *emergencyRepository) GetByEmergencyID(ctx context.Context, emergencyID string) (*models.Emergency, error) {
	var emergency models.Emergency

	err := r.collection.FindOne(ctx, bson.M{"emergency_id": emergencyID}).Decode(&emergency)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrEmergencyNotFound
		}
		return nil, fmt.Errorf("failed to get emergency: %w", err)
	}
	return &emergency, nil
}

func (r *emergencyRepository) List(ctx context.Context, filter ports.EmergencyFilter, offset, limit int) ([]*models.Emergency, error) {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.Department != nil {
		query["department"] = *filter.Department
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "emergency_id", Value: 1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list emergencies: %w", err)
	}
	defer cursor.Close(ctx)

	var emergencies []*models.Emergency
	if err = cursor.All(ctx, &emergencies); err != nil {
		return nil, fmt.Errorf("failed to decode emergencies: %w", err)
	}
	return emergencies, nil
}

// Update stores the record guarded by the optimistic version filter, so a
// concurrent writer surfaces as ErrVersionConflict instead of a lost update.
func (r *emergencyRepository) Update(ctx context.Context, emergency *models.Emergency) error {
	update := bson.M{
		"$set": bson.M{
			"status":         emergency.Status,
			"department":     emergency.Department,
			"assigned_units": emergency.AssignedUnits,
			"response_time":  emergency.ResponseTime,
			"version":        emergency.Version + 1,
			"updated_at":     emergency.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"emergency_id": emergency.EmergencyID, "version": emergency.Version}, update)
	if err != nil {
		return fmt.Errorf("failed to update emergency: %w", err)
	}
	if result.MatchedCount == 0 {
		count, cerr := r.collection.CountDocuments(ctx, bson.M{"emergency_id": emergency.EmergencyID})
		if cerr == nil && count == 0 {
			return ports.ErrEmergencyNotFound
		}
		return ports.ErrVersionConflict
	}

	emergency.Version++
	return nil
}

func (r *emergencyRepository) Remove(ctx context.Context, emergencyID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"emergency_id": emergencyID})
	if err != nil {
		return fmt.Errorf("failed to remove emergency: %w", err)
	}
	if result.DeletedCount == 0 {
		return ports.ErrEmergencyNotFound
	}
	return nil
}
