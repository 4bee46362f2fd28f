package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// unitRepository implements the UnitRepository interface using MongoDB.
// Reserve and Release are single filtered updates, so the status
// compare-and-set is atomic on the server without any client-side lock.
type unitRepository struct {
	collection *mongo.Collection
}

// NewUnitRepository creates a new MongoDB unit repository
func NewUnitRepository(db *mongo.Database) ports.UnitRepository {
	return &unitRepository{
		collection: db.Collection("response_units"),
	}
}

func (r *unitRepository) Create(ctx context.Context, unit *models.ResponseUnit) error {
	if _, err := r.collection.InsertOne(ctx, unit); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ports.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

func (r *unitRepository) GetByUnitID(ctx context.Context, unitID string) (*models.ResponseUnit, error) {
	var unit models.ResponseUnit

	err := r.collection.FindOne(ctx, bson.M{"unit_id": unitID}).Decode(&unit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return &unit, nil
}

func (r *unitRepository) List(ctx context.Context, filter ports.UnitFilter) ([]*models.ResponseUnit, error) {
	query := bson.M{}
	if filter.Department != nil {
		query["department"] = *filter.Department
	}
	if filter.UnitType != nil {
		query["unit_type"] = *filter.UnitType
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "unit_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer cursor.Close(ctx)

	var units []*models.ResponseUnit
	if err = cursor.All(ctx, &units); err != nil {
		return nil, fmt.Errorf("failed to decode units: %w", err)
	}
	return units, nil
}

func (r *unitRepository) ListAvailable(ctx context.Context, department *models.Department, unitType *models.UnitType) ([]*models.ResponseUnit, error) {
	status := models.UnitStatusAvailable
	return r.List(ctx, ports.UnitFilter{Department: department, UnitType: unitType, Status: &status})
}

func (r *unitRepository) Reserve(ctx context.Context, unitID, emergencyID string) error {
	update := bson.M{
		"$set": bson.M{
			"status":             models.UnitStatusDispatched,
			"assigned_emergency": emergencyID,
			"last_updated":       time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"unit_id": unitID, "status": models.UnitStatusAvailable}, update)
	if err != nil {
		return fmt.Errorf("failed to reserve unit: %w", err)
	}
	if result.MatchedCount == 0 {
		count, cerr := r.collection.CountDocuments(ctx, bson.M{"unit_id": unitID})
		if cerr == nil && count == 0 {
			return ports.ErrUnitNotFound
		}
		return ports.ErrUnitUnavailable
	}
	return nil
}

func (r *unitRepository) Release(ctx context.Context, unitID string) error {
	filter := bson.M{
		"unit_id": unitID,
		"status":  bson.M{"$in": []models.UnitStatus{models.UnitStatusDispatched, models.UnitStatusBusy}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":       models.UnitStatusAvailable,
			"last_updated": time.Now().UTC(),
		},
		"$unset": bson.M{"assigned_emergency": ""},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release unit: %w", err)
	}
	if result.MatchedCount == 0 {
		count, cerr := r.collection.CountDocuments(ctx, bson.M{"unit_id": unitID})
		if cerr == nil && count == 0 {
			return ports.ErrUnitNotFound
		}
		return ports.ErrUnitStateConflict
	}
	return nil
}

func (r *unitRepository) SetStatus(ctx context.Context, unitID string, from, to models.UnitStatus) error {
	set := bson.M{
		"status":       to,
		"last_updated": time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if to == models.UnitStatusOffline || to == models.UnitStatusAvailable {
		update["$unset"] = bson.M{"assigned_emergency": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"unit_id": unitID, "status": from}, update)
	if err != nil {
		return fmt.Errorf("failed to set unit status: %w", err)
	}
	if result.MatchedCount == 0 {
		count, cerr := r.collection.CountDocuments(ctx, bson.M{"unit_id": unitID})
		if cerr == nil && count == 0 {
			return ports.ErrUnitNotFound
		}
		return ports.ErrUnitStateConflict
	}
	return nil
}
