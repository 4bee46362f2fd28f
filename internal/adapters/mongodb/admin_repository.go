package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// adminRepository implements the AdminRepository interface using MongoDB
type adminRepository struct {
	collection *mongo.Collection
}

// NewAdminRepository creates a new MongoDB admin repository
func NewAdminRepository(db *mongo.Database) ports.AdminRepository {
	return &adminRepository{
		collection: db.Collection("admins"),
	}
}

func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if _, err := r.collection.InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ports.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin

	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &admin, nil
}
