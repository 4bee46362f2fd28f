package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/instanthelp/dispatch/internal/domain/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBAdapter implements the DatabaseAdapter interface for MongoDB
type MongoDBAdapter struct {
	client      *mongo.Client
	db          *mongo.Database
	config      *ports.MongoDBConfig
	emergencies ports.EmergencyRepository
	units       ports.UnitRepository
	audit       ports.AuditRepository
	admins      ports.AdminRepository
}

// NewMongoDBAdapter creates a new MongoDB database adapter
func NewMongoDBAdapter(config *ports.MongoDBConfig) *MongoDBAdapter {
	return &MongoDBAdapter{
		config: config,
	}
}

// Connect establishes a connection to the MongoDB database
func (a *MongoDBAdapter) Connect(ctx context.Context) error {
	clientOpts := options.Client().ApplyURI(a.config.URI)

	if a.config.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(uint64(a.config.MaxPoolSize))
	}
	if a.config.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(uint64(a.config.MinPoolSize))
	}
	if a.config.MaxConnIdleTime > 0 {
		clientOpts.SetMaxConnIdleTime(time.Duration(a.config.MaxConnIdleTime) * time.Second)
	}
	if a.config.ServerTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(time.Duration(a.config.ServerTimeout) * time.Second)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}

	a.client = client
	a.db = client.Database(a.config.Database)

	a.emergencies = NewEmergencyRepository(a.db)
	a.units = NewUnitRepository(a.db)
	a.audit = NewAuditRepository(a.db)
	a.admins = NewAdminRepository(a.db)

	if err = a.createIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// Disconnect closes the database connection
func (a *MongoDBAdapter) Disconnect(ctx context.Context) error {
	if a.client != nil {
		return a.client.Disconnect(ctx)
	}
	return nil
}

// Ping checks if the database connection is alive
func (a *MongoDBAdapter) Ping(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("database not connected")
	}
	return a.client.Ping(ctx, nil)
}

// GetType returns the database type
func (a *MongoDBAdapter) GetType() ports.DatabaseType {
	return ports.DatabaseTypeMongoDB
}

func (a *MongoDBAdapter) EmergencyRepository() ports.EmergencyRepository { return a.emergencies }
func (a *MongoDBAdapter) UnitRepository() ports.UnitRepository           { return a.units }
func (a *MongoDBAdapter) AuditRepository() ports.AuditRepository         { return a.audit }
func (a *MongoDBAdapter) AdminRepository() ports.AdminRepository         { return a.admins }

// createIndexes provisions the indexes used by the dispatch queries
func (a *MongoDBAdapter) createIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		"emergencies": {
			{Keys: bson.D{{Key: "emergency_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "department", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		"response_units": {
			{Keys: bson.D{{Key: "unit_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "department", Value: 1}}},
		},
		"emergency_logs": {
			{Keys: bson.D{{Key: "emergency_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		"admins": {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "department", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := a.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}
	return nil
}
