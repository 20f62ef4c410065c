// server/internal/database/mongo.go
package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"seamaster-shipment-api-server/config"
)

// Connect opens the MongoDB client and verifies the connection with a
// ping before anything else uses it.
func Connect(ctx context.Context, cfg config.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	log.Println("Connected to MongoDB")
	return client, client.Database(cfg.Mongo.DBName), nil
}

// EnsureIndexes prepares the shipments collection on startup:
// uniqueID must be unique, and the dashboard filters on submission
// date and client.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("shipments")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "uniqueID", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "dateSubmitted", Value: -1}, {Key: "client", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return err
	}

	log.Println("Shipment indexes ensured")
	return nil
}
