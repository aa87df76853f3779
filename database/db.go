package database

import (
	"context"
	"fmt"
	"time"

	"library-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	MongoClient *mongo.Client
	DB          *mongo.Database
)

// Connect connects to MongoDB using the provided URI and database name.
func Connect(mongoURL, dbName string) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURL)

	client, err := mongo.Connect(timeoutCtx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(timeoutCtx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	MongoClient = client
	DB = client.Database(dbName)
	return nil
}

// EnsureIndexes creates the indexes the service depends on. The partial
// unique index on bookings is the storage-level guarantee that a user holds
// at most one non-terminal booking per material; a racing duplicate insert
// fails with a duplicate-key error instead of creating a second loan.
func EnsureIndexes(ctx context.Context) error {
	bookingIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "material", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"status": bson.M{"$in": models.NonTerminalBookingStatuses},
			}),
	}
	if _, err := DB.Collection("bookings").Indexes().CreateOne(ctx, bookingIdx); err != nil {
		return fmt.Errorf("failed to create booking uniqueness index: %w", err)
	}

	materialIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "materialType", Value: 1}}},
		{Keys: bson.D{{Key: "publicationYear", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := DB.Collection("materials").Indexes().CreateMany(ctx, materialIdx); err != nil {
		return fmt.Errorf("failed to create material indexes: %w", err)
	}

	userIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := DB.Collection("users").Indexes().CreateOne(ctx, userIdx); err != nil {
		return fmt.Errorf("failed to create user email index: %w", err)
	}

	return nil
}

// Close disconnects from MongoDB.
func Close() error {
	disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := MongoClient.Disconnect(disconnectCtx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}
