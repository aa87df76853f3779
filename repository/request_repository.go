package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RequestRepository defines data access for material acquisition requests.
type RequestRepository interface {
	Create(ctx context.Context, req *models.Request) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	List(ctx context.Context, user primitive.ObjectID, status string) ([]models.Request, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status, notes string, fulfilled *primitive.ObjectID) (*models.Request, error)
}

// MongoRequestRepository implements RequestRepository on the "requests"
// collection.
type MongoRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoRequestRepository creates a RequestRepository backed by the
// "requests" collection.
func NewMongoRequestRepository(db *mongo.Database) *MongoRequestRepository {
	return &MongoRequestRepository{collection: db.Collection("requests")}
}

func (r *MongoRequestRepository) Create(ctx context.Context, req *models.Request) error {
	now := time.Now().UTC()
	req.RequestedAt = now
	req.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		req.ID = oid
	}
	return nil
}

func (r *MongoRequestRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var req models.Request
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find request: %w", err)
	}
	return &req, nil
}

// List returns requests newest first, optionally narrowed by requester and
// status.
func (r *MongoRequestRepository) List(ctx context.Context, user primitive.ObjectID, status string) ([]models.Request, error) {
	filter := bson.M{}
	if !user.IsZero() {
		filter["requestedBy"] = user
	}
	if status != "" {
		filter["status"] = status
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := make([]models.Request, 0)
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}
	return requests, nil
}

func (r *MongoRequestRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status, notes string, fulfilled *primitive.ObjectID) (*models.Request, error) {
	set := bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}
	if notes != "" {
		set["actionNotes"] = notes
	}
	if fulfilled != nil {
		set["fulfilledMaterial"] = *fulfilled
	}

	var req models.Request
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}
	return &req, nil
}
