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

// MaterialRepository defines data access for materials. The copy counters
// are only ever adjusted through the conditional Decrement/Increment
// operations so that 0 <= availableCopies <= totalCopies holds under
// concurrent borrows and returns.
type MaterialRepository interface {
	Create(ctx context.Context, m *models.Material) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Material, error)
	Find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]models.Material, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DecrementAvailable(ctx context.Context, id primitive.ObjectID) error
	IncrementAvailable(ctx context.Context, id primitive.ObjectID) error
}

// MongoMaterialRepository implements MaterialRepository on a MongoDB
// collection.
type MongoMaterialRepository struct {
	collection *mongo.Collection
}

// NewMongoMaterialRepository creates a MaterialRepository backed by the
// "materials" collection.
func NewMongoMaterialRepository(db *mongo.Database) *MongoMaterialRepository {
	return &MongoMaterialRepository{collection: db.Collection("materials")}
}

func (r *MongoMaterialRepository) Create(ctx context.Context, m *models.Material) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to insert material: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}
	return nil
}

func (r *MongoMaterialRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Material, error) {
	var m models.Material
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find material: %w", err)
	}
	return &m, nil
}

func (r *MongoMaterialRepository) Find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]models.Material, error) {
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to query materials: %w", err)
	}
	defer cursor.Close(ctx)

	materials := make([]models.Material, 0)
	if err := cursor.All(ctx, &materials); err != nil {
		return nil, fmt.Errorf("failed to decode materials: %w", err)
	}
	return materials, nil
}

func (r *MongoMaterialRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	return r.collection.CountDocuments(ctx, filter)
}

func (r *MongoMaterialRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete material: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementAvailable atomically takes one available copy. The update is
// conditional on availableCopies > 0, so two borrowers racing for the last
// copy cannot both succeed: the loser sees ErrNoCopiesAvailable.
func (r *MongoMaterialRepository) DecrementAvailable(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "availableCopies": bson.M{"$gt": 0}}
	update := bson.M{
		"$inc": bson.M{"availableCopies": -1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decrement available copies: %w", err)
	}
	if res.MatchedCount == 0 {
		// Either the material vanished or the last copy was taken first.
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return findErr
		}
		return ErrNoCopiesAvailable
	}
	return nil
}

// IncrementAvailable atomically returns one copy, clamped so the available
// count never exceeds totalCopies. A clamped no-op is not an error.
func (r *MongoMaterialRepository) IncrementAvailable(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{
		"_id":   id,
		"$expr": bson.M{"$lt": []string{"$availableCopies", "$totalCopies"}},
	}
	update := bson.M{
		"$inc": bson.M{"availableCopies": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to increment available copies: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return findErr
		}
		// Already at totalCopies; clamp and move on.
	}
	return nil
}
