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

// ListBookingsOptions narrows a booking listing. Zero values mean "no
// filter" for that field.
type ListBookingsOptions struct {
	Status   string
	User     primitive.ObjectID
	Material primitive.ObjectID
}

// BookingRepository is the source of truth for active and historical
// bookings. Insert relies on the partial unique index over
// (user, material, status in non-terminal) so that a racing duplicate
// borrow is rejected by the storage layer, not just the application check.
type BookingRepository interface {
	Insert(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	FindActive(ctx context.Context, user, material primitive.ObjectID) (*models.Booking, error)
	List(ctx context.Context, opts ListBookingsOptions) ([]models.Booking, error)
	MarkReturned(ctx context.Context, id primitive.ObjectID, returnedAt time.Time) (*models.Booking, error)
}

// MongoBookingRepository implements BookingRepository on the "bookings"
// collection.
type MongoBookingRepository struct {
	collection *mongo.Collection
}

// NewMongoBookingRepository creates a BookingRepository backed by the
// "bookings" collection.
func NewMongoBookingRepository(db *mongo.Database) *MongoBookingRepository {
	return &MongoBookingRepository{collection: db.Collection("bookings")}
}

func (r *MongoBookingRepository) Insert(ctx context.Context, b *models.Booking) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, b)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateActiveBooking
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		b.ID = oid
	}
	return nil
}

func (r *MongoBookingRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &b, nil
}

// FindActive returns the user's non-terminal booking for a material, or
// ErrNotFound when none exists.
func (r *MongoBookingRepository) FindActive(ctx context.Context, user, material primitive.ObjectID) (*models.Booking, error) {
	filter := bson.M{
		"user":     user,
		"material": material,
		"status":   bson.M{"$in": models.NonTerminalBookingStatuses},
	}
	var b models.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active booking: %w", err)
	}
	return &b, nil
}

// List returns bookings matching opts, newest first.
func (r *MongoBookingRepository) List(ctx context.Context, opts ListBookingsOptions) ([]models.Booking, error) {
	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = opts.Status
	}
	if !opts.User.IsZero() {
		filter["user"] = opts.User
	}
	if !opts.Material.IsZero() {
		filter["material"] = opts.Material
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]models.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// MarkReturned transitions a booking to returned. The update is conditional
// on the booking not already being returned, so a concurrent double return
// loses cleanly with ErrAlreadyReturned.
func (r *MongoBookingRepository) MarkReturned(ctx context.Context, id primitive.ObjectID, returnedAt time.Time) (*models.Booking, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$ne": models.BookingStatusReturned}}
	update := bson.M{"$set": bson.M{
		"status":     models.BookingStatusReturned,
		"returnedAt": returnedAt,
		"updatedAt":  time.Now().UTC(),
	}}

	var b models.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, ErrAlreadyReturned
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark booking returned: %w", err)
	}
	return &b, nil
}
