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

// ForumRepository defines data access for forum categories, threads and
// posts.
type ForumRepository interface {
	CreateCategory(ctx context.Context, c *models.ForumCategory) error
	ListCategories(ctx context.Context) ([]models.ForumCategory, error)
	FindCategory(ctx context.Context, id primitive.ObjectID) (*models.ForumCategory, error)
	UpdateCategory(ctx context.Context, id primitive.ObjectID, name, description string) (*models.ForumCategory, error)
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error

	CreateThread(ctx context.Context, t *models.ForumThread) error
	ListThreads(ctx context.Context, category primitive.ObjectID) ([]models.ForumThread, error)
	FindThread(ctx context.Context, id primitive.ObjectID) (*models.ForumThread, error)

	CreatePost(ctx context.Context, p *models.ForumPost) error
	ListPosts(ctx context.Context, thread primitive.ObjectID) ([]models.ForumPost, error)
}

// MongoForumRepository implements ForumRepository on the forum collections.
type MongoForumRepository struct {
	categories *mongo.Collection
	threads    *mongo.Collection
	posts      *mongo.Collection
}

// NewMongoForumRepository creates a ForumRepository backed by the
// forum_categories, forum_threads and forum_posts collections.
func NewMongoForumRepository(db *mongo.Database) *MongoForumRepository {
	return &MongoForumRepository{
		categories: db.Collection("forum_categories"),
		threads:    db.Collection("forum_threads"),
		posts:      db.Collection("forum_posts"),
	}
}

func (r *MongoForumRepository) CreateCategory(ctx context.Context, c *models.ForumCategory) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	res, err := r.categories.InsertOne(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to insert forum category: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}
	return nil
}

func (r *MongoForumRepository) ListCategories(ctx context.Context) ([]models.ForumCategory, error) {
	cursor, err := r.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query forum categories: %w", err)
	}
	defer cursor.Close(ctx)

	categories := make([]models.ForumCategory, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode forum categories: %w", err)
	}
	return categories, nil
}

func (r *MongoForumRepository) FindCategory(ctx context.Context, id primitive.ObjectID) (*models.ForumCategory, error) {
	var c models.ForumCategory
	err := r.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find forum category: %w", err)
	}
	return &c, nil
}

func (r *MongoForumRepository) UpdateCategory(ctx context.Context, id primitive.ObjectID, name, description string) (*models.ForumCategory, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if name != "" {
		set["name"] = name
	}
	if description != "" {
		set["description"] = description
	}

	var c models.ForumCategory
	err := r.categories.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update forum category: %w", err)
	}
	return &c, nil
}

func (r *MongoForumRepository) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.categories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete forum category: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoForumRepository) CreateThread(ctx context.Context, t *models.ForumThread) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	res, err := r.threads.InsertOne(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to insert forum thread: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = oid
	}
	return nil
}

func (r *MongoForumRepository) ListThreads(ctx context.Context, category primitive.ObjectID) ([]models.ForumThread, error) {
	filter := bson.M{}
	if !category.IsZero() {
		filter["category"] = category
	}
	cursor, err := r.threads.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query forum threads: %w", err)
	}
	defer cursor.Close(ctx)

	threads := make([]models.ForumThread, 0)
	if err := cursor.All(ctx, &threads); err != nil {
		return nil, fmt.Errorf("failed to decode forum threads: %w", err)
	}
	return threads, nil
}

func (r *MongoForumRepository) FindThread(ctx context.Context, id primitive.ObjectID) (*models.ForumThread, error) {
	var t models.ForumThread
	err := r.threads.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find forum thread: %w", err)
	}
	return &t, nil
}

func (r *MongoForumRepository) CreatePost(ctx context.Context, p *models.ForumPost) error {
	p.CreatedAt = time.Now().UTC()
	res, err := r.posts.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to insert forum post: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

func (r *MongoForumRepository) ListPosts(ctx context.Context, thread primitive.ObjectID) ([]models.ForumPost, error) {
	cursor, err := r.posts.Find(ctx, bson.M{"thread": thread}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query forum posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := make([]models.ForumPost, 0)
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode forum posts: %w", err)
	}
	return posts, nil
}
