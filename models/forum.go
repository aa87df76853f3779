package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ForumCategory groups discussion threads.
type ForumCategory struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ForumThread is a discussion topic inside a category.
type ForumThread struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Category  primitive.ObjectID `json:"category" bson:"category"`
	Title     string             `json:"title" bson:"title"`
	CreatedBy primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ForumPost is a single message in a thread.
type ForumPost struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Thread    primitive.ObjectID `json:"thread" bson:"thread"`
	Author    primitive.ObjectID `json:"author" bson:"author"`
	Content   string             `json:"content" bson:"content"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// CreateCategoryRequest is the body of POST /api/forum/categories.
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateThreadRequest is the body of POST /api/forum/threads.
type CreateThreadRequest struct {
	CategoryID string `json:"categoryId" binding:"required"`
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// CreatePostRequest is the body of POST /api/forum/threads/:id/posts.
type CreatePostRequest struct {
	Content string `json:"content" binding:"required"`
}
