package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"library-service/models"
	"library-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ThreadView is a thread together with its posts, resolved in one explicit
// fetch rather than lazily per reference.
type ThreadView struct {
	Thread models.ForumThread `json:"thread"`
	Posts  []models.ForumPost `json:"posts"`
}

// ForumService handles discussion categories, threads and posts.
type ForumService struct {
	repo repository.ForumRepository
}

// NewForumService creates a ForumService.
func NewForumService(repo repository.ForumRepository) *ForumService {
	return &ForumService{repo: repo}
}

func (s *ForumService) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.ForumCategory, error) {
	category := &models.ForumCategory{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *ForumService) ListCategories(ctx context.Context) ([]models.ForumCategory, error) {
	return s.repo.ListCategories(ctx)
}

func (s *ForumService) UpdateCategory(ctx context.Context, id string, req *models.CreateCategoryRequest) (*models.ForumCategory, error) {
	catID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: category id %q", ErrInvalidID, id)
	}
	updated, err := s.repo.UpdateCategory(ctx, catID, strings.TrimSpace(req.Name), strings.TrimSpace(req.Description))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return updated, err
}

func (s *ForumService) DeleteCategory(ctx context.Context, id string) error {
	catID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: category id %q", ErrInvalidID, id)
	}
	err = s.repo.DeleteCategory(ctx, catID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// CreateThread opens a thread in an existing category with its first post.
func (s *ForumService) CreateThread(ctx context.Context, req *models.CreateThreadRequest, authorID string) (*ThreadView, error) {
	catID, err := primitive.ObjectIDFromHex(req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: category id %q", ErrInvalidID, req.CategoryID)
	}
	author, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return nil, fmt.Errorf("%w: author id %q", ErrInvalidID, authorID)
	}
	if _, err := s.repo.FindCategory(ctx, catID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	thread := &models.ForumThread{
		Category:  catID,
		Title:     strings.TrimSpace(req.Title),
		CreatedBy: author,
	}
	if err := s.repo.CreateThread(ctx, thread); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	post := &models.ForumPost{
		Thread:  thread.ID,
		Author:  author,
		Content: strings.TrimSpace(req.Content),
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create opening post: %w", err)
	}

	return &ThreadView{Thread: *thread, Posts: []models.ForumPost{*post}}, nil
}

// ListThreads lists threads newest first, optionally within one category.
func (s *ForumService) ListThreads(ctx context.Context, categoryID string) ([]models.ForumThread, error) {
	var catID primitive.ObjectID
	if categoryID != "" {
		var err error
		catID, err = primitive.ObjectIDFromHex(categoryID)
		if err != nil {
			return nil, fmt.Errorf("%w: category id %q", ErrInvalidID, categoryID)
		}
	}
	return s.repo.ListThreads(ctx, catID)
}

// GetThread loads a thread with its posts oldest first.
func (s *ForumService) GetThread(ctx context.Context, id string) (*ThreadView, error) {
	threadID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: thread id %q", ErrInvalidID, id)
	}
	thread, err := s.repo.FindThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	posts, err := s.repo.ListPosts(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	return &ThreadView{Thread: *thread, Posts: posts}, nil
}

// AddPost appends a reply to an existing thread.
func (s *ForumService) AddPost(ctx context.Context, threadID string, req *models.CreatePostRequest, authorID string) (*models.ForumPost, error) {
	tID, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return nil, fmt.Errorf("%w: thread id %q", ErrInvalidID, threadID)
	}
	author, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return nil, fmt.Errorf("%w: author id %q", ErrInvalidID, authorID)
	}
	if _, err := s.repo.FindThread(ctx, tID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}

	post := &models.ForumPost{
		Thread:  tID,
		Author:  author,
		Content: strings.TrimSpace(req.Content),
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}
