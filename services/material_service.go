package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"library-service/models"
	"library-service/repository"
	"library-service/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DownloadURLExpiry bounds how long a presigned download link stays valid.
const DownloadURLExpiry = 15 * time.Minute

// MaterialSearchResult is one page of a material search plus its
// pagination metadata.
type MaterialSearchResult struct {
	Materials  []models.Material
	Pagination models.Pagination
}

// MaterialService handles material metadata and the uploaded files behind
// them. Files live in the blob store under a generated unique key; the
// metadata document records that key.
type MaterialService struct {
	repo   repository.MaterialRepository
	blobs  storage.BlobStore
	logger *zap.Logger
}

// NewMaterialService creates a MaterialService.
func NewMaterialService(repo repository.MaterialRepository, blobs storage.BlobStore, logger *zap.Logger) *MaterialService {
	return &MaterialService{repo: repo, blobs: blobs, logger: logger}
}

// parseList splits a comma-separated form value into trimmed entries.
func parseList(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Upload stores the file in the blob store and persists the material
// metadata. If the metadata insert fails the uploaded object is removed so
// no orphaned blob survives.
func (s *MaterialService) Upload(ctx context.Context, req *models.UploadMaterialRequest, uploaderID, fileName, mimeType string, file io.Reader) (*models.Material, error) {
	uploadedBy, err := primitive.ObjectIDFromHex(uploaderID)
	if err != nil {
		return nil, fmt.Errorf("%w: uploader id %q", ErrInvalidID, uploaderID)
	}
	if !models.ValidMaterialType(req.MaterialType) {
		return nil, fmt.Errorf("%w: unknown material type %q", ErrValidation, req.MaterialType)
	}
	totalCopies := req.TotalCopies
	if req.IsPhysical && totalCopies < 1 {
		return nil, fmt.Errorf("%w: a physical material needs at least one copy", ErrValidation)
	}
	if !req.IsPhysical {
		totalCopies = 0
	}

	keywords := parseList(req.Keywords)
	for i, k := range keywords {
		keywords[i] = strings.ToLower(k)
	}

	fileKey := uuid.New().String() + filepath.Ext(fileName)
	if err := s.blobs.Put(ctx, fileKey, mimeType, file); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	material := &models.Material{
		Title:           strings.TrimSpace(req.Title),
		Authors:         parseList(req.Authors),
		PublicationYear: req.PublicationYear,
		MaterialType:    req.MaterialType,
		Keywords:        keywords,
		Category:        strings.TrimSpace(req.Category),
		Description:     strings.TrimSpace(req.Description),
		UploadedBy:      uploadedBy,
		FileName:        fileName,
		FileKey:         fileKey,
		FileMimeType:    mimeType,
		IsPhysical:      req.IsPhysical,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	}

	if err := s.repo.Create(ctx, material); err != nil {
		// Clean up the uploaded object so no blob is left without a record.
		if delErr := s.blobs.Delete(ctx, fileKey); delErr != nil {
			s.logger.Error("Failed to clean up orphaned file after metadata insert failure",
				zap.Error(delErr), zap.String("file_key", fileKey))
		}
		return nil, fmt.Errorf("failed to save material metadata: %w", err)
	}

	s.logger.Info("Material uploaded",
		zap.String("material_id", material.ID.Hex()),
		zap.String("title", material.Title),
		zap.String("file_key", fileKey),
	)
	return material, nil
}

// GetByID loads one material.
func (s *MaterialService) GetByID(ctx context.Context, id string) (*models.Material, error) {
	matID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: material id %q", ErrInvalidID, id)
	}
	material, err := s.repo.FindByID(ctx, matID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return material, err
}

// Delete removes a material and, best effort, its stored file. Only the
// uploader or an admin may delete.
func (s *MaterialService) Delete(ctx context.Context, id, callerID, callerRole string) (*models.Material, error) {
	material, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole != models.RoleAdmin && material.UploadedBy.Hex() != callerID {
		return nil, ErrForbidden
	}

	if err := s.repo.Delete(ctx, material.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete material: %w", err)
	}

	if err := s.blobs.Delete(ctx, material.FileKey); err != nil {
		s.logger.Warn("Failed to delete stored file for removed material",
			zap.Error(err),
			zap.String("material_id", material.ID.Hex()),
			zap.String("file_key", material.FileKey),
		)
	}
	return material, nil
}

// DownloadURL returns a time-limited link to the material's file.
func (s *MaterialService) DownloadURL(ctx context.Context, id string) (string, error) {
	material, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.blobs.PresignGet(ctx, material.FileKey, DownloadURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return url, nil
}

// Search runs the composed keyword/filter query with pagination and
// returns one page plus the total-count driven pagination metadata.
func (s *MaterialService) Search(ctx context.Context, params MaterialSearchParams) (*MaterialSearchResult, error) {
	params.Normalize()
	filter := BuildMaterialFilter(params)

	findOptions := options.Find().
		SetSort(BuildMaterialSort(params.Sort)).
		SetSkip(int64((params.Page - 1) * params.Limit)).
		SetLimit(int64(params.Limit))

	materials, err := s.repo.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to search materials: %w", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count materials: %w", err)
	}

	return &MaterialSearchResult{
		Materials:  materials,
		Pagination: models.NewPagination(params.Page, params.Limit, total),
	}, nil
}
