package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"library-service/models"
	"library-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RequestService handles the material acquisition request workflow:
// pending -> approved/rejected -> fulfilled.
type RequestService struct {
	repo      repository.RequestRepository
	materials repository.MaterialRepository
	logger    *zap.Logger
}

// NewRequestService creates a RequestService.
func NewRequestService(repo repository.RequestRepository, materials repository.MaterialRepository, logger *zap.Logger) *RequestService {
	return &RequestService{repo: repo, materials: materials, logger: logger}
}

// Create files a new acquisition request in the pending state.
func (s *RequestService) Create(ctx context.Context, req *models.CreateRequestRequest, requesterID string) (*models.Request, error) {
	requestedBy, err := primitive.ObjectIDFromHex(requesterID)
	if err != nil {
		return nil, fmt.Errorf("%w: requester id %q", ErrInvalidID, requesterID)
	}

	request := &models.Request{
		Title:           strings.TrimSpace(req.Title),
		Authors:         req.Authors,
		PublicationYear: req.PublicationYear,
		Description:     strings.TrimSpace(req.Description),
		RequestedBy:     requestedBy,
		Status:          models.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info("Material request created",
		zap.String("request_id", request.ID.Hex()),
		zap.String("requested_by", requestedBy.Hex()),
	)
	return request, nil
}

// ListMine returns the caller's own requests, optionally filtered by
// status.
func (s *RequestService) ListMine(ctx context.Context, requesterID, status string) ([]models.Request, error) {
	requestedBy, err := primitive.ObjectIDFromHex(requesterID)
	if err != nil {
		return nil, fmt.Errorf("%w: requester id %q", ErrInvalidID, requesterID)
	}
	if !models.ValidRequestStatus(status) {
		status = ""
	}
	return s.repo.List(ctx, requestedBy, status)
}

// ListAll returns every request, optionally filtered by status.
func (s *RequestService) ListAll(ctx context.Context, status string) ([]models.Request, error) {
	if !models.ValidRequestStatus(status) {
		status = ""
	}
	return s.repo.List(ctx, primitive.NilObjectID, status)
}

// UpdateStatus moves a request through its workflow. Marking a request
// fulfilled requires a valid, existing material to link.
func (s *RequestService) UpdateStatus(ctx context.Context, id string, req *models.UpdateRequestStatusRequest) (*models.Request, error) {
	reqID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: request id %q", ErrInvalidID, id)
	}
	if !models.ValidRequestStatus(req.Status) {
		return nil, fmt.Errorf("%w: unknown request status %q", ErrValidation, req.Status)
	}

	var fulfilled *primitive.ObjectID
	if req.Status == models.RequestStatusFulfilled {
		if req.FulfilledMaterialID == "" {
			return nil, fmt.Errorf("%w: a fulfilled request needs a material id", ErrValidation)
		}
		matID, err := primitive.ObjectIDFromHex(req.FulfilledMaterialID)
		if err != nil {
			return nil, fmt.Errorf("%w: material id %q", ErrInvalidID, req.FulfilledMaterialID)
		}
		if _, err := s.materials.FindByID(ctx, matID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: fulfilling material does not exist", ErrValidation)
			}
			return nil, fmt.Errorf("failed to load fulfilling material: %w", err)
		}
		fulfilled = &matID
	}

	updated, err := s.repo.UpdateStatus(ctx, reqID, req.Status, req.ActionNotes, fulfilled)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	s.logger.Info("Material request updated",
		zap.String("request_id", reqID.Hex()),
		zap.String("status", req.Status),
	)
	return updated, nil
}
