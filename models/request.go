package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Acquisition request statuses.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusFulfilled = "fulfilled"
)

// ValidRequestStatus reports whether s is a known request status.
func ValidRequestStatus(s string) bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusFulfilled:
		return true
	}
	return false
}

// Request is a user's petition for the library to acquire a material.
// FulfilledMaterial links to the Material record once the request is
// fulfilled.
type Request struct {
	ID                primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Title             string              `json:"title" bson:"title"`
	Authors           []string            `json:"authors" bson:"authors"`
	PublicationYear   int                 `json:"publicationYear,omitempty" bson:"publicationYear,omitempty"`
	Description       string              `json:"description" bson:"description"`
	RequestedBy       primitive.ObjectID  `json:"requestedBy" bson:"requestedBy"`
	Status            string              `json:"status" bson:"status"`
	ActionNotes       string              `json:"actionNotes,omitempty" bson:"actionNotes,omitempty"`
	FulfilledMaterial *primitive.ObjectID `json:"fulfilledMaterial" bson:"fulfilledMaterial"`
	RequestedAt       time.Time           `json:"requestedAt" bson:"requestedAt"`
	UpdatedAt         time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// CreateRequestRequest is the body of POST /api/requests.
type CreateRequestRequest struct {
	Title           string   `json:"title" binding:"required"`
	Authors         []string `json:"authors"`
	PublicationYear int      `json:"publicationYear"`
	Description     string   `json:"description" binding:"required"`
}

// UpdateRequestStatusRequest is the body of PATCH /api/requests/:id/status.
type UpdateRequestStatusRequest struct {
	Status              string `json:"status" binding:"required"`
	ActionNotes         string `json:"actionNotes"`
	FulfilledMaterialID string `json:"fulfilledMaterialId"`
}
