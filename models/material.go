package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Material types accepted on upload.
const (
	MaterialTypeResearchPaper  = "research_paper"
	MaterialTypeBook           = "book"
	MaterialTypeCourseMaterial = "course_material"
	MaterialTypeThesis         = "thesis"
	MaterialTypeOther          = "other"
)

// ValidMaterialType reports whether t is one of the accepted material types.
func ValidMaterialType(t string) bool {
	switch t {
	case MaterialTypeResearchPaper, MaterialTypeBook, MaterialTypeCourseMaterial,
		MaterialTypeThesis, MaterialTypeOther:
		return true
	}
	return false
}

// Material is an academic resource: searchable metadata plus an uploaded
// file and, for physical items, a bounded copy count. The copy counters are
// mutated only through the conditional repository operations used by the
// booking service; 0 <= available_copies <= total_copies holds at all times.
type Material struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title           string             `json:"title" bson:"title"`
	Authors         []string           `json:"authors" bson:"authors"`
	PublicationYear int                `json:"publicationYear,omitempty" bson:"publicationYear,omitempty"`
	MaterialType    string             `json:"materialType" bson:"materialType"`
	Keywords        []string           `json:"keywords" bson:"keywords"`
	Category        string             `json:"category,omitempty" bson:"category,omitempty"`
	Description     string             `json:"description,omitempty" bson:"description,omitempty"`
	UploadedBy      primitive.ObjectID `json:"uploadedBy" bson:"uploadedBy"`
	FileName        string             `json:"fileName" bson:"fileName"`
	FileKey         string             `json:"fileKey" bson:"fileKey"`
	FileMimeType    string             `json:"fileMimeType" bson:"fileMimeType"`
	IsPhysical      bool               `json:"isPhysical" bson:"isPhysical"`
	TotalCopies     int                `json:"totalCopies" bson:"totalCopies"`
	AvailableCopies int                `json:"availableCopies" bson:"availableCopies"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// UploadMaterialRequest carries the metadata fields of a multipart upload.
// Authors and keywords arrive as comma-separated form values.
type UploadMaterialRequest struct {
	Title           string `form:"title" binding:"required"`
	Authors         string `form:"authors"`
	PublicationYear int    `form:"publicationYear"`
	MaterialType    string `form:"materialType" binding:"required"`
	Keywords        string `form:"keywords"`
	Category        string `form:"category"`
	Description     string `form:"description"`
	IsPhysical      bool   `form:"isPhysical"`
	TotalCopies     int    `form:"totalCopies"`
}
