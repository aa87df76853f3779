package services_test

import (
	"testing"

	"library-service/services"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildMaterialFilter_Empty(t *testing.T) {
	filter := services.BuildMaterialFilter(services.MaterialSearchParams{})
	assert.Equal(t, bson.M{}, filter)
}

func TestBuildMaterialFilter_KeywordOnly(t *testing.T) {
	filter := services.BuildMaterialFilter(services.MaterialSearchParams{Keyword: "quantum"})

	or, ok := filter["$or"].([]bson.M)
	assert.True(t, ok, "keyword alone produces a bare $or clause")
	assert.Len(t, or, 5, "keyword matches title, description, keywords, authors and category")

	re, ok := or[0]["title"].(primitive.Regex)
	assert.True(t, ok)
	assert.Equal(t, "quantum", re.Pattern)
	assert.Equal(t, "i", re.Options)
}

func TestBuildMaterialFilter_FiltersOnly(t *testing.T) {
	filter := services.BuildMaterialFilter(services.MaterialSearchParams{
		Category:        "Physics",
		MaterialType:    "book",
		PublicationYear: 2021,
	})

	_, hasAnd := filter["$and"]
	assert.False(t, hasAnd, "filters without a keyword stay a flat document")
	assert.Equal(t, "book", filter["materialType"])
	assert.Equal(t, 2021, filter["publicationYear"])

	re, ok := filter["category"].(primitive.Regex)
	assert.True(t, ok)
	assert.Equal(t, "^Physics$", re.Pattern, "category is an anchored match")
	assert.Equal(t, "i", re.Options)
}

func TestBuildMaterialFilter_KeywordAndFilters(t *testing.T) {
	filter := services.BuildMaterialFilter(services.MaterialSearchParams{
		Keyword:  "quantum",
		Category: "Physics",
	})

	and, ok := filter["$and"].([]bson.M)
	assert.True(t, ok, "keyword plus filters combine under $and")
	assert.Len(t, and, 2)

	_, hasCategory := and[0]["category"]
	assert.True(t, hasCategory)
	or, ok := and[1]["$or"].([]bson.M)
	assert.True(t, ok)
	assert.Len(t, or, 5)
}

func TestBuildMaterialFilter_EscapesRegexMetacharacters(t *testing.T) {
	filter := services.BuildMaterialFilter(services.MaterialSearchParams{Keyword: "c++ (draft)"})

	or := filter["$or"].([]bson.M)
	re := or[0]["title"].(primitive.Regex)
	assert.Equal(t, `c\+\+ \(draft\)`, re.Pattern, "keyword must match literally")

	filter = services.BuildMaterialFilter(services.MaterialSearchParams{Category: "A.I."})
	catRe := filter["category"].(primitive.Regex)
	assert.Equal(t, `^A\.I\.$`, catRe.Pattern)
}

func TestBuildMaterialFilter_TrimsWhitespace(t *testing.T) {
	filter := services.BuildMaterialFilter(services.MaterialSearchParams{Keyword: "   ", Category: "  "})
	assert.Equal(t, bson.M{}, filter, "blank inputs mean no filtering")
}

func TestNormalize_Defaults(t *testing.T) {
	p := services.MaterialSearchParams{}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, services.DefaultPageSize, p.Limit)
}

func TestNormalize_Bounds(t *testing.T) {
	p := services.MaterialSearchParams{Page: -3, Limit: 10000}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, services.MaxPageSize, p.Limit)

	p = services.MaterialSearchParams{Page: 7, Limit: 25}
	p.Normalize()
	assert.Equal(t, 7, p.Page)
	assert.Equal(t, 25, p.Limit)
}

func TestBuildMaterialSort(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, services.BuildMaterialSort(""))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, services.BuildMaterialSort("price"), "unknown fields fall back to the default")
	assert.Equal(t, bson.D{{Key: "title", Value: 1}}, services.BuildMaterialSort("title"))
	assert.Equal(t, bson.D{{Key: "publicationYear", Value: -1}}, services.BuildMaterialSort("-publicationYear"))
}
