package services

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pagination bounds for material search.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// MaterialSearchParams are the optional search inputs of GET /materials.
// Zero values mean "not set".
type MaterialSearchParams struct {
	Keyword         string
	Category        string
	MaterialType    string
	PublicationYear int
	Page            int
	Limit           int
	Sort            string
}

// Normalize clamps pagination to sane bounds: page >= 1, limit defaulting
// to DefaultPageSize and capped at MaxPageSize.
func (p *MaterialSearchParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
}

// searchableFields are the text fields a keyword is matched against.
var searchableFields = []string{"title", "description", "keywords", "authors", "category"}

// BuildMaterialFilter composes the search filter: AND across the exact
// filter fields, OR across the searchable text fields for the keyword, and
// the AND of both groups when both are present. With no parameters the
// filter matches everything.
func BuildMaterialFilter(p MaterialSearchParams) bson.M {
	filters := bson.M{}
	if cat := strings.TrimSpace(p.Category); cat != "" {
		// Anchored case-insensitive equality.
		filters["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(cat) + "$", Options: "i"}
	}
	if mt := strings.TrimSpace(p.MaterialType); mt != "" {
		filters["materialType"] = mt
	}
	if p.PublicationYear != 0 {
		filters["publicationYear"] = p.PublicationYear
	}

	var keywordClause bson.M
	if kw := strings.TrimSpace(p.Keyword); kw != "" {
		// Escaped for literal matching: a keyword like "c++" must not be
		// interpreted as a regex.
		re := primitive.Regex{Pattern: regexp.QuoteMeta(kw), Options: "i"}
		or := make([]bson.M, 0, len(searchableFields))
		for _, field := range searchableFields {
			or = append(or, bson.M{field: re})
		}
		keywordClause = bson.M{"$or": or}
	}

	switch {
	case len(filters) > 0 && keywordClause != nil:
		return bson.M{"$and": []bson.M{filters, keywordClause}}
	case keywordClause != nil:
		return keywordClause
	default:
		return filters
	}
}

// sortableFields whitelists the sort keys accepted from the query string.
var sortableFields = map[string]bool{
	"createdAt":       true,
	"title":           true,
	"publicationYear": true,
}

// BuildMaterialSort translates a sort parameter ("field" ascending,
// "-field" descending) into a Mongo sort spec, defaulting to newest
// created first.
func BuildMaterialSort(sort string) bson.D {
	field := strings.TrimSpace(sort)
	order := 1
	if strings.HasPrefix(field, "-") {
		order = -1
		field = field[1:]
	}
	if !sortableFields[field] {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return bson.D{{Key: field, Value: order}}
}
