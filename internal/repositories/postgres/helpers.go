package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/prepwise/scoring-service/internal/repositories"
)

// SharedHelpers holds query fragments reused across the postgres
// repositories.
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

var attemptSortColumns = map[string]string{
	"attempted_at":  "attempted_at",
	"score_percent": "score_percent",
	"created_at":    "created_at",
}

// ApplyAttemptFilters narrows an attempt query by the optional filter
// fields.
func (h *SharedHelpers) ApplyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.DateFrom != nil {
		query = query.Where("attempted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("attempted_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies sorting (whitelisted columns only) and
// limit/offset to a query.
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	column, ok := attemptSortColumns[sortBy]
	if !ok {
		column = "attempted_at"
	}
	order := "asc"
	if sortOrder == "desc" {
		order = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", column, order))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
