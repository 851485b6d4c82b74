// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxPageSize = 500

// PaginationParams is optional on list endpoints: when Enabled is false the
// full result set is returned, matching the unpaginated response shape.
type PaginationParams struct {
	Enabled bool
	Page    int
	Limit   int
	Sort    string
	Order   string
}

type PaginationResult struct {
	Page       int
	Limit      int
	Total      int64
	TotalPages int
}

func GetPaginationParams(c *gin.Context, defaultSort string) PaginationParams {
	_, hasPage := c.GetQuery("page")
	_, hasLimit := c.GetQuery("limit")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	sort := c.DefaultQuery("sort", defaultSort)
	order := c.DefaultQuery("order", "asc")

	// Validate and set defaults
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = 50
	}
	if order != "asc" && order != "desc" {
		order = "asc"
	}

	return PaginationParams{
		Enabled: hasPage || hasLimit,
		Page:    page,
		Limit:   limit,
		Sort:    sort,
		Order:   order,
	}
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	if !params.Enabled {
		return db
	}
	offset := (params.Page - 1) * params.Limit
	return db.Offset(offset).Limit(params.Limit)
}

func ApplySort(db *gorm.DB, params PaginationParams, allowedSortFields []string, fallback string) *gorm.DB {
	// Validate sort field
	sortField := fallback
	for _, field := range allowedSortFields {
		if field == params.Sort {
			sortField = field
			break
		}
	}

	order := params.Order
	if order == "" {
		order = "asc"
	}
	return db.Order(sortField + " " + order)
}

func CreatePaginationResult(total int64, params PaginationParams) PaginationResult {
	totalPages := 1
	if params.Enabled {
		totalPages = int(math.Ceil(float64(total) / float64(params.Limit)))
	}

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
