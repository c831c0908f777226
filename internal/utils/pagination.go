// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// CollectionResult is the envelope for unpaginated lists.
type CollectionResult[T any] struct {
	Data    []T    `json:"data"`
	Total   int64  `json:"total"`
	Warning string `json:"warning,omitempty"`
}

// PaginatedResult is the envelope for a single page of a larger list.
type PaginatedResult[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

func NewCollection[T any](data []T, warning string) CollectionResult[T] {
	if data == nil {
		data = []T{}
	}
	return CollectionResult[T]{Data: data, Total: int64(len(data)), Warning: warning}
}

// Normalize clamps page to >= 1 and page size to [1, MaxPageSize].
func (p PaginationParams) Normalize() PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(DefaultPageSize)))

	return PaginationParams{Page: page, PageSize: pageSize}.Normalize()
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	return db.Offset(params.Offset()).Limit(params.PageSize)
}

func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

func CreatePaginationResult[T any](data []T, total int64, params PaginationParams) PaginatedResult[T] {
	if data == nil {
		data = []T{}
	}

	return PaginatedResult[T]{
		Data:       data,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: TotalPages(total, params.PageSize),
	}
}

func SetPaginationHeaders(c *gin.Context, total int64, page, pageSize, totalPages int) {
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	c.Header("X-Page", strconv.Itoa(page))
	c.Header("X-Per-Page", strconv.Itoa(pageSize))
	c.Header("X-Total-Pages", strconv.Itoa(totalPages))
}
