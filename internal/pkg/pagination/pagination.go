package pagination

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jdforge/core/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultPage = 1
	MaxSize     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page int
	Size int
}

// FixedSize reads ?page= and ignores any client supplied size.
func FixedSize(c *gin.Context, size int) Query {
	return Query{Page: ParsePage(c.Query("page")), Size: clampSize(size)}
}

// ParsePage returns the page number, treating missing, malformed or non-positive input as page 1.
func ParsePage(raw string) int {
	page := parseIntOr(raw, DefaultPage)
	if page < 1 {
		return DefaultPage
	}
	return page
}

// Paginate counts the rows matched by db, then loads one page into dest.
// A page past the end is clamped to the last page.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	size := clampSize(q.Size)

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}

	totalPage := int((total + int64(size) - 1) / int64(size))
	page := q.Page
	switch {
	case page < 1 || totalPage == 0:
		page = 1
	case page > totalPage:
		page = totalPage
	}

	if total == 0 {
		*dest = []T{}
	} else if err := db.Offset((page - 1) * size).Limit(size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	return response.Pagination{
		Total:       total,
		CurrentPage: page,
		TotalPage:   totalPage,
		Size:        size,
		HasNextPage: page < totalPage,
		HasPrevPage: page > 1,
	}, nil
}

func clampSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}
