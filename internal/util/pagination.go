package util

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PageMeta struct {
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

// Meta describes one page of a result set of total items.
func Meta(page, size, total int) PageMeta {
	if page < 1 {
		page = 1
	}
	_, size = Calculate(page, size)
	totalPages := 0
	if total > 0 {
		totalPages = (total + size - 1) / size
	}
	return PageMeta{
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

// Paginate slices items in memory. An out-of-range page yields an empty slice.
func Paginate[T any](items []T, page, size int) ([]T, PageMeta) {
	meta := Meta(page, size, len(items))
	from, limit := Calculate(meta.Page, meta.Size)
	if from >= len(items) {
		return []T{}, meta
	}
	end := from + limit
	if end > len(items) {
		end = len(items)
	}
	return items[from:end], meta
}
