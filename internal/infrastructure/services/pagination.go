package services

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
)

// PageOptions bounds page sizes.
type PageOptions struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPageOptions returns the page bounds used by the API.
func DefaultPageOptions() PageOptions {
	return PageOptions{DefaultSize: 20, MaxSize: 200}
}

// Page is the envelope returned for paginated listings.
type Page struct {
	Data        any  `json:"data"`
	Page        int  `json:"page"`
	Size        int  `json:"size"`
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// Paginate slices items according to the "page" and "size" query values.
// Invalid values fall back to the first page and the default size.
func Paginate[T any](items []T, opts PageOptions, qp map[string]string) Page {
	offset, limit, page := resolveSliceBounds(opts, qp)

	total := len(items)
	start := min(offset, total)
	end := min(start+limit, total)

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	data := make([]T, end-start)
	copy(data, items[start:end])

	return Page{
		Data:        data,
		Page:        page,
		Size:        limit,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     end < total,
		HasPrevious: page > 1,
	}
}

func resolveSliceBounds(opts PageOptions, qp map[string]string) (offset, limit, page int) {
	limit = opts.DefaultSize
	page = 1
	if v, ok := qp["page"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			page = n
		}
	}
	if v, ok := qp["size"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if opts.MaxSize > 0 && limit > opts.MaxSize {
		limit = opts.MaxSize
	}
	if limit <= 0 {
		limit = 10
	}
	return (page - 1) * limit, limit, page
}

// Select evaluates a JSONPath expression against the JSON form of doc.
// "$" or an empty path returns the whole document.
func Select(doc any, path string) (any, error) {
	tree, err := toJSONTree(doc)
	if err != nil {
		return nil, err
	}
	if path == "" || path == "$" {
		return tree, nil
	}
	out, err := jsonpath.Get(path, tree)
	if err != nil {
		return nil, fmt.Errorf("jsonpath extraction failed: %w", err)
	}
	return out, nil
}

// toJSONTree converts a struct to the generic map/slice form jsonpath walks.
func toJSONTree(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return tree, nil
}
