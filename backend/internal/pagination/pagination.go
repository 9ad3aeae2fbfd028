// Package pagination turns loosely-typed list query input into bounded, typed
// options shared by every paginated graph query.
package pagination

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"social-graph/backend/internal/constants"
)

// Sort directions accepted by list queries.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// maxPage keeps (page-1)*limit within int32 for every accepted limit.
const maxPage = math.MaxInt32 / constants.MaxPageSize

// reserved keys are consumed by Normalize; anything else is kept as a filter.
var reserved = map[string]struct{}{
	"sort":   {},
	"page":   {},
	"limit":  {},
	"search": {},
}

// Options is the normalized form of a list request.
type Options struct {
	Sort    string
	Page    int
	Limit   int
	Skip    int
	Search  *string
	Filters map[string]any
}

// Pagination is the metadata returned alongside every paginated list.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Response is the envelope for paginated lists.
type Response[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Default returns the options produced by an empty request.
func Default() Options {
	return Normalize(nil)
}

// Normalize never fails: malformed or missing values fall back to defaults and
// out-of-range values are clamped.
func Normalize(raw map[string]any) Options {
	page := toInt(raw["page"], constants.DefaultPage)
	if page < 1 {
		page = constants.DefaultPage
	}
	if page > maxPage {
		page = maxPage
	}

	limit := toInt(raw["limit"], constants.DefaultPageSize)
	if limit < 1 {
		limit = constants.DefaultPageSize
	}
	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}

	opts := Options{
		Sort:    SortDesc,
		Page:    page,
		Limit:   limit,
		Skip:    (page - 1) * limit,
		Filters: map[string]any{},
	}

	if s, ok := raw["sort"].(string); ok && strings.EqualFold(strings.TrimSpace(s), SortAsc) {
		opts.Sort = SortAsc
	}

	if s, ok := raw["search"].(string); ok {
		if term := strings.ToLower(strings.TrimSpace(s)); term != "" {
			opts.Search = &term
		}
	}

	for k, v := range raw {
		if _, skip := reserved[k]; !skip {
			opts.Filters[k] = v
		}
	}

	return opts
}

// FromValues normalizes URL query values. Repeated keys keep their first value.
func FromValues(values url.Values) Options {
	raw := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			raw[k] = vs[0]
		}
	}
	return Normalize(raw)
}

// Params returns the query parameters every paginated template binds.
func (o Options) Params() map[string]any {
	params := map[string]any{
		"skip":  int64(o.Skip),
		"limit": int64(o.Limit),
	}
	if o.Search != nil {
		params["search"] = *o.Search
	} else {
		params["search"] = nil
	}
	return params
}

// Meta builds the response metadata for a result set of total items.
func (o Options) Meta(total int64) Pagination {
	return Pagination{Page: o.Page, Limit: o.Limit, Total: total}
}

func toInt(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return clampInt64(int64(n))
	case int32:
		return int(n)
	case int64:
		return clampInt64(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fallback
		}
		if n > math.MaxInt32 {
			return math.MaxInt32
		}
		if n < math.MinInt32 {
			return math.MinInt32
		}
		return int(n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return fallback
		}
		// ParseInt saturates out-of-range input at the int64 bounds.
		return clampInt64(i)
	default:
		return fallback
	}
}

func clampInt64(n int64) int {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < math.MinInt32 {
		return math.MinInt32
	}
	return int(n)
}
