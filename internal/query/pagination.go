package query

import "paywatch/transaction-api/internal/domain"

// Defaults applied when a listing request omits or zeroes its paging params.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Window is an offset window plus the pagination envelope describing it.
type Window struct {
	Skip     int
	Limit    int
	PageInfo domain.PageInfo
}

// Paginate converts a page/limit request into an offset window.
//
// Non-positive page and limit fall back to the defaults, so Skip is never
// negative. Pages is ceil(total/limit) and 0 for an empty result set; a
// page beyond the last one produces a window past the end, which the store
// answers with zero rows rather than an error.
func Paginate(total, page, limit int) Window {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}

	return Window{
		Skip:  (page - 1) * limit,
		Limit: limit,
		PageInfo: domain.PageInfo{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: pages,
		},
	}
}
