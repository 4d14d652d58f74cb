package featured

import "github.com/lokalo/boostrank/internal/listing"

// Paginate slices the merged sequence into the requested 1-based page and
// fills in the page bookkeeping. totalCount is the length of the full merged
// sequence; callers holding only a window of it pass the true total so
// TotalPages stays correct. Featured entries occupy their natural position
// in the merged order and are never re-injected on later pages.
func Paginate(merged []listing.RankedResult, page, pageSize, totalCount int) *listing.RankedPage {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if totalCount < len(merged) {
		totalCount = len(merged)
	}

	totalPages := (totalCount + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(merged) {
		start = len(merged)
	}
	if end > len(merged) {
		end = len(merged)
	}

	results := merged[start:end]
	featuredCount := 0
	for _, r := range results {
		if r.Featured {
			featuredCount++
		}
	}

	return &listing.RankedPage{
		Page:          page,
		PageSize:      pageSize,
		TotalCount:    totalCount,
		TotalPages:    totalPages,
		FeaturedCount: featuredCount,
		Results:       results,
	}
}
