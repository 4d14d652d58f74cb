package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lokalo/boostrank/internal/featured"
	"github.com/lokalo/boostrank/internal/middleware"
)

// Pagination bounds for the rankings endpoint.
const (
	MaxPageSize     = 50
	DefaultPageSize = 20
)

// RankingHandlers holds dependencies for the ranked listing HTTP handlers.
type RankingHandlers struct {
	service *featured.Service
}

// NewRankingHandlers creates a new RankingHandlers instance.
func NewRankingHandlers(service *featured.Service) *RankingHandlers {
	return &RankingHandlers{service: service}
}

// Rankings handles GET /rankings - returns one page of ranked listings
// for a viewer, sponsored results first.
//
// Query parameters:
//   - viewer_id (required)
//   - page (optional, 1-based, default 1)
//   - page_size (optional, default 20, max 50)
func (h *RankingHandlers) Rankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()

	viewerID := strings.TrimSpace(query.Get("viewer_id"))
	if viewerID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "viewer_id is required")
		return
	}

	page := 1
	if pageStr := query.Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "page must be a positive integer")
			return
		}
		page = parsed
	}

	pageSize := DefaultPageSize
	if sizeStr := query.Get("page_size"); sizeStr != "" {
		parsed, err := strconv.Atoi(sizeStr)
		if err != nil || parsed < 1 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "page_size must be a positive integer")
			return
		}
		if parsed > MaxPageSize {
			parsed = MaxPageSize
		}
		pageSize = parsed
	}

	result, err := h.service.GetRankedPage(r.Context(), viewerID, page, pageSize)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		slog.ErrorContext(ctx, "failed to build ranked page", "viewer_id", viewerID, "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to build rankings")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode rankings response", "error", err)
	}
}
