package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/facuhernandez/melitrack/internal/store"
	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// ListingsProvider defines the store methods required by the listings handler.
type ListingsProvider interface {
	ListListings(ctx context.Context, q *store.ListingQuery) ([]domain.Listing, int, error)
}

// ListingsHandler handles listing query endpoints.
type ListingsHandler struct {
	store ListingsProvider
}

// NewListingsHandler creates a new ListingsHandler.
func NewListingsHandler(s ListingsProvider) *ListingsHandler {
	return &ListingsHandler{store: s}
}

// ListListingsInput is the input for listing synced publications.
type ListListingsInput struct {
	UserID     string  `path:"user_id"       doc:"Local user identifier"`
	Status     string  `query:"status"       doc:"Filter by listing status"        enum:"active,paused,closed,"`
	CategoryID string  `query:"category_id"  doc:"Filter by category"`
	MinPrice   float64 `query:"min_price"    doc:"Minimum price"                   minimum:"0"`
	MaxPrice   float64 `query:"max_price"    doc:"Maximum price"                   minimum:"0"`
	Limit      int     `query:"limit"        doc:"Number of results (default 50)"  minimum:"1" maximum:"500"`
	Offset     int     `query:"offset"       doc:"Pagination offset"               minimum:"0"`
	OrderBy    string  `query:"order_by"     doc:"Sort field"                      enum:"price,sold_quantity,last_updated,"`
}

// ListListingsOutput is the response for listing publications.
type ListListingsOutput struct {
	Body struct {
		Listings []domain.Listing `json:"listings"`
		Total    int              `json:"total"`
		Limit    int              `json:"limit"`
		Offset   int              `json:"offset"`
	}
}

// ListListings returns the user's synced publications with optional
// status, category, and price filters.
func (h *ListingsHandler) ListListings(
	ctx context.Context,
	input *ListListingsInput,
) (*ListListingsOutput, error) {
	q := &store.ListingQuery{
		UserID:  input.UserID,
		Offset:  input.Offset,
		OrderBy: input.OrderBy,
	}

	if input.Status != "" {
		q.Status = &input.Status
	}

	if input.CategoryID != "" {
		q.CategoryID = &input.CategoryID
	}

	if input.MinPrice != 0 {
		q.MinPrice = &input.MinPrice
	}

	if input.MaxPrice != 0 {
		q.MaxPrice = &input.MaxPrice
	}

	if input.Limit != 0 {
		q.Limit = input.Limit
	}

	listings, total, err := h.store.ListListings(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing query failed: " + err.Error())
	}

	if listings == nil {
		listings = []domain.Listing{}
	}

	resp := &ListListingsOutput{}
	resp.Body.Listings = listings
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset

	return resp, nil
}

// RegisterListingRoutes registers listing endpoints with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/accounts/{user_id}/listings",
		Summary:     "List synced publications",
		Description: "Returns the user's mirrored catalog with optional status, category, price, and pagination filters.",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListListings)
}
