package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/facuhernandez/melitrack/internal/store"
	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// SalesProvider defines the store methods required by the sales handler.
type SalesProvider interface {
	ListSales(ctx context.Context, q *store.SaleQuery) ([]domain.Sale, int, error)
}

// SalesHandler handles sale query endpoints.
type SalesHandler struct {
	store SalesProvider
}

// NewSalesHandler creates a new SalesHandler.
func NewSalesHandler(s SalesProvider) *SalesHandler {
	return &SalesHandler{store: s}
}

// ListSalesInput is the input for listing synced sales.
type ListSalesInput struct {
	UserID string    `path:"user_id" doc:"Local user identifier"`
	From   time.Time `query:"from"   doc:"Only sales on or after this instant (RFC 3339)"`
	To     time.Time `query:"to"     doc:"Only sales before this instant (RFC 3339)"`
	Limit  int       `query:"limit"  doc:"Number of results (default 50)" minimum:"1" maximum:"500"`
	Offset int       `query:"offset" doc:"Pagination offset"              minimum:"0"`
}

// ListSalesOutput is the response for listing sales.
type ListSalesOutput struct {
	Body struct {
		Sales  []domain.Sale `json:"sales"`
		Total  int           `json:"total"`
		Limit  int           `json:"limit"`
		Offset int           `json:"offset"`
	}
}

// ListSales returns the user's synced sales, newest first.
func (h *SalesHandler) ListSales(
	ctx context.Context,
	input *ListSalesInput,
) (*ListSalesOutput, error) {
	q := &store.SaleQuery{
		UserID: input.UserID,
		Offset: input.Offset,
	}

	if !input.From.IsZero() {
		q.From = &input.From
	}

	if !input.To.IsZero() {
		q.To = &input.To
	}

	if input.Limit != 0 {
		q.Limit = input.Limit
	}

	sales, total, err := h.store.ListSales(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("sale query failed: " + err.Error())
	}

	if sales == nil {
		sales = []domain.Sale{}
	}

	resp := &ListSalesOutput{}
	resp.Body.Sales = sales
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset

	return resp, nil
}

// RegisterSaleRoutes registers sale endpoints with the Huma API.
func RegisterSaleRoutes(api huma.API, h *SalesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sales",
		Method:      http.MethodGet,
		Path:        "/api/v1/accounts/{user_id}/sales",
		Summary:     "List synced sales",
		Description: "Returns the user's mirrored sales ordered by sale date descending, with optional date range and pagination.",
		Tags:        []string{"sales"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListSales)
}
