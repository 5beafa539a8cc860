package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/facuhernandez/melitrack/internal/engine"
)

// Syncer defines the engine operations the sync trigger handler needs.
type Syncer interface {
	SyncCatalog(ctx context.Context, userID string) int
	SyncOrders(ctx context.Context, userID string) (int, error)
}

// SyncHandler handles manual sync trigger requests.
type SyncHandler struct {
	syncer Syncer
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(s Syncer) *SyncHandler {
	return &SyncHandler{syncer: s}
}

// TriggerSyncInput selects what to sync for a user.
type TriggerSyncInput struct {
	UserID string `path:"user_id" doc:"Local user identifier"`
	Body   struct {
		Target string `json:"target,omitempty" enum:"catalog,orders,all," doc:"What to sync (default all)"`
	}
}

// TriggerSyncOutput reports how many rows each sync leg wrote.
type TriggerSyncOutput struct {
	Body struct {
		Target           string `json:"target"`
		ListingsUpserted int    `json:"listings_upserted"`
		SalesUpserted    int    `json:"sales_upserted"`
	}
}

// TriggerSync runs the requested sync legs inline and reports row counts.
// Order sync failures surface to the caller; catalog sync never fails,
// partial cycles simply report fewer rows.
func (h *SyncHandler) TriggerSync(
	ctx context.Context,
	input *TriggerSyncInput,
) (*TriggerSyncOutput, error) {
	target := input.Body.Target
	if target == "" {
		target = "all"
	}

	resp := &TriggerSyncOutput{}
	resp.Body.Target = target

	if target == "catalog" || target == "all" {
		resp.Body.ListingsUpserted = h.syncer.SyncCatalog(ctx, input.UserID)
	}

	if target == "orders" || target == "all" {
		upserted, err := h.syncer.SyncOrders(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, engine.ErrNotConnected) {
				return nil, huma.Error409Conflict("account not connected")
			}
			return nil, huma.Error500InternalServerError("order sync failed: " + err.Error())
		}
		resp.Body.SalesUpserted = upserted
	}

	return resp, nil
}

// RegisterSyncRoutes registers the sync trigger endpoint with the Huma API.
func RegisterSyncRoutes(api huma.API, h *SyncHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-sync",
		Method:      http.MethodPost,
		Path:        "/api/v1/accounts/{user_id}/sync",
		Summary:     "Trigger a sync",
		Description: "Runs catalog sync, order sync, or both for the given user and returns row counts.",
		Tags:        []string{"sync"},
		Errors:      []int{http.StatusConflict, http.StatusInternalServerError},
	}, h.TriggerSync)
}
