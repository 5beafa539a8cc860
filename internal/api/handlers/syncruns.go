package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// SyncRunsProvider defines the store methods required by the sync runs handler.
type SyncRunsProvider interface {
	ListSyncRuns(ctx context.Context, userID, jobName string, limit int) ([]domain.SyncRun, error)
}

// SyncRunsHandler handles sync history requests.
type SyncRunsHandler struct {
	store SyncRunsProvider
}

// NewSyncRunsHandler creates a new SyncRunsHandler.
func NewSyncRunsHandler(s SyncRunsProvider) *SyncRunsHandler {
	return &SyncRunsHandler{store: s}
}

// ListSyncRunsInput is the input for listing a user's sync history.
type ListSyncRunsInput struct {
	UserID string `path:"user_id" doc:"Local user identifier"`
	Job    string `query:"job"    doc:"Filter by job name"                  enum:"catalog_sync,order_sync,"`
	Limit  int    `query:"limit"  doc:"Number of run records (default 20)"  minimum:"1" maximum:"100"`
}

// ListSyncRunsOutput is the response for listing sync runs.
type ListSyncRunsOutput struct {
	Body []domain.SyncRun
}

const defaultSyncRunLimit = 20

// ListSyncRuns returns a user's recent sync runs, newest first.
func (h *SyncRunsHandler) ListSyncRuns(
	ctx context.Context,
	input *ListSyncRunsInput,
) (*ListSyncRunsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = defaultSyncRunLimit
	}

	runs, err := h.store.ListSyncRuns(ctx, input.UserID, input.Job, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("fetching sync history failed: " + err.Error())
	}

	if runs == nil {
		runs = []domain.SyncRun{}
	}

	return &ListSyncRunsOutput{Body: runs}, nil
}

// RegisterSyncRunRoutes registers sync history endpoints with the Huma API.
func RegisterSyncRunRoutes(api huma.API, h *SyncRunsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sync-runs",
		Method:      http.MethodGet,
		Path:        "/api/v1/accounts/{user_id}/syncs",
		Summary:     "List sync runs",
		Description: "Returns the user's recent sync run records (newest first), optionally filtered by job name.",
		Tags:        []string{"sync"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListSyncRuns)
}
