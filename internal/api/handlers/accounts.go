package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/facuhernandez/melitrack/internal/statecache"
	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// AccountFlow defines the engine operations the account handlers need.
type AccountFlow interface {
	Connect(ctx context.Context, userID string) (string, error)
	VerifyState(ctx context.Context, state string) (string, error)
	CompleteAuthorization(ctx context.Context, userID, code string) (*domain.Account, error)
	Status(ctx context.Context, userID string) (domain.ConnectionStatus, error)
}

// AccountsHandler handles OAuth connection endpoints.
type AccountsHandler struct {
	flow AccountFlow
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(flow AccountFlow) *AccountsHandler {
	return &AccountsHandler{flow: flow}
}

// --- Input/Output types ---

// ConnectInput is the request body for starting an OAuth connection.
type ConnectInput struct {
	Body struct {
		UserID string `json:"user_id" required:"true" minLength:"1" doc:"Local user identifier"`
	}
}

// ConnectOutput carries the provider authorization URL to redirect to.
type ConnectOutput struct {
	Body struct {
		AuthorizationURL string `json:"authorization_url" doc:"MercadoLibre authorization URL"`
		State            string `json:"state"             doc:"CSRF state embedded in the URL"`
	}
}

// CallbackInput is the OAuth redirect query.
type CallbackInput struct {
	Code   string `query:"code"    required:"true" doc:"Authorization code from the provider"`
	State  string `query:"state"   required:"true" doc:"CSRF state issued by connect"`
	UserID string `query:"user_id"                 doc:"Optional user check against the state"`
}

// CallbackOutput is the completed-authorization response.
type CallbackOutput struct {
	Body struct {
		Status  domain.ConnectionStatus `json:"status"`
		Account domain.Account          `json:"account"`
	}
}

// StatusInput identifies the user whose connection status is requested.
type StatusInput struct {
	UserID string `path:"user_id" doc:"Local user identifier"`
}

// StatusOutput reports the connection status for a user.
type StatusOutput struct {
	Body struct {
		UserID string                  `json:"user_id"`
		Status domain.ConnectionStatus `json:"status" enum:"connected,pending,disconnected"`
	}
}

// --- Handlers ---

// Connect starts the OAuth flow and returns the authorization URL.
func (h *AccountsHandler) Connect(
	ctx context.Context,
	input *ConnectInput,
) (*ConnectOutput, error) {
	authURL, err := h.flow.Connect(ctx, input.Body.UserID)
	if err != nil {
		return nil, huma.Error500InternalServerError("starting connection failed: " + err.Error())
	}

	resp := &ConnectOutput{}
	resp.Body.AuthorizationURL = authURL
	if parsed, err := url.Parse(authURL); err == nil {
		resp.Body.State = parsed.Query().Get("state")
	}

	return resp, nil
}

// Callback completes the OAuth flow: the CSRF state is consumed, the code
// exchanged for tokens, and the resulting account persisted.
func (h *AccountsHandler) Callback(
	ctx context.Context,
	input *CallbackInput,
) (*CallbackOutput, error) {
	userID, err := h.flow.VerifyState(ctx, input.State)
	if err != nil {
		if errors.Is(err, statecache.ErrStateNotFound) {
			return nil, huma.Error400BadRequest("unknown or expired state")
		}
		return nil, huma.Error500InternalServerError("verifying state failed: " + err.Error())
	}

	if input.UserID != "" && input.UserID != userID {
		return nil, huma.Error400BadRequest("state was issued for a different user")
	}

	account, err := h.flow.CompleteAuthorization(ctx, userID, input.Code)
	if err != nil {
		return nil, huma.Error502BadGateway("completing authorization failed: " + err.Error())
	}

	resp := &CallbackOutput{}
	resp.Body.Status = domain.StatusConnected
	resp.Body.Account = *account

	return resp, nil
}

// Status reports whether a user is connected, pending, or disconnected.
func (h *AccountsHandler) Status(
	ctx context.Context,
	input *StatusInput,
) (*StatusOutput, error) {
	status, err := h.flow.Status(ctx, input.UserID)
	if err != nil {
		return nil, huma.Error500InternalServerError("resolving status failed: " + err.Error())
	}

	resp := &StatusOutput{}
	resp.Body.UserID = input.UserID
	resp.Body.Status = status

	return resp, nil
}

// RegisterAccountRoutes registers account endpoints with the Huma API.
func RegisterAccountRoutes(api huma.API, h *AccountsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "connect-account",
		Method:      http.MethodPost,
		Path:        "/api/v1/connect",
		Summary:     "Start an OAuth connection",
		Description: "Issues a CSRF state and returns the MercadoLibre authorization URL to redirect the user to.",
		Tags:        []string{"accounts"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.Connect)

	huma.Register(api, huma.Operation{
		OperationID: "oauth-callback",
		Method:      http.MethodGet,
		Path:        "/api/v1/callback",
		Summary:     "Complete an OAuth connection",
		Description: "Consumes the CSRF state, exchanges the authorization code for tokens, and persists the account.",
		Tags:        []string{"accounts"},
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, h.Callback)

	huma.Register(api, huma.Operation{
		OperationID: "account-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/accounts/{user_id}/status",
		Summary:     "Get connection status",
		Description: "Returns connected, pending, or disconnected for the given user.",
		Tags:        []string{"accounts"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.Status)
}
