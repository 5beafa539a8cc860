package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facuhernandez/melitrack/internal/api/handlers"
	"github.com/facuhernandez/melitrack/internal/statecache"
	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// fakeAccountFlow is a test double for handlers.AccountFlow.
type fakeAccountFlow struct {
	connect               func(ctx context.Context, userID string) (string, error)
	verifyState           func(ctx context.Context, state string) (string, error)
	completeAuthorization func(ctx context.Context, userID, code string) (*domain.Account, error)
	status                func(ctx context.Context, userID string) (domain.ConnectionStatus, error)
}

func (f *fakeAccountFlow) Connect(ctx context.Context, userID string) (string, error) {
	return f.connect(ctx, userID)
}

func (f *fakeAccountFlow) VerifyState(ctx context.Context, state string) (string, error) {
	return f.verifyState(ctx, state)
}

func (f *fakeAccountFlow) CompleteAuthorization(
	ctx context.Context,
	userID, code string,
) (*domain.Account, error) {
	return f.completeAuthorization(ctx, userID, code)
}

func (f *fakeAccountFlow) Status(
	ctx context.Context,
	userID string,
) (domain.ConnectionStatus, error) {
	return f.status(ctx, userID)
}

func TestConnect_ReturnsURLAndState(t *testing.T) {
	t.Parallel()

	flow := &fakeAccountFlow{
		connect: func(_ context.Context, userID string) (string, error) {
			assert.Equal(t, "user-1", userID)
			return "https://auth.mercadolibre.com.ar/authorization?response_type=code&state=abc-123", nil
		},
	}
	h := handlers.NewAccountsHandler(flow)

	_, api := humatest.New(t)
	handlers.RegisterAccountRoutes(api, h)

	resp := api.Post("/api/v1/connect", map[string]any{"user_id": "user-1"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "https://auth.mercadolibre.com.ar/authorization")
	assert.Contains(t, resp.Body.String(), `"state":"abc-123"`)
}

func TestConnect_MissingUserID(t *testing.T) {
	t.Parallel()

	h := handlers.NewAccountsHandler(&fakeAccountFlow{})

	_, api := humatest.New(t)
	handlers.RegisterAccountRoutes(api, h)

	resp := api.Post("/api/v1/connect", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestConnect_Error(t *testing.T) {
	t.Parallel()

	flow := &fakeAccountFlow{
		connect: func(context.Context, string) (string, error) {
			return "", errors.New("redis down")
		},
	}
	h := handlers.NewAccountsHandler(flow)

	_, api := humatest.New(t)
	handlers.RegisterAccountRoutes(api, h)

	resp := api.Post("/api/v1/connect", map[string]any{"user_id": "user-1"})
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "starting connection failed")
}

func TestCallback_Success(t *testing.T) {
	t.Parallel()

	flow := &fakeAccountFlow{
		verifyState: func(_ context.Context, state string) (string, error) {
			assert.Equal(t, "abc-123", state)
			return "user-1", nil
		},
		completeAuthorization: func(_ context.Context, userID, code string) (*domain.Account, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, "TG-code-1", code)
			return &domain.Account{
				ID:         "acc-1",
				UserID:     userID,
				MeliUserID: "123456789",
				ExpiresAt:  time.Now().Add(6 * time.Hour),
			}, nil
		},
	}
	h := handlers.NewAccountsHandler(flow)

	_, api := humatest.New(t)
	handlers.RegisterAccountRoutes(api, h)

	resp := api.Get("/api/v1/callback?code=TG-code-1&state=abc-123")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"connected"`)
	assert.Contains(t, resp.Body.String(), `"meli_user_id":"123456789"`)
}

func TestCallback_UnknownState(t *testing.T) {
	t.Parallel()

	flow := &fakeAccountFlow{
		verifyState: func(context.Context, string) (string, error) {
			return "", statecache.ErrStateNotFound
		},
	}
	h := handlers.NewAccountsHandler(flow)

	_, api := humatest.New(t)
	handlers.RegisterAccountRoutes(api, h)

	resp := api.Get("/api/v1/callback?code=TG-code-1&state=stale")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "unknown or expired state")
}

func TestCallback_UserMismatch(t *testing.T) {
	t.Parallel()

	flow := &fakeAccountFlow{
		verifyState: func(context.Context, string) (string, error) {
			return "user-1", nil
		},
	}
	h := handlers.NewAccountsHandler(flow)

	_, api := humatest.New(t)
	handlers.RegisterAccountRoutes(api, h)

	resp := api.Get("/api/v1/callback?code=TG-code-1&state=abc-123&user_id=user-2")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "different user")
}

func TestCallback_ExchangeFailure(t *testing.T) {
	t.Parallel()

	flow := &fakeAccountFlow{
		verifyState: func(context.Context, string) (string, error) {
			return "user-1", nil
		},
		completeAuthorization: func(context.Context, string, string) (*domain.Account, error) {
			return nil, errors.New("token endpoint error (status 400): invalid_grant")
		},
	}
	h := handlers.NewAccountsHandler(flow)

	_, api := humatest.New(t)
	handlers.RegisterAccountRoutes(api, h)

	resp := api.Get("/api/v1/callback?code=TG-bad&state=abc-123")
	require.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Contains(t, resp.Body.String(), "completing authorization failed")
}

func TestStatus_Endpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status domain.ConnectionStatus
	}{
		{name: "connected", status: domain.StatusConnected},
		{name: "pending", status: domain.StatusPending},
		{name: "disconnected", status: domain.StatusDisconnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flow := &fakeAccountFlow{
				status: func(_ context.Context, userID string) (domain.ConnectionStatus, error) {
					assert.Equal(t, "user-1", userID)
					return tt.status, nil
				},
			}
			h := handlers.NewAccountsHandler(flow)

			_, api := humatest.New(t)
			handlers.RegisterAccountRoutes(api, h)

			resp := api.Get("/api/v1/accounts/user-1/status")
			require.Equal(t, http.StatusOK, resp.Code)
			assert.Contains(t, resp.Body.String(), `"status":"`+string(tt.status)+`"`)
		})
	}
}

func TestStatus_Error(t *testing.T) {
	t.Parallel()

	flow := &fakeAccountFlow{
		status: func(context.Context, string) (domain.ConnectionStatus, error) {
			return "", errors.New("db error")
		},
	}
	h := handlers.NewAccountsHandler(flow)

	_, api := humatest.New(t)
	handlers.RegisterAccountRoutes(api, h)

	resp := api.Get("/api/v1/accounts/user-1/status")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "resolving status failed")
}
