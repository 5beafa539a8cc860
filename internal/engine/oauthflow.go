package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/facuhernandez/melitrack/internal/metrics"
	"github.com/facuhernandez/melitrack/internal/store"
	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// Connect starts the OAuth flow for a user. It issues a random CSRF
// state, stores it with a TTL, and returns the provider authorization
// URL the caller should redirect to.
func (e *Engine) Connect(ctx context.Context, userID string) (string, error) {
	state := uuid.NewString()

	if err := e.cache.SetAuthState(ctx, state, userID, e.stateTTL); err != nil {
		return "", fmt.Errorf("storing oauth state: %w", err)
	}

	return e.oauth.AuthorizationURL(state), nil
}

// VerifyState consumes the CSRF state from the callback redirect and
// returns the user it was issued for. States are one-shot; a second
// callback with the same state fails.
func (e *Engine) VerifyState(ctx context.Context, state string) (string, error) {
	userID, err := e.cache.TakeAuthState(ctx, state)
	if err != nil {
		return "", fmt.Errorf("verifying oauth state: %w", err)
	}
	return userID, nil
}

// CompleteAuthorization exchanges an authorization code for tokens and
// persists the resulting account. The account upsert is keyed on the
// user, so a second authorization overwrites rather than duplicates.
// The code is also appended to the audit log, and any cached
// "disconnected" status is cleared.
func (e *Engine) CompleteAuthorization(
	ctx context.Context,
	userID, code string,
) (*domain.Account, error) {
	tctx, cancel := e.tokenCtx(ctx)
	defer cancel()

	resp, err := e.oauth.Exchange(tctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	metrics.TokenExchangesTotal.Inc()

	account := &domain.Account{
		UserID:       userID,
		MeliUserID:   strconv.FormatInt(resp.UserID, 10),
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    e.nowFunc().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}

	if err := e.store.UpsertAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("persisting account: %w", err)
	}

	authCode := &domain.AuthCode{UserID: userID, Code: code}
	if err := e.store.InsertAuthCode(ctx, authCode); err != nil {
		// The account is already persisted; a missing audit row is not
		// worth failing the whole authorization over.
		e.log.Error("appending auth code log failed", "user_id", userID, "error", err)
	}

	if err := e.cache.ClearStatus(ctx, userID); err != nil {
		e.log.Warn("clearing cached status failed", "user_id", userID, "error", err)
	}

	e.log.Info("account connected",
		"user_id", userID,
		"meli_user_id", account.MeliUserID,
		"expires_at", account.ExpiresAt,
	)

	return account, nil
}

// Status reports the connection state for a user: connected when an
// account exists, pending when only an authorization code was logged,
// disconnected otherwise. Results are cached with the state TTL.
func (e *Engine) Status(ctx context.Context, userID string) (domain.ConnectionStatus, error) {
	if cached, ok, err := e.cache.GetStatus(ctx, userID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		e.log.Warn("reading cached status failed", "user_id", userID, "error", err)
	}

	status, err := e.lookupStatus(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := e.cache.SetStatus(ctx, userID, status, e.stateTTL); err != nil {
		e.log.Warn("caching status failed", "user_id", userID, "error", err)
	}

	return status, nil
}

func (e *Engine) lookupStatus(
	ctx context.Context,
	userID string,
) (domain.ConnectionStatus, error) {
	_, err := e.store.GetAccount(ctx, userID)
	if err == nil {
		return domain.StatusConnected, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("loading account: %w", err)
	}

	_, err = e.store.GetLatestAuthCode(ctx, userID)
	if err == nil {
		return domain.StatusPending, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("loading auth code: %w", err)
	}

	return domain.StatusDisconnected, nil
}
