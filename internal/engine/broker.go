package engine

import (
	"context"
	"errors"
	"time"

	"github.com/facuhernandez/melitrack/internal/metrics"
	"github.com/facuhernandez/melitrack/internal/store"
)

// AccessToken returns a valid access token for a user, refreshing it
// against the provider when expired. Concurrent calls for the same user
// collapse into one underlying lookup-and-refresh, so at most one
// refresh POST is ever in flight per user; every caller observes the
// same result.
//
// Absence of a token is reported as an empty string, never an error:
// no account, a failed refresh, and a canceled context all degrade to
// "" so callers can treat the user as not connected and skip the cycle.
func (e *Engine) AccessToken(ctx context.Context, userID string) string {
	v, _, _ := e.refreshGroup.Do(userID, func() (any, error) {
		return e.loadOrRefreshToken(ctx, userID), nil
	})

	token, ok := v.(string)
	if !ok {
		return ""
	}
	return token
}

func (e *Engine) loadOrRefreshToken(ctx context.Context, userID string) string {
	account, err := e.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.log.Debug("no account for user", "user_id", userID)
		} else {
			e.log.Error("loading account failed", "user_id", userID, "error", err)
		}
		return ""
	}

	now := e.nowFunc()
	if !account.Expired(now) {
		return account.AccessToken
	}

	tctx, cancel := e.tokenCtx(ctx)
	defer cancel()

	resp, err := e.oauth.Refresh(tctx, account.RefreshToken)
	if err != nil {
		metrics.TokenRefreshFailuresTotal.Inc()
		e.log.Error("token refresh failed", "user_id", userID, "error", err)
		return ""
	}

	// The provider rotates refresh tokens; the new one must replace the
	// stored one or the next refresh fails with invalid_grant. An empty
	// refresh token in the response means no rotation happened.
	refreshToken := resp.RefreshToken
	if refreshToken == "" {
		refreshToken = account.RefreshToken
	}

	expiresAt := now.Add(time.Duration(resp.ExpiresIn) * time.Second)

	if err := e.store.UpdateAccountTokens(
		ctx, userID, resp.AccessToken, refreshToken, expiresAt,
	); err != nil {
		// The new token is valid even if persisting it failed; use it
		// for this cycle and let the next call retry the write.
		e.log.Error("persisting refreshed tokens failed", "user_id", userID, "error", err)
	}

	metrics.TokenRefreshesTotal.Inc()
	e.log.Info("access token refreshed", "user_id", userID, "expires_at", expiresAt)

	return resp.AccessToken
}
