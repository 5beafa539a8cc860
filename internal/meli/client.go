// Package meli provides a MercadoLibre API client abstracted behind
// interfaces for testability. It covers the OAuth token endpoint (code
// exchange and refresh) and the seller-facing resource endpoints used by
// the sync engine: item search, item detail, and order search.
package meli

import (
	"context"
	"time"
)

// Client defines the interface for the MercadoLibre resource API. All
// methods take the bearer token explicitly; token lifecycle is the
// caller's concern.
type Client interface {
	// SearchItemIDs pages through the seller's active listings and
	// returns one page of item IDs.
	SearchItemIDs(ctx context.Context, token, sellerID string, limit, offset int) (*ItemSearchResult, error)

	// GetItem fetches the full detail record for one listing.
	GetItem(ctx context.Context, token, itemID string) (*Item, error)

	// SearchOrders pages through the seller's orders created at or after
	// from, newest paging semantics per the orders/search endpoint.
	SearchOrders(ctx context.Context, token, sellerID string, from time.Time, limit, offset int) (*OrderSearchResult, error)
}

// OAuth defines the interface for the MercadoLibre OAuth token endpoint.
type OAuth interface {
	// AuthorizationURL returns the provider authorization redirect URL
	// embedding the given opaque CSRF state.
	AuthorizationURL(state string) string

	// Exchange trades an authorization code for a token set.
	Exchange(ctx context.Context, code string) (*TokenResponse, error)

	// Refresh trades a refresh token for a new token set. Providers may
	// rotate the refresh token; callers must persist the returned one.
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
}
