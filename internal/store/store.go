// Package store defines the datastore abstraction for melitrack.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables mock-based testing without a running database.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ListingQuery defines optional filters for listing queries.
type ListingQuery struct {
	UserID     string
	Status     *string
	CategoryID *string
	MinPrice   *float64
	MaxPrice   *float64
	Limit      int // default 50
	Offset     int
	OrderBy    string // "price", "sold_quantity", "last_updated"
}

// SaleQuery defines optional filters for sale queries.
type SaleQuery struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int // default 50
	Offset int
}

// Store defines all data access operations for melitrack.
type Store interface {
	// Accounts
	UpsertAccount(ctx context.Context, a *domain.Account) error
	GetAccount(ctx context.Context, userID string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateAccountTokens(
		ctx context.Context,
		userID, accessToken, refreshToken string,
		expiresAt time.Time,
	) error

	// Authorization code log (append-only)
	InsertAuthCode(ctx context.Context, c *domain.AuthCode) error
	GetLatestAuthCode(ctx context.Context, userID string) (*domain.AuthCode, error)

	// Listings
	UpsertListing(ctx context.Context, l *domain.Listing) error
	ListListings(ctx context.Context, opts *ListingQuery) ([]domain.Listing, int, error)

	// Sales
	UpsertSale(ctx context.Context, s *domain.Sale) error
	ListSales(ctx context.Context, opts *SaleQuery) ([]domain.Sale, int, error)

	// Sync runs
	InsertSyncRun(ctx context.Context, userID, jobName string) (id string, err error)
	CompleteSyncRun(ctx context.Context, id, status, errText string, rowsAffected int) error
	ListSyncRuns(ctx context.Context, userID, jobName string, limit int) ([]domain.SyncRun, error)
	GetLastCompletedSync(ctx context.Context, userID, jobName string) (*domain.SyncRun, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
