package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/facuhernandez/melitrack/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// UpsertAccount inserts or replaces the credential set for a user. Writes
// are keyed on user_id so at most one account exists per user.
func (s *PostgresStore) UpsertAccount(ctx context.Context, a *domain.Account) error {
	args := pgx.NamedArgs{
		"user_id":       a.UserID,
		"meli_user_id":  a.MeliUserID,
		"access_token":  a.AccessToken,
		"refresh_token": a.RefreshToken,
		"expires_at":    a.ExpiresAt,
	}

	return s.pool.QueryRow(ctx, queryUpsertAccount, args).Scan(
		&a.ID, &a.CreatedAt, &a.UpdatedAt,
	)
}

// GetAccount retrieves the account for a user, or ErrNotFound.
func (s *PostgresStore) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	a := &domain.Account{}
	err := s.pool.QueryRow(ctx, queryGetAccount, userID).Scan(
		&a.ID, &a.UserID, &a.MeliUserID, &a.AccessToken, &a.RefreshToken,
		&a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, "account")
	}
	return a, nil
}

// ListAccounts returns every linked account, oldest first.
func (s *PostgresStore) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.pool.Query(ctx, queryListAccounts)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.MeliUserID, &a.AccessToken, &a.RefreshToken,
			&a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}

	return accounts, nil
}

// UpdateAccountTokens replaces the token set for a user after a refresh.
func (s *PostgresStore) UpdateAccountTokens(
	ctx context.Context,
	userID, accessToken, refreshToken string,
	expiresAt time.Time,
) error {
	tag, err := s.pool.Exec(ctx, queryUpdateAccountTokens,
		userID, accessToken, refreshToken, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("updating account tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", userID, ErrNotFound)
	}
	return nil
}

// InsertAuthCode appends one row to the authorization code log.
func (s *PostgresStore) InsertAuthCode(ctx context.Context, c *domain.AuthCode) error {
	args := pgx.NamedArgs{
		"user_id": c.UserID,
		"code":    c.Code,
	}

	return s.pool.QueryRow(ctx, queryInsertAuthCode, args).Scan(&c.ID, &c.CreatedAt)
}

// GetLatestAuthCode retrieves the most recent authorization code for a
// user, or ErrNotFound when none was ever logged.
func (s *PostgresStore) GetLatestAuthCode(
	ctx context.Context,
	userID string,
) (*domain.AuthCode, error) {
	c := &domain.AuthCode{}
	err := s.pool.QueryRow(ctx, queryGetLatestAuthCode, userID).Scan(
		&c.ID, &c.UserID, &c.Code, &c.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, "auth code")
	}
	return c, nil
}

// UpsertListing inserts or updates a listing by (user_id, item_id).
func (s *PostgresStore) UpsertListing(ctx context.Context, l *domain.Listing) error {
	args := pgx.NamedArgs{
		"user_id":            l.UserID,
		"item_id":            l.ItemID,
		"title":              l.Title,
		"category_id":        l.CategoryID,
		"price":              l.Price,
		"currency_id":        l.CurrencyID,
		"available_quantity": l.AvailableQuantity,
		"sold_quantity":      l.SoldQuantity,
		"listing_type_id":    l.ListingTypeID,
		"status":             l.Status,
		"permalink":          l.Permalink,
		"thumbnail":          l.Thumbnail,
	}

	return s.pool.QueryRow(ctx, queryUpsertListing, args).Scan(&l.ID, &l.LastUpdated)
}

// ListListings queries listings with optional filters, returning results and total count.
func (s *PostgresStore) ListListings(
	ctx context.Context,
	opts *ListingQuery,
) ([]domain.Listing, int, error) {
	dataSQL, countSQL, args := opts.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting listings: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.ItemID, &l.Title, &l.CategoryID,
			&l.Price, &l.CurrencyID, &l.AvailableQuantity, &l.SoldQuantity,
			&l.ListingTypeID, &l.Status, &l.Permalink, &l.Thumbnail,
			&l.LastUpdated,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating listings: %w", err)
	}

	return listings, total, nil
}

// UpsertSale inserts or updates a sale by (user_id, sale_id).
func (s *PostgresStore) UpsertSale(ctx context.Context, sale *domain.Sale) error {
	args := pgx.NamedArgs{
		"user_id":           sale.UserID,
		"sale_id":           sale.SaleID,
		"sale_date":         sale.SaleDate,
		"shipping_status":   sale.ShippingStatus,
		"quantity":          sale.Quantity,
		"total_amount":      sale.TotalAmount,
		"publication_id":    sale.PublicationID,
		"publication_title": sale.PublicationTitle,
		"unit_price":        sale.UnitPrice,
		"buyer_nickname":    sale.BuyerNickname,
		"shipping_address":  sale.ShippingAddress,
		"shipping_city":     sale.ShippingCity,
		"shipping_state":    sale.ShippingState,
		"shipping_country":  sale.ShippingCountry,
		"shipping_zip":      sale.ShippingZip,
	}

	return s.pool.QueryRow(ctx, queryUpsertSale, args).Scan(&sale.ID, &sale.UpdatedAt)
}

// ListSales queries sales with optional date range filters, returning
// results and total count.
func (s *PostgresStore) ListSales(
	ctx context.Context,
	opts *SaleQuery,
) ([]domain.Sale, int, error) {
	dataSQL, countSQL, args := opts.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting sales: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying sales: %w", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(
			&sale.ID, &sale.UserID, &sale.SaleID, &sale.SaleDate, &sale.ShippingStatus,
			&sale.Quantity, &sale.TotalAmount,
			&sale.PublicationID, &sale.PublicationTitle, &sale.UnitPrice,
			&sale.BuyerNickname,
			&sale.ShippingAddress, &sale.ShippingCity, &sale.ShippingState,
			&sale.ShippingCountry, &sale.ShippingZip,
			&sale.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating sales: %w", err)
	}

	return sales, total, nil
}

// InsertSyncRun records the start of a sync job run.
func (s *PostgresStore) InsertSyncRun(
	ctx context.Context,
	userID, jobName string,
) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, queryInsertSyncRun, userID, jobName).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("inserting sync run: %w", err)
	}
	return id, nil
}

// CompleteSyncRun finalizes a sync run with its terminal status.
func (s *PostgresStore) CompleteSyncRun(
	ctx context.Context,
	id, status, errText string,
	rowsAffected int,
) error {
	_, err := s.pool.Exec(ctx, queryCompleteSyncRun, id, status, errText, rowsAffected)
	if err != nil {
		return fmt.Errorf("completing sync run: %w", err)
	}
	return nil
}

// ListSyncRuns returns recent sync runs for a user, newest first. An
// empty jobName matches all jobs.
func (s *PostgresStore) ListSyncRuns(
	ctx context.Context,
	userID, jobName string,
	limit int,
) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.pool.Query(ctx, queryListSyncRuns, userID, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun
	for rows.Next() {
		var r domain.SyncRun
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.JobName, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.ErrorText, &r.RowsAffected,
		); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync runs: %w", err)
	}

	return runs, nil
}

// GetLastCompletedSync returns the most recent succeeded run of a job
// for a user, or ErrNotFound when the job never succeeded.
func (s *PostgresStore) GetLastCompletedSync(
	ctx context.Context,
	userID, jobName string,
) (*domain.SyncRun, error) {
	r := &domain.SyncRun{}
	err := s.pool.QueryRow(ctx, queryGetLastCompletedSync, userID, jobName).Scan(
		&r.ID, &r.UserID, &r.JobName, &r.StartedAt, &r.CompletedAt,
		&r.Status, &r.ErrorText, &r.RowsAffected,
	)
	if err != nil {
		return nil, mapNotFound(err, "sync run")
	}
	return r, nil
}

func mapNotFound(err error, entity string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return err
}
