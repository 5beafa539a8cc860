// Package domain defines the core business types for melitrack.
package domain

import "time"

// ConnectionStatus describes the link between a local user and a
// MercadoLibre seller account.
type ConnectionStatus string

// Connection status constants.
const (
	// StatusConnected means an Account with tokens exists.
	StatusConnected ConnectionStatus = "connected"
	// StatusPending means an authorization code was received but the
	// token has not been materialized into an Account yet.
	StatusPending ConnectionStatus = "pending"
	// StatusDisconnected means neither an Account nor a pending code exists.
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Account holds the OAuth credential set linking one local user to one
// MercadoLibre seller identity. At most one Account exists per user;
// writes are upserts keyed on user_id.
type Account struct {
	ID           string    `json:"id"           db:"id"`
	UserID       string    `json:"user_id"      db:"user_id"`
	MeliUserID   string    `json:"meli_user_id" db:"meli_user_id"`
	AccessToken  string    `json:"-"            db:"access_token"`
	RefreshToken string    `json:"-"            db:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"   db:"expires_at"`
	CreatedAt    time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"   db:"updated_at"`
}

// Expired reports whether the access token is past its expiry at t.
func (a *Account) Expired(t time.Time) bool {
	return !a.ExpiresAt.After(t)
}

// AuthCode is one row of the append-only authorization code log. Rows are
// written once per completed OAuth redirect and never mutated; the latest
// row signals "connection pending" when no Account exists yet.
type AuthCode struct {
	ID        string    `json:"id"         db:"id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	Code      string    `json:"code"       db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Listing mirrors one remote catalog item for a user. Unique per
// (user_id, item_id); every sync cycle replaces all fields and bumps
// LastUpdated. Rows are never pruned when the remote item disappears.
type Listing struct {
	ID         string `json:"id"          db:"id"`
	UserID     string `json:"user_id"     db:"user_id"`
	ItemID     string `json:"item_id"     db:"item_id"`
	Title      string `json:"title"       db:"title"`
	CategoryID string `json:"category_id" db:"category_id"`

	Price             float64 `json:"price"              db:"price"`
	CurrencyID        string  `json:"currency_id"        db:"currency_id"`
	AvailableQuantity int     `json:"available_quantity" db:"available_quantity"`
	SoldQuantity      int     `json:"sold_quantity"      db:"sold_quantity"`

	ListingTypeID string `json:"listing_type_id"     db:"listing_type_id"`
	Status        string `json:"status"              db:"status"`
	Permalink     string `json:"permalink,omitempty" db:"permalink"`
	Thumbnail     string `json:"thumbnail,omitempty" db:"thumbnail"`

	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// Sale mirrors one remote order, flattened to a single row. Unique per
// (user_id, sale_id). Quantity is the sum of all line-item quantities;
// the publication fields carry the first line item's identity only.
type Sale struct {
	ID       string    `json:"id"        db:"id"`
	UserID   string    `json:"user_id"   db:"user_id"`
	SaleID   string    `json:"sale_id"   db:"sale_id"`
	SaleDate time.Time `json:"sale_date" db:"sale_date"`

	ShippingStatus string  `json:"shipping_status,omitempty" db:"shipping_status"`
	Quantity       int     `json:"quantity"                  db:"quantity"`
	TotalAmount    float64 `json:"total_amount"              db:"total_amount"`

	PublicationID    string  `json:"publication_id"    db:"publication_id"`
	PublicationTitle string  `json:"publication_title" db:"publication_title"`
	UnitPrice        float64 `json:"unit_price"        db:"unit_price"`

	BuyerNickname string `json:"buyer_nickname,omitempty" db:"buyer_nickname"`

	ShippingAddress string `json:"shipping_address,omitempty" db:"shipping_address"`
	ShippingCity    string `json:"shipping_city,omitempty"    db:"shipping_city"`
	ShippingState   string `json:"shipping_state,omitempty"   db:"shipping_state"`
	ShippingCountry string `json:"shipping_country,omitempty" db:"shipping_country"`
	ShippingZip     string `json:"shipping_zip,omitempty"     db:"shipping_zip"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Sync job names recorded in sync_runs.
const (
	JobCatalogSync = "catalog_sync"
	JobOrderSync   = "order_sync"
)

// SyncRun records a single execution of a sync job for one user.
type SyncRun struct {
	ID           string     `json:"id"                      db:"id"`
	UserID       string     `json:"user_id"                 db:"user_id"`
	JobName      string     `json:"job_name"                db:"job_name"`
	StartedAt    time.Time  `json:"started_at"              db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"  db:"completed_at"`
	Status       string     `json:"status"                  db:"status"`
	ErrorText    string     `json:"error_text,omitempty"    db:"error_text"`
	RowsAffected *int       `json:"rows_affected,omitempty" db:"rows_affected"`
}

// Sync run status values.
const (
	SyncRunRunning   = "running"
	SyncRunSucceeded = "succeeded"
	SyncRunFailed    = "failed"
)
