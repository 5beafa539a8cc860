package meli

import "time"

// TokenResponse is the JSON body returned by POST /oauth/token for both
// the authorization_code and refresh_token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	UserID       int64  `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

// Paging holds the pagination block common to MercadoLibre search
// responses. Total is authoritative for orders/search; items/search
// callers use page length instead.
type Paging struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ItemSearchResult is the response of GET /users/{id}/items/search.
// Results carries item IDs only; details come from GET /items/{id}.
type ItemSearchResult struct {
	Results []string `json:"results"`
	Paging  Paging   `json:"paging"`
}

// Item is the detail record returned by GET /items/{id}.
type Item struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	CategoryID        string  `json:"category_id"`
	Price             float64 `json:"price"`
	CurrencyID        string  `json:"currency_id"`
	AvailableQuantity int     `json:"available_quantity"`
	SoldQuantity      int     `json:"sold_quantity"`
	ListingTypeID     string  `json:"listing_type_id"`
	Status            string  `json:"status"`
	Permalink         string  `json:"permalink"`
	Thumbnail         string  `json:"thumbnail"`
}

// OrderSearchResult is the response of GET /orders/search.
type OrderSearchResult struct {
	Results []Order `json:"results"`
	Paging  Paging  `json:"paging"`
}

// Order is one order record from the order search. Buyer and Shipping
// are optional nested structures; absence is not an error.
type Order struct {
	ID          int64       `json:"id"`
	DateCreated time.Time   `json:"date_created"`
	TotalAmount float64     `json:"total_amount"`
	OrderItems  []OrderItem `json:"order_items"`
	Buyer       *Buyer      `json:"buyer,omitempty"`
	Shipping    *Shipping   `json:"shipping,omitempty"`
}

// OrderItem is one line item within an order.
type OrderItem struct {
	Item      OrderItemDetail `json:"item"`
	Quantity  int             `json:"quantity"`
	UnitPrice float64         `json:"unit_price"`
}

// OrderItemDetail identifies the publication a line item was bought from.
type OrderItemDetail struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Buyer holds order buyer information.
type Buyer struct {
	Nickname string `json:"nickname"`
}

// Shipping holds order shipping information.
type Shipping struct {
	Status          string           `json:"status"`
	ReceiverAddress *ReceiverAddress `json:"receiver_address,omitempty"`
}

// ReceiverAddress is the nested shipping destination.
type ReceiverAddress struct {
	AddressLine string     `json:"address_line"`
	City        PlaceName  `json:"city"`
	State       PlaceName  `json:"state"`
	Country     PlaceName  `json:"country"`
	ZipCode     string     `json:"zip_code"`
}

// PlaceName wraps the {id, name} place objects used in addresses.
type PlaceName struct {
	Name string `json:"name"`
}
