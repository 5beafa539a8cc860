// Package main implements a mock MercadoLibre API server for local
// development. It serves generated items and orders to simulate the items,
// orders, and OAuth token endpoints without real MercadoLibre credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	mockSellerID = "123456789"
	mockUserID   = 123456789
)

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	itemCount := flag.Int("items", 120, "number of generated items")
	orderCount := flag.Int("orders", 75, "number of generated orders")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	data := generateData(*itemCount, *orderCount)
	logger.Info("generated fixtures", "items", len(data.items), "orders", len(data.orders))

	mux := newMux(logger, data)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock MercadoLibre server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(logger *slog.Logger, data *mockData) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", tokenHandler(logger))
	mux.HandleFunc("GET /users/{id}/items/search", itemSearchHandler(logger, data))
	mux.HandleFunc("GET /items/{id}", itemHandler(logger, data))
	mux.HandleFunc("GET /orders/search", orderSearchHandler(logger, data))
	return mux
}

type mockItem struct {
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

type mockOrder struct {
	ID          int64           `json:"id"`
	DateCreated time.Time       `json:"date_created"`
	TotalAmount float64         `json:"total_amount"`
	OrderItems  []mockOrderItem `json:"order_items"`
	Buyer       map[string]any  `json:"buyer,omitempty"`
	Shipping    map[string]any  `json:"shipping,omitempty"`
}

type mockOrderItem struct {
	Item      map[string]string `json:"item"`
	Quantity  int               `json:"quantity"`
	UnitPrice float64           `json:"unit_price"`
}

type paging struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type mockData struct {
	items  []mockItem
	byID   map[string]*mockItem
	orders []mockOrder
}

func generateData(itemCount, orderCount int) *mockData {
	d := &mockData{byID: make(map[string]*mockItem, itemCount)}

	statuses := []string{"active", "active", "active", "paused", "closed"}
	for i := range itemCount {
		item := mockItem{
			ID:                fmt.Sprintf("MLA%07d", i+1),
			Title:             fmt.Sprintf("Producto de prueba %d", i+1),
			CategoryID:        "MLA3423",
			Price:             float64(500 + i*25),
			CurrencyID:        "ARS",
			AvailableQuantity: 3 + i%10,
			SoldQuantity:      i % 40,
			ListingTypeID:     "gold_special",
			Status:            statuses[i%len(statuses)],
			Permalink:         fmt.Sprintf("https://articulo.mercadolibre.com.ar/MLA-%07d", i+1),
			Thumbnail:         fmt.Sprintf("https://http2.mlstatic.com/D_%07d-I.jpg", i+1),
		}
		d.items = append(d.items, item)
	}
	for i := range d.items {
		d.byID[d.items[i].ID] = &d.items[i]
	}

	now := time.Now().UTC()
	for i := range orderCount {
		item := &d.items[i%len(d.items)]
		qty := 1 + i%3
		order := mockOrder{
			ID:          int64(2000000000 + i),
			DateCreated: now.Add(-time.Duration(i) * 12 * time.Hour),
			TotalAmount: item.Price * float64(qty),
			OrderItems: []mockOrderItem{{
				Item:      map[string]string{"id": item.ID, "title": item.Title},
				Quantity:  qty,
				UnitPrice: item.Price,
			}},
		}
		if i%2 == 0 {
			order.Buyer = map[string]any{"nickname": fmt.Sprintf("COMPRADOR%03d", i)}
			order.Shipping = map[string]any{
				"status": "delivered",
				"receiver_address": map[string]any{
					"address_line": "Av. Corrientes 1234",
					"city":         map[string]string{"name": "Buenos Aires"},
					"state":        map[string]string{"name": "Capital Federal"},
					"country":      map[string]string{"name": "Argentina"},
					"zip_code":     "C1043",
				},
			}
		}
		d.orders = append(d.orders, order)
	}

	return d
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func tokenHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
			return
		}

		grant := r.PostFormValue("grant_type")
		switch grant {
		case "authorization_code":
			if r.PostFormValue("code") == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
				return
			}
		case "refresh_token":
			if r.PostFormValue("refresh_token") == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
				return
			}
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "APP_USR-mock-" + strconv.FormatInt(time.Now().UnixNano(), 16),
			"token_type":    "Bearer",
			"expires_in":    21600,
			"scope":         "offline_access read write",
			"user_id":       mockUserID,
			"refresh_token": "TG-mock-" + strconv.FormatInt(time.Now().UnixNano(), 16),
		})
		logger.Info("issued mock token", "grant_type", grant)
	}
}

func itemSearchHandler(logger *slog.Logger, data *mockData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeUnauthorized(w)
			return
		}
		if r.PathValue("id") != mockSellerID {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}

		status := r.URL.Query().Get("status")
		limit, offset := parsePaging(r, 50)

		var matched []string
		for i := range data.items {
			if status == "" || data.items[i].Status == status {
				matched = append(matched, data.items[i].ID)
			}
		}

		total := len(matched)
		page := pageOf(matched, offset, limit)
		if page == nil {
			page = []string{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"results": page,
			"paging":  paging{Total: total, Offset: offset, Limit: limit},
		})
		logger.Info("item search", "status", status, "total", total, "returned", len(page))
	}
}

func itemHandler(logger *slog.Logger, data *mockData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeUnauthorized(w)
			return
		}

		id := r.PathValue("id")
		item, ok := data.byID[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}

		writeJSON(w, http.StatusOK, item)
		logger.Debug("item detail", "id", id)
	}
}

func orderSearchHandler(logger *slog.Logger, data *mockData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeUnauthorized(w)
			return
		}
		if r.URL.Query().Get("seller") != mockSellerID {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "seller not found"})
			return
		}

		var from time.Time
		if v := r.URL.Query().Get("order.date_created.from"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad date filter"})
				return
			}
			from = t
		}

		limit, offset := parsePaging(r, 50)

		var matched []mockOrder
		for i := range data.orders {
			if from.IsZero() || !data.orders[i].DateCreated.Before(from) {
				matched = append(matched, data.orders[i])
			}
		}

		total := len(matched)
		page := pageOf(matched, offset, limit)
		if page == nil {
			page = []mockOrder{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"results": page,
			"paging":  paging{Total: total, Offset: offset, Limit: limit},
		})
		logger.Info("order search", "total", total, "returned", len(page), "offset", offset)
	}
}

func authorized(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"message": "invalid_token",
		"error":   "not_found",
	})
}

func parsePaging(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

func pageOf[T any](s []T, offset, limit int) []T {
	if offset >= len(s) {
		return nil
	}
	end := min(offset+limit, len(s))
	return s[offset:end]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}
