package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/facuhernandez/melitrack/internal/meli"
	"github.com/facuhernandez/melitrack/internal/metrics"
	"github.com/facuhernandez/melitrack/internal/store"
	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// ErrNotConnected is returned when a user has no linked account or no
// usable token.
var ErrNotConnected = errors.New("account not connected")

// SyncOrders reconciles the user's recent remote orders into local
// sales and returns the number of sales upserted.
//
// Unlike catalog sync, order sync is strict: a missing token fails with
// ErrNotConnected, and any error mid-cycle aborts the remaining pages
// and propagates. Partial order data is treated as untrustworthy.
func (e *Engine) SyncOrders(ctx context.Context, userID string) (int, error) {
	start := time.Now()
	defer func() {
		metrics.OrderSyncDuration.Observe(time.Since(start).Seconds())
	}()

	token := e.AccessToken(ctx, userID)
	if token == "" {
		return 0, fmt.Errorf("user %s: %w", userID, ErrNotConnected)
	}

	account, err := e.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("user %s: %w", userID, ErrNotConnected)
		}
		return 0, fmt.Errorf("loading account: %w", err)
	}

	runID, err := e.store.InsertSyncRun(ctx, userID, domain.JobOrderSync)
	if err != nil {
		e.log.Error("recording sync run failed", "user_id", userID, "error", err)
	}

	from := e.nowFunc().Add(-e.orderLookback)
	upserted := 0
	offset := 0

	for {
		result, err := e.searchOrderPage(ctx, token, account.MeliUserID, from, offset)
		if err != nil {
			metrics.SyncErrorsTotal.WithLabelValues(domain.JobOrderSync).Inc()
			e.completeRun(ctx, runID, domain.SyncRunFailed, err.Error(), upserted)
			return upserted, fmt.Errorf("searching orders: %w", err)
		}

		for i := range result.Results {
			sale := toSale(userID, &result.Results[i])
			if err := e.store.UpsertSale(ctx, sale); err != nil {
				metrics.SyncErrorsTotal.WithLabelValues(domain.JobOrderSync).Inc()
				e.completeRun(ctx, runID, domain.SyncRunFailed, err.Error(), upserted)
				return upserted, fmt.Errorf("upserting sale %s: %w", sale.SaleID, err)
			}
			upserted++
		}

		// The endpoint's reported total is authoritative here; a short
		// page alone does not end pagination.
		offset += len(result.Results)
		if len(result.Results) == 0 || result.Paging.Total <= offset {
			break
		}
	}

	metrics.OrderSalesUpserted.Add(float64(upserted))
	e.completeRun(ctx, runID, domain.SyncRunSucceeded, "", upserted)
	e.log.Info("order sync complete", "user_id", userID, "upserted", upserted)

	return upserted, nil
}

func (e *Engine) searchOrderPage(
	ctx context.Context,
	token, sellerID string,
	from time.Time,
	offset int,
) (*meli.OrderSearchResult, error) {
	rctx, cancel := e.requestCtx(ctx)
	defer cancel()

	return e.api.SearchOrders(rctx, token, sellerID, from, e.pageSize, offset)
}

// toSale flattens a remote order into one Sale row. Quantity sums all
// line items, but the publication identity comes from the first line
// item only; multi-item orders lose the identity of the rest. Buyer and
// shipping blocks are optional and tolerated when absent.
func toSale(userID string, order *meli.Order) *domain.Sale {
	sale := &domain.Sale{
		UserID:      userID,
		SaleID:      strconv.FormatInt(order.ID, 10),
		SaleDate:    order.DateCreated,
		TotalAmount: order.TotalAmount,
	}

	for _, li := range order.OrderItems {
		sale.Quantity += li.Quantity
	}

	if len(order.OrderItems) > 0 {
		first := order.OrderItems[0]
		sale.PublicationID = first.Item.ID
		sale.PublicationTitle = first.Item.Title
		sale.UnitPrice = first.UnitPrice
	}

	if order.Buyer != nil {
		sale.BuyerNickname = order.Buyer.Nickname
	}

	if order.Shipping != nil {
		sale.ShippingStatus = order.Shipping.Status
		if addr := order.Shipping.ReceiverAddress; addr != nil {
			sale.ShippingAddress = addr.AddressLine
			sale.ShippingCity = addr.City.Name
			sale.ShippingState = addr.State.Name
			sale.ShippingCountry = addr.Country.Name
			sale.ShippingZip = addr.ZipCode
		}
	}

	return sale
}
