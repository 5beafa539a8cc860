package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/facuhernandez/melitrack/internal/meli"
	"github.com/facuhernandez/melitrack/internal/metrics"
	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// SyncCatalog reconciles the user's remote catalog into local listings
// and returns the number of listings upserted.
//
// Catalog sync is a best-effort background refresh: a missing token, a
// failed page fetch, or a failed item all degrade to logging and a
// shorter result, never an error. Detail fetches within a page run
// concurrently; a failed detail fetch drops that item from the cycle
// without touching the rest of the page.
func (e *Engine) SyncCatalog(ctx context.Context, userID string) int {
	start := time.Now()
	defer func() {
		metrics.CatalogSyncDuration.Observe(time.Since(start).Seconds())
	}()

	token := e.AccessToken(ctx, userID)
	if token == "" {
		e.log.Info("catalog sync skipped, no token", "user_id", userID)
		return 0
	}

	account, err := e.store.GetAccount(ctx, userID)
	if err != nil {
		e.log.Error("catalog sync: loading account failed", "user_id", userID, "error", err)
		return 0
	}

	runID, err := e.store.InsertSyncRun(ctx, userID, domain.JobCatalogSync)
	if err != nil {
		e.log.Error("recording sync run failed", "user_id", userID, "error", err)
	}

	upserted := 0
	offset := 0

	for {
		page, err := e.searchItemPage(ctx, token, account.MeliUserID, offset)
		if err != nil {
			metrics.SyncErrorsTotal.WithLabelValues(domain.JobCatalogSync).Inc()
			e.log.Error("catalog sync: page fetch failed",
				"user_id", userID,
				"offset", offset,
				"error", err,
			)
			e.completeRun(ctx, runID, domain.SyncRunFailed, err.Error(), upserted)
			return upserted
		}

		if len(page.Results) == 0 {
			break
		}

		items := e.fetchDetails(ctx, token, page.Results)

		for _, item := range items {
			listing := toListing(userID, item)
			if err := e.store.UpsertListing(ctx, listing); err != nil {
				metrics.CatalogItemsDropped.Inc()
				e.log.Error("catalog sync: upsert failed",
					"user_id", userID,
					"item_id", item.ID,
					"error", err,
				)
				continue
			}
			upserted++
		}

		// A short page means the catalog is exhausted. Page length is
		// the only signal; the endpoint's total is not consulted.
		if len(page.Results) < e.pageSize {
			break
		}
		offset += e.pageSize
	}

	metrics.CatalogListingsUpserted.Add(float64(upserted))
	e.completeRun(ctx, runID, domain.SyncRunSucceeded, "", upserted)
	e.log.Info("catalog sync complete", "user_id", userID, "upserted", upserted)

	return upserted
}

func (e *Engine) searchItemPage(
	ctx context.Context,
	token, sellerID string,
	offset int,
) (*meli.ItemSearchResult, error) {
	rctx, cancel := e.requestCtx(ctx)
	defer cancel()

	return e.api.SearchItemIDs(rctx, token, sellerID, e.pageSize, offset)
}

// fetchDetails fetches item detail records concurrently, preserving
// page order. Failed fetches are logged and omitted from the result.
func (e *Engine) fetchDetails(
	ctx context.Context,
	token string,
	itemIDs []string,
) []*meli.Item {
	results := make([]*meli.Item, len(itemIDs))
	var dropped sync.Map

	g := new(errgroup.Group)
	g.SetLimit(e.pageSize)

	for i, itemID := range itemIDs {
		g.Go(func() error {
			rctx, cancel := e.requestCtx(ctx)
			defer cancel()

			item, err := e.api.GetItem(rctx, token, itemID)
			if err != nil {
				dropped.Store(itemID, err)
				return nil
			}
			results[i] = item
			return nil
		})
	}
	_ = g.Wait()

	dropped.Range(func(key, value any) bool {
		metrics.CatalogItemsDropped.Inc()
		e.log.Warn("catalog sync: detail fetch failed",
			"item_id", key,
			"error", value,
		)
		return true
	})

	items := make([]*meli.Item, 0, len(itemIDs))
	for _, item := range results {
		if item != nil {
			items = append(items, item)
		}
	}
	return items
}

func toListing(userID string, item *meli.Item) *domain.Listing {
	return &domain.Listing{
		UserID:            userID,
		ItemID:            item.ID,
		Title:             item.Title,
		CategoryID:        item.CategoryID,
		Price:             item.Price,
		CurrencyID:        item.CurrencyID,
		AvailableQuantity: item.AvailableQuantity,
		SoldQuantity:      item.SoldQuantity,
		ListingTypeID:     item.ListingTypeID,
		Status:            item.Status,
		Permalink:         item.Permalink,
		Thumbnail:         item.Thumbnail,
	}
}

func (e *Engine) completeRun(
	ctx context.Context,
	runID, status, errText string,
	rows int,
) {
	if runID == "" {
		return
	}
	if err := e.store.CompleteSyncRun(ctx, runID, status, errText, rows); err != nil {
		e.log.Error("completing sync run failed", "run_id", runID, "error", err)
	}
}
