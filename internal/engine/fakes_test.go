package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/facuhernandez/melitrack/internal/meli"
	"github.com/facuhernandez/melitrack/internal/store"
	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// quietLogger returns a logger that discards output for tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory Store. Function fields override individual
// methods when a test needs to inject failures or record calls.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	codes    map[string][]domain.AuthCode
	listings map[string]*domain.Listing // keyed user_id|item_id
	sales    map[string]*domain.Sale    // keyed user_id|sale_id
	runs     map[string]*domain.SyncRun

	upsertListingErr func(l *domain.Listing) error
	upsertSaleErr    func(s *domain.Sale) error

	updateTokenCalls atomic.Int32
	nextRunID        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[string]*domain.Account),
		codes:    make(map[string][]domain.AuthCode),
		listings: make(map[string]*domain.Listing),
		sales:    make(map[string]*domain.Sale),
		runs:     make(map[string]*domain.SyncRun),
	}
}

func (f *fakeStore) UpsertAccount(_ context.Context, a *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.accounts[a.UserID]; ok {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	} else {
		a.ID = fmt.Sprintf("acct-%d", len(f.accounts)+1)
		a.CreatedAt = time.Now()
	}
	a.UpdatedAt = time.Now()

	cp := *a
	f.accounts[a.UserID] = &cp
	return nil
}

func (f *fakeStore) GetAccount(_ context.Context, userID string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("account: %w", store.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) ListAccounts(_ context.Context) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Account
	for _, a := range f.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) UpdateAccountTokens(
	_ context.Context,
	userID, accessToken, refreshToken string,
	expiresAt time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updateTokenCalls.Add(1)

	a, ok := f.accounts[userID]
	if !ok {
		return fmt.Errorf("account %s: %w", userID, store.ErrNotFound)
	}
	a.AccessToken = accessToken
	a.RefreshToken = refreshToken
	a.ExpiresAt = expiresAt
	return nil
}

func (f *fakeStore) InsertAuthCode(_ context.Context, c *domain.AuthCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c.ID = fmt.Sprintf("code-%d", len(f.codes[c.UserID])+1)
	c.CreatedAt = time.Now()
	f.codes[c.UserID] = append(f.codes[c.UserID], *c)
	return nil
}

func (f *fakeStore) GetLatestAuthCode(_ context.Context, userID string) (*domain.AuthCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	codes := f.codes[userID]
	if len(codes) == 0 {
		return nil, fmt.Errorf("auth code: %w", store.ErrNotFound)
	}
	cp := codes[len(codes)-1]
	return &cp, nil
}

func (f *fakeStore) UpsertListing(_ context.Context, l *domain.Listing) error {
	if f.upsertListingErr != nil {
		if err := f.upsertListingErr(l); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := l.UserID + "|" + l.ItemID
	if existing, ok := f.listings[key]; ok {
		l.ID = existing.ID
	} else {
		l.ID = fmt.Sprintf("listing-%d", len(f.listings)+1)
	}
	l.LastUpdated = time.Now()

	cp := *l
	f.listings[key] = &cp
	return nil
}

func (f *fakeStore) ListListings(
	_ context.Context,
	opts *store.ListingQuery,
) ([]domain.Listing, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Listing
	for _, l := range f.listings {
		if l.UserID == opts.UserID {
			out = append(out, *l)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) UpsertSale(_ context.Context, s *domain.Sale) error {
	if f.upsertSaleErr != nil {
		if err := f.upsertSaleErr(s); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := s.UserID + "|" + s.SaleID
	if existing, ok := f.sales[key]; ok {
		s.ID = existing.ID
	} else {
		s.ID = fmt.Sprintf("sale-%d", len(f.sales)+1)
	}
	s.UpdatedAt = time.Now()

	cp := *s
	f.sales[key] = &cp
	return nil
}

func (f *fakeStore) ListSales(
	_ context.Context,
	opts *store.SaleQuery,
) ([]domain.Sale, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Sale
	for _, s := range f.sales {
		if s.UserID == opts.UserID {
			out = append(out, *s)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) InsertSyncRun(_ context.Context, userID, jobName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextRunID++
	id := fmt.Sprintf("run-%d", f.nextRunID)
	f.runs[id] = &domain.SyncRun{
		ID:        id,
		UserID:    userID,
		JobName:   jobName,
		Status:    domain.SyncRunRunning,
		StartedAt: time.Now(),
	}
	return id, nil
}

func (f *fakeStore) CompleteSyncRun(
	_ context.Context,
	id, status, errText string,
	rowsAffected int,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.runs[id]
	if !ok {
		return fmt.Errorf("sync run: %w", store.ErrNotFound)
	}
	now := time.Now()
	r.Status = status
	r.ErrorText = errText
	r.RowsAffected = &rowsAffected
	r.CompletedAt = &now
	return nil
}

func (f *fakeStore) ListSyncRuns(
	_ context.Context,
	userID, jobName string,
	_ int,
) ([]domain.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.SyncRun
	for _, r := range f.runs {
		if r.UserID == userID && (jobName == "" || r.JobName == jobName) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetLastCompletedSync(
	_ context.Context,
	userID, jobName string,
) (*domain.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *domain.SyncRun
	for _, r := range f.runs {
		if r.UserID == userID && r.JobName == jobName && r.Status == domain.SyncRunSucceeded {
			if latest == nil || r.CompletedAt.After(*latest.CompletedAt) {
				latest = r
			}
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("sync run: %w", store.ErrNotFound)
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Ping(context.Context) error    { return nil }

var _ store.Store = (*fakeStore)(nil)

// fakeClient implements meli.Client with function fields.
type fakeClient struct {
	searchItemIDs func(ctx context.Context, token, sellerID string, limit, offset int) (*meli.ItemSearchResult, error)
	getItem       func(ctx context.Context, token, itemID string) (*meli.Item, error)
	searchOrders  func(ctx context.Context, token, sellerID string, from time.Time, limit, offset int) (*meli.OrderSearchResult, error)
}

func (f *fakeClient) SearchItemIDs(
	ctx context.Context,
	token, sellerID string,
	limit, offset int,
) (*meli.ItemSearchResult, error) {
	return f.searchItemIDs(ctx, token, sellerID, limit, offset)
}

func (f *fakeClient) GetItem(ctx context.Context, token, itemID string) (*meli.Item, error) {
	return f.getItem(ctx, token, itemID)
}

func (f *fakeClient) SearchOrders(
	ctx context.Context,
	token, sellerID string,
	from time.Time,
	limit, offset int,
) (*meli.OrderSearchResult, error) {
	return f.searchOrders(ctx, token, sellerID, from, limit, offset)
}

var _ meli.Client = (*fakeClient)(nil)

// fakeOAuth implements meli.OAuth with function fields and call counts.
type fakeOAuth struct {
	exchange func(ctx context.Context, code string) (*meli.TokenResponse, error)
	refresh  func(ctx context.Context, refreshToken string) (*meli.TokenResponse, error)

	exchangeCalls atomic.Int32
	refreshCalls  atomic.Int32
}

func (f *fakeOAuth) AuthorizationURL(state string) string {
	return "https://auth.example.com/authorization?state=" + state
}

func (f *fakeOAuth) Exchange(ctx context.Context, code string) (*meli.TokenResponse, error) {
	f.exchangeCalls.Add(1)
	return f.exchange(ctx, code)
}

func (f *fakeOAuth) Refresh(ctx context.Context, refreshToken string) (*meli.TokenResponse, error) {
	f.refreshCalls.Add(1)
	return f.refresh(ctx, refreshToken)
}

var _ meli.OAuth = (*fakeOAuth)(nil)
