package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kir4che/mern-ecommerce-website-sub000/cartsvc"
	"github.com/kir4che/mern-ecommerce-website-sub000/models"
)

// fakeStorefront serves the catalog and an authenticated server cart with the
// same semantics as the real API: increment-if-present adds, clamp on read,
// zero quantity means removal.
type fakeStorefront struct {
	mu        sync.Mutex
	products  map[uint]cartsvc.ProductInfo
	items     []models.CartItem
	nextID    uint
	failGets  bool
	failPosts bool

	// Optional handler gates for tests that need a request held open:
	// the handler signals entered (if set), then blocks on gate (if set).
	getEntered  chan struct{}
	getGate     chan struct{}
	syncEntered chan struct{}
	syncGate    chan struct{}
}

func newFakeStorefront() *fakeStorefront {
	return &fakeStorefront{
		products: map[uint]cartsvc.ProductInfo{
			1: {ID: 1, Title: "Sourdough", Price: 100, CountInStock: 5},
			2: {ID: 2, Title: "Croissant", Price: 50, CountInStock: 10},
		},
		nextID: 1,
	}
}

func (f *fakeStorefront) payload() cartPayload {
	lines, _ := cartsvc.Reconcile(f.items, f.products)
	totalQuantity, subtotal := cartsvc.Totals(lines)
	return cartPayload{Cart: lines, TotalQuantity: totalQuantity, Subtotal: subtotal}
}

func (f *fakeStorefront) upsert(productID uint, quantity int) {
	p := f.products[productID]
	for i := range f.items {
		if f.items[i].ProductID == productID {
			q, _ := cartsvc.TargetQuantity(f.items[i].Quantity, quantity, p.CountInStock)
			f.items[i].Quantity = q
			return
		}
	}
	q, err := cartsvc.TargetQuantity(0, quantity, p.CountInStock)
	if err != nil {
		return
	}
	item := models.CartItem{ProductID: productID, Quantity: q}
	item.ID = f.nextID
	f.nextID++
	f.items = append(f.items, item)
}

func (f *fakeStorefront) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		f.mu.Lock()
		p, ok := f.products[uint(id)]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"product": map[string]any{
			"ID": p.ID, "title": p.Title, "price": p.Price,
			"imageUrl": p.ImageUrl, "countInStock": p.CountInStock,
		}})
	})

	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		entered, gate := f.getEntered, f.getGate
		fail := f.failGets
		// Snapshot before blocking so a held-open response carries the
		// state as of request time.
		payload := f.payload()
		f.mu.Unlock()
		if entered != nil {
			entered <- struct{}{}
		}
		if gate != nil {
			<-gate
		}
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, payload)
	})

	mux.HandleFunc("POST /cart", func(w http.ResponseWriter, r *http.Request) {
		var in models.CartItemInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failPosts {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.upsert(in.ProductID, in.Quantity)
		writeJSON(w, f.payload())
	})

	mux.HandleFunc("PATCH /cart/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		var in struct {
			Quantity int `json:"quantity"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		f.mu.Lock()
		defer f.mu.Unlock()
		kept := f.items[:0]
		for _, item := range f.items {
			if item.ID == uint(id) {
				if in.Quantity <= 0 {
					continue
				}
				item.Quantity = in.Quantity
			}
			kept = append(kept, item)
		}
		f.items = kept
		writeJSON(w, f.payload())
	})

	mux.HandleFunc("DELETE /cart/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		f.mu.Lock()
		defer f.mu.Unlock()
		kept := f.items[:0]
		for _, item := range f.items {
			if item.ID != uint(id) {
				kept = append(kept, item)
			}
		}
		f.items = kept
		writeJSON(w, f.payload())
	})

	mux.HandleFunc("DELETE /cart", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.items = nil
		writeJSON(w, f.payload())
	})

	mux.HandleFunc("POST /cart/sync", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			LocalCart []models.CartItemInput `json:"localCart"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		f.mu.Lock()
		entered, gate := f.syncEntered, f.syncGate
		f.mu.Unlock()
		if entered != nil {
			entered <- struct{}{}
		}
		if gate != nil {
			<-gate
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, line := range in.LocalCart {
			f.upsert(line.ProductID, line.Quantity)
		}
		writeJSON(w, f.payload())
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestStore(t *testing.T) (*CartStore, *Client, *fakeStorefront) {
	t.Helper()
	f := newFakeStorefront()
	srv := f.server(t)
	c := New(srv.URL)
	s := NewCartStore(c)
	s.addThrottle = NewThrottle(0) // individual tests opt back in
	return s, c, f
}

func lineFor(t *testing.T, s *CartStore, productID uint) models.CartLine {
	t.Helper()
	for _, l := range s.Items() {
		if l.ProductID == productID {
			return l
		}
	}
	t.Fatalf("no cart line for product %d", productID)
	return models.CartLine{}
}

func TestLocalAddTwiceAccumulatesOneLine(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, 1, 2))
	require.NoError(t, s.AddToCart(ctx, 1, 3))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, s.TotalQuantity())
	assert.Equal(t, 500, s.Subtotal())
}

func TestLocalAddClampsToStock(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, 1, 2))
	require.NoError(t, s.AddToCart(ctx, 1, 99))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity, "sum is clamped to stock")
}

func TestAddThrottleDropsRapidClicks(t *testing.T) {
	s, _, _ := newTestStore(t)
	s.addThrottle = NewThrottle(time.Hour)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, 1, 1))
	err := s.AddToCart(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrThrottled)

	require.Len(t, s.Items(), 1)
	assert.Equal(t, 1, s.Items()[0].Quantity, "dropped call must not mutate")

	// A different product opens its own window.
	require.NoError(t, s.AddToCart(ctx, 2, 1))
}

func TestChangeQuantityZeroRemovesLine(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, 1, 2))
	itemID := s.Items()[0].ID

	s.ChangeQuantity(ctx, itemID, 0)
	assert.Empty(t, s.Items(), "zero quantity means removal, not a zero line")
}

func TestChangeQuantityDebouncesToSettledValue(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, 2, 1))
	itemID := s.Items()[0].ID

	// Keystrokes: 2, 4, 3 in quick succession; only 3 is persisted.
	s.ChangeQuantity(ctx, itemID, 2)
	s.ChangeQuantity(ctx, itemID, 4)
	s.ChangeQuantity(ctx, itemID, 3)
	s.FlushQuantity(itemID)

	assert.Equal(t, 3, lineFor(t, s, 2).Quantity)
}

func TestRemoveFromCartToleratesDoubleClick(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, 1, 1))
	itemID := s.Items()[0].ID

	require.NoError(t, s.RemoveFromCart(ctx, itemID))
	require.NoError(t, s.RemoveFromCart(ctx, itemID), "second removal is a no-op")
	assert.Empty(t, s.Items())
}

func TestClearCartIsIdempotent(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, 1, 1))
	require.NoError(t, s.ClearCart(ctx))
	require.NoError(t, s.ClearCart(ctx))
	assert.Empty(t, s.Items())
	assert.Zero(t, s.TotalQuantity())
}

func TestSyncLocalCartMergesAndClearsLocal(t *testing.T) {
	s, c, f := newTestStore(t)
	ctx := context.Background()

	// Server cart already holds one overlapping product.
	f.mu.Lock()
	f.upsert(1, 1)
	f.mu.Unlock()

	require.NoError(t, s.AddToCart(ctx, 1, 2))
	require.NoError(t, s.AddToCart(ctx, 2, 3))

	c.SetToken("jwt")
	require.NoError(t, s.SyncLocalCart(ctx, NewRemoteBackend(c)))

	items := s.Items()
	require.Len(t, items, 2, "merged cart is the union of products")
	assert.Equal(t, 3, lineFor(t, s, 1).Quantity, "overlapping quantities are summed")
	assert.Equal(t, 3, lineFor(t, s, 2).Quantity)
	assert.True(t, s.local.Empty(), "local storage is cleared after the merge")

	// The merge happens exactly once per login transition.
	require.NoError(t, s.SyncLocalCart(ctx, NewRemoteBackend(c)))
	assert.Len(t, s.Items(), 2)
}

func TestSyncedStoreUsesRemoteBackend(t *testing.T) {
	s, c, f := newTestStore(t)
	ctx := context.Background()

	c.SetToken("jwt")
	require.NoError(t, s.SyncLocalCart(ctx, NewRemoteBackend(c)))

	require.NoError(t, s.AddToCart(ctx, 2, 2))
	f.mu.Lock()
	serverItems := len(f.items)
	f.mu.Unlock()
	assert.Equal(t, 1, serverItems, "post-sync mutations hit the server cart")
}

func TestFetchFailureKeepsPreviousState(t *testing.T) {
	s, c, f := newTestStore(t)
	ctx := context.Background()

	c.SetToken("jwt")
	require.NoError(t, s.SyncLocalCart(ctx, NewRemoteBackend(c)))
	require.NoError(t, s.AddToCart(ctx, 1, 2))
	before := s.Items()

	f.mu.Lock()
	f.failGets = true
	f.mu.Unlock()

	err := s.FetchCart(ctx)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, before, s.Items(), "failed fetch leaves the previous valid state untouched")
	assert.ErrorIs(t, s.Err(), ErrRequestFailed)
}

func TestSlowFetchDoesNotOverwriteNewerAdd(t *testing.T) {
	s, c, f := newTestStore(t)
	ctx := context.Background()

	c.SetToken("jwt")
	require.NoError(t, s.SyncLocalCart(ctx, NewRemoteBackend(c)))

	entered := make(chan struct{}, 1)
	gate := make(chan struct{})
	f.mu.Lock()
	f.getEntered, f.getGate = entered, gate
	f.mu.Unlock()

	// The fetch reaches the server while the cart is still empty, then hangs.
	fetchErr := make(chan error, 1)
	go func() { fetchErr <- s.FetchCart(ctx) }()
	<-entered

	require.NoError(t, s.AddToCart(ctx, 1, 2))
	require.Len(t, s.Items(), 1)

	close(gate)
	require.NoError(t, <-fetchErr)

	items := s.Items()
	require.Len(t, items, 1, "a superseded fetch must not erase the newer add")
	assert.Equal(t, 2, items[0].Quantity)
}

func TestConcurrentSyncWaitsForInFlightMerge(t *testing.T) {
	s, c, f := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, 1, 2))

	entered := make(chan struct{}, 1)
	gate := make(chan struct{})
	f.mu.Lock()
	f.syncEntered, f.syncGate = entered, gate
	f.mu.Unlock()

	c.SetToken("jwt")
	remote := NewRemoteBackend(c)

	firstErr := make(chan error, 1)
	go func() { firstErr <- s.SyncLocalCart(ctx, remote) }()
	<-entered

	// A second login-time caller must not be told the merge is done while
	// the push is still in flight and the store still serves the local cart.
	secondErr := make(chan error, 1)
	go func() { secondErr <- s.SyncLocalCart(ctx, remote) }()
	select {
	case err := <-secondErr:
		t.Fatalf("second sync returned %v before the merge finished", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	require.NoError(t, <-firstErr)
	require.NoError(t, <-secondErr)

	assert.Equal(t, 2, lineFor(t, s, 1).Quantity)
	assert.True(t, s.local.Empty())
}

func TestFailedAddReleasesThrottleWindow(t *testing.T) {
	s, c, f := newTestStore(t)
	ctx := context.Background()

	c.SetToken("jwt")
	require.NoError(t, s.SyncLocalCart(ctx, NewRemoteBackend(c)))
	s.addThrottle = NewThrottle(time.Hour)

	f.mu.Lock()
	f.failPosts = true
	f.mu.Unlock()
	require.ErrorIs(t, s.AddToCart(ctx, 1, 1), ErrRequestFailed)

	f.mu.Lock()
	f.failPosts = false
	f.mu.Unlock()
	require.NoError(t, s.AddToCart(ctx, 1, 1), "a failed add must not hold the window")
	assert.Equal(t, 1, lineFor(t, s, 1).Quantity)
}

func TestServerCartReconcilesStockDrift(t *testing.T) {
	s, c, f := newTestStore(t)
	ctx := context.Background()

	c.SetToken("jwt")
	require.NoError(t, s.SyncLocalCart(ctx, NewRemoteBackend(c)))
	require.NoError(t, s.AddToCart(ctx, 1, 5))

	// Stock drops after the cart was last touched.
	f.mu.Lock()
	f.products[1] = cartsvc.ProductInfo{ID: 1, Title: "Sourdough", Price: 100, CountInStock: 2}
	f.mu.Unlock()

	require.NoError(t, s.FetchCart(ctx))
	assert.Equal(t, 2, lineFor(t, s, 1).Quantity, "quantity is silently clamped to live stock")
}
