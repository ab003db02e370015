package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kir4che/mern-ecommerce-website-sub000/models"
)

const (
	// addWindow is the minimum interval between add-to-cart network calls per
	// product. Calls inside the window are dropped, not queued.
	addWindow = 500 * time.Millisecond

	// quantityWait is how long a quantity field must be quiet before the
	// settled value is persisted.
	quantityWait = 300 * time.Millisecond
)

// CartStore holds the authoritative client-side cart state and its derived
// totals. Every operation is atomic: on failure the previous valid state is
// left untouched and the error is categorized as retryable or corrupted.
type CartStore struct {
	mu      sync.Mutex
	backend CartBackend
	local   *LocalBackend
	items   []models.CartLine
	err     error
	synced  bool
	syncing chan struct{}
	syncErr error

	resource    *Resource[[]models.CartLine]
	addThrottle *Throttle
	qtyDebounce *Debouncer
}

// NewCartStore starts anonymous, backed by the in-process local cart.
func NewCartStore(c *Client) *CartStore {
	local := NewLocalBackend(c)
	return &CartStore{
		backend:     local,
		local:       local,
		resource:    &Resource[[]models.CartLine]{},
		addThrottle: NewThrottle(addWindow),
		qtyDebounce: NewDebouncer(quantityWait),
	}
}

func (s *CartStore) apply(lines []models.CartLine, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if errors.Is(err, ErrStale) {
			return nil
		}
		s.err = err
		return err
	}
	s.items = lines
	s.err = nil
	return nil
}

// applyMutation records a mutation result and supersedes any fetch still in
// flight: that fetch was issued before the mutation, so its response must not
// overwrite the fresher state when it finally lands.
func (s *CartStore) applyMutation(lines []models.CartLine, err error) error {
	if err == nil {
		s.resource.Invalidate()
	}
	return s.apply(lines, err)
}

// FetchCart loads the cart from the active backend. A response superseded by
// a newer fetch is discarded rather than overwriting fresher state.
func (s *CartStore) FetchCart(ctx context.Context) error {
	s.mu.Lock()
	backend := s.backend
	s.mu.Unlock()

	lines, err := s.resource.Run(ctx, func(ctx context.Context) ([]models.CartLine, error) {
		return backend.Fetch(ctx)
	})
	return s.apply(lines, err)
}

// AddToCart adds quantity of a product, incrementing an existing line. Rapid
// repeated calls for the same product inside the throttle window are dropped
// and reported as ErrThrottled.
func (s *CartStore) AddToCart(ctx context.Context, productID uint, quantity int) error {
	key := fmt.Sprintf("add:%d", productID)
	if !s.addThrottle.Allow(key) {
		return ErrThrottled
	}

	s.mu.Lock()
	backend := s.backend
	s.mu.Unlock()

	lines, err := backend.Add(ctx, productID, quantity)
	if err != nil {
		// Nothing changed, so an immediate retry must not be throttled.
		s.addThrottle.Release(key)
	}
	return s.applyMutation(lines, err)
}

// ChangeQuantity sets an absolute quantity for a line. Zero means remove.
// The write is debounced trailing-edge so a typing user produces one round
// trip for the settled value, not one per keystroke.
func (s *CartStore) ChangeQuantity(ctx context.Context, itemID uint, quantity int) {
	if quantity <= 0 {
		s.qtyDebounce.Flush(fmt.Sprintf("qty:%d", itemID))
		_ = s.RemoveFromCart(ctx, itemID)
		return
	}
	s.qtyDebounce.Do(fmt.Sprintf("qty:%d", itemID), func() {
		s.mu.Lock()
		backend := s.backend
		s.mu.Unlock()
		_ = s.applyMutation(backend.SetQuantity(ctx, itemID, quantity))
	})
}

// FlushQuantity persists a pending debounced quantity immediately.
func (s *CartStore) FlushQuantity(itemID uint) {
	s.qtyDebounce.Flush(fmt.Sprintf("qty:%d", itemID))
}

// RemoveFromCart deletes a line; an already-absent id is a no-op so
// double-click races stay harmless.
func (s *CartStore) RemoveFromCart(ctx context.Context, itemID uint) error {
	s.mu.Lock()
	backend := s.backend
	s.mu.Unlock()

	return s.applyMutation(backend.Remove(ctx, itemID))
}

// ClearCart deletes every line; idempotent.
func (s *CartStore) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	backend := s.backend
	s.mu.Unlock()

	if err := backend.Clear(ctx); err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return err
	}
	s.resource.Invalidate()
	s.mu.Lock()
	s.items = nil
	s.err = nil
	s.mu.Unlock()
	return nil
}

// SyncLocalCart runs the anonymous-to-authenticated merge after login: push
// the local lines to the server, clear local storage, then fetch the merged
// cart. It runs exactly once per login transition; a concurrent caller blocks
// until the running merge finishes and shares its outcome, so nobody is told
// the cart is authoritative while the push is still in flight. A failure is
// surfaced loudly and a later call retries.
func (s *CartStore) SyncLocalCart(ctx context.Context, remote *RemoteBackend) error {
	s.mu.Lock()
	if ch := s.syncing; ch != nil {
		s.mu.Unlock()
		<-ch
		s.mu.Lock()
		err := s.syncErr
		s.mu.Unlock()
		return err
	}
	if s.synced {
		s.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	s.syncing = ch
	local := s.local
	s.mu.Unlock()

	err := s.runSync(ctx, remote, local)

	s.mu.Lock()
	s.syncing = nil
	s.syncErr = err
	s.synced = err == nil
	s.mu.Unlock()
	close(ch)
	return err
}

func (s *CartStore) runSync(ctx context.Context, remote *RemoteBackend, local *LocalBackend) error {
	if !local.Empty() {
		if _, err := remote.Sync(ctx, local.Snapshot()); err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return err
		}
		_ = local.Clear(ctx)
	}

	s.mu.Lock()
	s.backend = remote
	s.mu.Unlock()
	return s.FetchCart(ctx)
}

// Logout returns the store to the anonymous backend with an empty local cart.
func (s *CartStore) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend = s.local
	s.items = nil
	s.err = nil
	s.synced = false
	s.syncErr = nil
}

// Items returns the current cart lines.
func (s *CartStore) Items() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]models.CartLine, len(s.items))
	copy(lines, s.items)
	return lines
}

// TotalQuantity is the sum of line quantities.
func (s *CartStore) TotalQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, l := range s.items {
		total += l.Quantity
	}
	return total
}

// Subtotal is the sum of line amounts at current prices.
func (s *CartStore) Subtotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	subtotal := 0
	for _, l := range s.items {
		subtotal += l.Amount()
	}
	return subtotal
}

// Err returns the last operation error, nil after a success.
func (s *CartStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
