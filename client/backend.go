package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kir4che/mern-ecommerce-website-sub000/cartsvc"
	"github.com/kir4che/mern-ecommerce-website-sub000/models"
	"github.com/kir4che/mern-ecommerce-website-sub000/stock"
)

// CartBackend is the persistence strategy behind the cart store. Which one
// is active depends only on authentication state; call sites never branch on
// it.
type CartBackend interface {
	Fetch(ctx context.Context) ([]models.CartLine, error)
	Add(ctx context.Context, productID uint, quantity int) ([]models.CartLine, error)
	SetQuantity(ctx context.Context, itemID uint, quantity int) ([]models.CartLine, error)
	Remove(ctx context.Context, itemID uint) ([]models.CartLine, error)
	Clear(ctx context.Context) error
}

// cartPayload is the wire shape every cart endpoint answers with.
type cartPayload struct {
	Cart          []models.CartLine `json:"cart"`
	TotalQuantity int               `json:"totalQuantity"`
	Subtotal      int               `json:"subtotal"`
}

// RemoteBackend persists the cart through the REST API for signed-in users.
type RemoteBackend struct {
	client *Client
}

func NewRemoteBackend(c *Client) *RemoteBackend {
	return &RemoteBackend{client: c}
}

func (b *RemoteBackend) roundTrip(ctx context.Context, method, path string, body any) ([]models.CartLine, error) {
	var payload cartPayload
	req := b.client.request(ctx).SetResult(&payload)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode())
	}
	if payload.Cart == nil {
		return nil, fmt.Errorf("%w: response missing cart", ErrCartCorrupted)
	}
	return payload.Cart, nil
}

func (b *RemoteBackend) Fetch(ctx context.Context) ([]models.CartLine, error) {
	return b.roundTrip(ctx, "GET", "/cart", nil)
}

func (b *RemoteBackend) Add(ctx context.Context, productID uint, quantity int) ([]models.CartLine, error) {
	return b.roundTrip(ctx, "POST", "/cart", models.CartItemInput{ProductID: productID, Quantity: quantity})
}

func (b *RemoteBackend) SetQuantity(ctx context.Context, itemID uint, quantity int) ([]models.CartLine, error) {
	return b.roundTrip(ctx, "PATCH", fmt.Sprintf("/cart/%d", itemID), map[string]int{"quantity": quantity})
}

func (b *RemoteBackend) Remove(ctx context.Context, itemID uint) ([]models.CartLine, error) {
	return b.roundTrip(ctx, "DELETE", fmt.Sprintf("/cart/%d", itemID), nil)
}

func (b *RemoteBackend) Clear(ctx context.Context) error {
	_, err := b.roundTrip(ctx, "DELETE", "/cart", nil)
	return err
}

// Sync pushes anonymous cart lines into the server cart (increment-if-present
// merge on the server side) and returns the merged result.
func (b *RemoteBackend) Sync(ctx context.Context, local []models.CartItemInput) ([]models.CartLine, error) {
	return b.roundTrip(ctx, "POST", "/cart/sync", map[string]any{"localCart": local})
}

// LocalBackend keeps the anonymous cart in process memory. Lines carry only
// (product, quantity); every read re-hydrates them with a live catalog
// lookup and applies the same reconciliation as the server.
type LocalBackend struct {
	catalog interface {
		Product(ctx context.Context, id uint) (cartsvc.ProductInfo, error)
	}

	mu     sync.Mutex
	nextID uint
	items  []models.CartItem
}

func NewLocalBackend(c *Client) *LocalBackend {
	return &LocalBackend{catalog: c, nextID: 1}
}

func (b *LocalBackend) lookup(ctx context.Context, items []models.CartItem) (map[uint]cartsvc.ProductInfo, error) {
	products := make(map[uint]cartsvc.ProductInfo, len(items))
	for _, item := range items {
		p, err := b.catalog.Product(ctx, item.ProductID)
		if errors.Is(err, ErrProductGone) {
			continue
		}
		if err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, nil
}

func (b *LocalBackend) snapshotLocked() []models.CartItem {
	items := make([]models.CartItem, len(b.items))
	copy(items, b.items)
	return items
}

func (b *LocalBackend) Fetch(ctx context.Context) ([]models.CartLine, error) {
	b.mu.Lock()
	items := b.snapshotLocked()
	b.mu.Unlock()

	products, err := b.lookup(ctx, items)
	if err != nil {
		return nil, err
	}
	lines, adjustments := cartsvc.Reconcile(items, products)

	if len(adjustments) > 0 {
		b.mu.Lock()
		for _, adj := range adjustments {
			for i := range b.items {
				if b.items[i].ID == adj.ItemID {
					b.items[i].Quantity = adj.Quantity
				}
			}
		}
		b.mu.Unlock()
	}
	return lines, nil
}

func (b *LocalBackend) Add(ctx context.Context, productID uint, quantity int) ([]models.CartLine, error) {
	p, err := b.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	existing := 0
	idx := -1
	for i := range b.items {
		if b.items[i].ProductID == productID {
			existing = b.items[i].Quantity
			idx = i
			break
		}
	}
	target, err := cartsvc.TargetQuantity(existing, quantity, p.CountInStock)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	if idx >= 0 {
		b.items[idx].Quantity = target
	} else {
		item := models.CartItem{ProductID: productID, Quantity: target}
		item.ID = b.nextID
		b.nextID++
		b.items = append(b.items, item)
	}
	b.mu.Unlock()

	return b.Fetch(ctx)
}

func (b *LocalBackend) SetQuantity(ctx context.Context, itemID uint, quantity int) ([]models.CartLine, error) {
	if quantity <= 0 {
		return b.Remove(ctx, itemID)
	}

	b.mu.Lock()
	idx := -1
	for i := range b.items {
		if b.items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return b.Fetch(ctx)
	}
	productID := b.items[idx].ProductID
	b.mu.Unlock()

	p, err := b.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	clamped, err := stock.Clamp(quantity, p.CountInStock)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	for i := range b.items {
		if b.items[i].ID == itemID {
			b.items[i].Quantity = clamped
		}
	}
	b.mu.Unlock()

	return b.Fetch(ctx)
}

func (b *LocalBackend) Remove(ctx context.Context, itemID uint) ([]models.CartLine, error) {
	b.mu.Lock()
	// Absent ids are a no-op so double-click races stay harmless.
	kept := b.items[:0]
	for _, item := range b.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	b.items = kept
	b.mu.Unlock()

	return b.Fetch(ctx)
}

func (b *LocalBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	b.items = nil
	b.mu.Unlock()
	return nil
}

// Snapshot returns the raw lines for the login merge.
func (b *LocalBackend) Snapshot() []models.CartItemInput {
	b.mu.Lock()
	defer b.mu.Unlock()
	inputs := make([]models.CartItemInput, 0, len(b.items))
	for _, item := range b.items {
		inputs = append(inputs, models.CartItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return inputs
}

// Empty reports whether the anonymous cart holds no lines.
func (b *LocalBackend) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) == 0
}
