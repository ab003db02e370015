// Package cartsvc holds the cart rules shared by every cart mutation: the
// increment-if-present add semantics, stock reconciliation on read, and the
// derived totals. GORM I/O stays in the controllers; everything here works
// on plain values so the rules are testable in isolation.
package cartsvc

import (
	"context"

	"github.com/kir4che/mern-ecommerce-website-sub000/models"
	"github.com/kir4che/mern-ecommerce-website-sub000/stock"
)

// ProductInfo is the live product snapshot a cart line is joined with on
// every read. It is never cached, so displayed price and stock are current.
type ProductInfo struct {
	ID           uint
	Title        string
	Price        int
	ImageUrl     string
	CountInStock int
}

// ProductReader looks up live product snapshots for reconciliation.
type ProductReader interface {
	Products(ctx context.Context, ids []uint) (map[uint]ProductInfo, error)
}

// Adjustment records a quantity correction discovered during reconciliation
// that must be written back to storage.
type Adjustment struct {
	ItemID   uint
	Quantity int
}

// TargetQuantity applies the add-to-cart rule: the requested amount is added
// onto the existing line (0 when absent) and the sum is clamped to stock.
func TargetQuantity(existing, requested, available int) (int, error) {
	return stock.Clamp(existing+requested, available)
}

// Reconcile joins stored cart items with live product data and clamps any
// quantity that now exceeds stock. Quantities are only ever lowered, never
// raised; a sold-out product keeps its line (quantity mutation is disabled
// by the zero stock in the snapshot); a product that no longer exists is
// dropped from the view. Returned adjustments are the clamps that should be
// persisted.
func Reconcile(items []models.CartItem, products map[uint]ProductInfo) ([]models.CartLine, []Adjustment) {
	lines := make([]models.CartLine, 0, len(items))
	var adjustments []Adjustment

	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		quantity := item.Quantity
		if p.CountInStock > 0 && quantity > p.CountInStock {
			quantity = p.CountInStock
			adjustments = append(adjustments, Adjustment{ItemID: item.ID, Quantity: quantity})
		}
		lines = append(lines, models.CartLine{
			ID:           item.ID,
			ProductID:    item.ProductID,
			Quantity:     quantity,
			Title:        p.Title,
			Price:        p.Price,
			ImageUrl:     p.ImageUrl,
			CountInStock: p.CountInStock,
		})
	}
	return lines, adjustments
}

// Totals derives the cart summary from reconciled lines.
func Totals(lines []models.CartLine) (totalQuantity, subtotal int) {
	for _, l := range lines {
		totalQuantity += l.Quantity
		subtotal += l.Amount()
	}
	return totalQuantity, subtotal
}

// MergeLocal folds an anonymous cart into the items already stored for the
// user, using the same increment-if-present rule as a normal add. Unknown
// and sold-out products are skipped. The returned slice contains the items
// to upsert; existing items keep their IDs.
func MergeLocal(existing []models.CartItem, incoming []models.CartItemInput, products map[uint]ProductInfo) []models.CartItem {
	byProduct := make(map[uint]*models.CartItem, len(existing))
	for i := range existing {
		byProduct[existing[i].ProductID] = &existing[i]
	}

	var upserts []models.CartItem
	for _, in := range incoming {
		p, ok := products[in.ProductID]
		if !ok {
			continue
		}
		current := 0
		if line, ok := byProduct[in.ProductID]; ok {
			current = line.Quantity
		}
		quantity, err := TargetQuantity(current, in.Quantity, p.CountInStock)
		if err != nil {
			continue
		}
		if line, ok := byProduct[in.ProductID]; ok {
			line.Quantity = quantity
			upserts = append(upserts, *line)
		} else {
			upserts = append(upserts, models.CartItem{ProductID: in.ProductID, Quantity: quantity})
		}
	}
	return upserts
}
