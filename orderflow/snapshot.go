package orderflow

import "errors"

// ErrEmptyCart rejects checkout from a cart with no lines.
var ErrEmptyCart = errors.New("orderflow: cannot create an order from an empty cart")

// Line is one cart line at the instant of checkout.
type Line struct {
	ProductID uint
	Title     string
	Price     int
	Quantity  int
}

// Item is a frozen order line: the amount is computed exactly once here and
// must never be recomputed from live product data afterward.
type Item struct {
	ProductID uint
	Title     string
	Price     int
	Quantity  int
	Amount    int
}

// Snapshot freezes cart lines into order items and returns the subtotal.
func Snapshot(lines []Line) ([]Item, int, error) {
	if len(lines) == 0 {
		return nil, 0, ErrEmptyCart
	}
	items := make([]Item, 0, len(lines))
	subtotal := 0
	for _, l := range lines {
		amount := l.Price * l.Quantity
		items = append(items, Item{
			ProductID: l.ProductID,
			Title:     l.Title,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Amount:    amount,
		})
		subtotal += amount
	}
	return items, subtotal, nil
}
