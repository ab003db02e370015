package models

import "gorm.io/gorm"

type Cart struct {
	gorm.Model
	UserID uint       `json:"userId" gorm:"uniqueIndex"`
	Items  []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

type CartItem struct {
	gorm.Model
	CartID    uint `json:"cartId"`
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

// CartItemInput is the minimal unit a client sends to mutate a cart.
type CartItemInput struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// CartLine is a cart item joined with a fresh product snapshot. The snapshot
// is rebuilt on every read so price and stock are always current.
type CartLine struct {
	ID           uint   `json:"id"`
	ProductID    uint   `json:"productId"`
	Quantity     int    `json:"quantity"`
	Title        string `json:"title"`
	Price        int    `json:"price"`
	ImageUrl     string `json:"imageUrl"`
	CountInStock int    `json:"countInStock"`
}

// Amount is the line total at the currently displayed price.
func (l CartLine) Amount() int {
	return l.Price * l.Quantity
}
