package models

import (
	"time"

	"github.com/kir4che/mern-ecommerce-website-sub000/orderflow"
	"gorm.io/gorm"
)

type Order struct {
	gorm.Model
	OrderNo            string                   `json:"orderNo" gorm:"uniqueIndex"`
	UserID             uint                     `json:"userId"`
	Name               string                   `json:"name"`
	Phone              string                   `json:"phone"`
	Address            string                   `json:"address"`
	Subtotal           int                      `json:"subtotal"`
	ShippingFee        int                      `json:"shippingFee"`
	TotalAmount        int                      `json:"totalAmount"`
	Status             orderflow.Status         `json:"status"`
	PaymentStatus      orderflow.PaymentStatus  `json:"paymentStatus"`
	ShippingStatus     orderflow.ShippingStatus `json:"shippingStatus"`
	ShippingTrackingNo string                   `json:"shippingTrackingNo"`
	PaymentMethod      string                   `json:"paymentMethod"`
	PaymentDate        *time.Time               `json:"paymentDate"`
	MerchantTradeNo    string                   `json:"merchantTradeNo"`

	// Version guards status transitions against lost updates. Every
	// transition is applied with a compare-and-swap on this column.
	Version int `json:"version"`

	OrderItems []OrderItem `json:"orderItems" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// State bundles the three status axes for the transition rules.
func (o Order) State() orderflow.State {
	return orderflow.State{
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		ShippingStatus: o.ShippingStatus,
	}
}

// ApplyState writes a transition result back onto the order.
func (o *Order) ApplyState(s orderflow.State) {
	o.Status = s.Status
	o.PaymentStatus = s.PaymentStatus
	o.ShippingStatus = s.ShippingStatus
}

// OrderItem is a frozen copy of a cart line taken at checkout. Price and
// amount are computed once at creation and never refreshed, so historical
// orders keep their original numbers when product prices change later.
type OrderItem struct {
	gorm.Model
	OrderID   uint   `json:"orderId"`
	ProductID uint   `json:"productId"`
	Title     string `json:"title"`
	Price     int    `json:"price"`
	Quantity  int    `json:"quantity"`
	Amount    int    `json:"amount"`
}
