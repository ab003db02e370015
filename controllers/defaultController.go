package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to the kir4che bakery API ❤️.

The following are the endpoints for this API:

AUTH
- POST "/auth/signup" - Create user account
- POST "/auth/login" - Access user account

PRODUCT
- GET "/products" - List products
- GET "/products/:id" - Get product by ID
- POST "/products" - Create product (admin)
- PUT "/products/:id" - Update product (admin)
- DELETE "/products/:id" - Delete product (admin)
- POST "/products/:id/image" - Upload product image (admin)

CART
- GET "/cart" - Get the current cart
- POST "/cart" - Add a product to the cart
- PATCH "/cart/:cartItemId" - Change a line's quantity
- DELETE "/cart/:cartItemId" - Remove a line
- DELETE "/cart" - Clear the cart
- POST "/cart/sync" - Merge an anonymous cart after login

ORDER
- POST "/orders" - Create an order from the cart
- GET "/orders" - List your orders
- GET "/orders/:orderId" - Get order by ID
- PATCH "/orders/:orderId" - Update order status
- GET "/admin/orders" - List all orders (admin)
- GET "/admin/orders/undelivered" - Count undelivered orders (admin)

PAYMENT
- POST "/payment" - Build signed checkout parameters
- POST "/payment/callback" - Payment gateway notification

NEWS
- GET "/news" - List news
- GET "/news/:id" - Get news by ID`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
