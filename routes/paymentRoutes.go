package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kir4che/mern-ecommerce-website-sub000/controllers"
	"github.com/kir4che/mern-ecommerce-website-sub000/middlewares"
	"github.com/kir4che/mern-ecommerce-website-sub000/payment"
)

func PaymentRoutes(server *gin.Engine, adapter *payment.Adapter, checkoutURL string) {
	server.POST("/payment", middlewares.RequireAuth(), controllers.CreatePayment(adapter, checkoutURL))

	// The callback is authenticated by its checksum, not by a user token.
	server.POST("/payment/callback", controllers.PaymentCallback(adapter))
}
