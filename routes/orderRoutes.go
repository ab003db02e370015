package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kir4che/mern-ecommerce-website-sub000/controllers"
	"github.com/kir4che/mern-ecommerce-website-sub000/middlewares"
)

func OrderRoutes(server *gin.Engine) {
	orders := server.Group("/orders", middlewares.RequireAuth())
	{
		orders.POST("", controllers.CreateOrder)
		orders.GET("", controllers.GetOrders)
		orders.GET("/:orderId", controllers.GetOrderById)
		orders.PATCH("/:orderId", controllers.UpdateOrderStatus)
	}

	admin := server.Group("/admin/orders", middlewares.RequireAuth(), middlewares.RequireAdmin())
	{
		admin.GET("", controllers.GetAllOrders)
		admin.GET("/undelivered", controllers.GetUndeliveredOrders)
		admin.DELETE("/:orderId", controllers.DeleteOrder)
	}
}
