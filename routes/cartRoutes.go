package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kir4che/mern-ecommerce-website-sub000/controllers"
	"github.com/kir4che/mern-ecommerce-website-sub000/middlewares"
)

func CartRoutes(server *gin.Engine) {
	cart := server.Group("/cart", middlewares.RequireAuth())
	{
		cart.GET("", controllers.GetCart)
		cart.POST("", controllers.AddCartItem)
		cart.POST("/sync", controllers.SyncCart)
		cart.PATCH("/:cartItemId", controllers.UpdateCartItem)
		cart.DELETE("/:cartItemId", controllers.DeleteCartItem)
		cart.DELETE("", controllers.ClearCart)
	}
}
