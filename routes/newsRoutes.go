package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kir4che/mern-ecommerce-website-sub000/controllers"
	"github.com/kir4che/mern-ecommerce-website-sub000/middlewares"
)

func NewsRoutes(server *gin.Engine) {
	server.GET("/news", controllers.GetNewsList)
	server.GET("/news/:id", controllers.GetNews)

	admin := server.Group("/news", middlewares.RequireAuth(), middlewares.RequireAdmin())
	{
		admin.POST("", controllers.CreateNews)
		admin.PUT("/:id", controllers.UpdateNews)
		admin.DELETE("/:id", controllers.DeleteNews)
	}
}
