package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kir4che/mern-ecommerce-website-sub000/controllers"
)

func DefaultRoutes(server *gin.Engine) {
	server.GET("/", controllers.GetHome)
}
