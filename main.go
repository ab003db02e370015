package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/kir4che/mern-ecommerce-website-sub000/initializers"
	"github.com/kir4che/mern-ecommerce-website-sub000/metrics"
	"github.com/kir4che/mern-ecommerce-website-sub000/payment"
	"github.com/kir4che/mern-ecommerce-website-sub000/routes"
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	initializers.LoadEnv()
	initializers.ConnectToDB()
	initializers.SyncDatabase()
}

func main() {
	server := gin.Default()
	server.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", os.Getenv("FRONTEND_URL")},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	server.Use(metrics.PrometheusMiddleware())

	paymentConfig := payment.LoadConfig()
	paymentAdapter := payment.NewAdapter(paymentConfig)

	routes.DefaultRoutes(server)
	routes.AuthRoutes(server)
	routes.ProductRoutes(server)
	routes.CartRoutes(server)
	routes.OrderRoutes(server)
	routes.PaymentRoutes(server, paymentAdapter, paymentConfig.CheckoutURL)
	routes.NewsRoutes(server)

	server.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := server.Run(); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
