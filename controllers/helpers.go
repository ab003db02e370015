package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kir4che/mern-ecommerce-website-sub000/orderflow"
)

const (
	msgInvalidInput       = "Invalid input"
	msgUnauthorized       = "Unauthorized"
	msgInternalError      = "Internal server error"
	msgCartNotFound       = "Cart not found"
	msgProductNotFound    = "Product not found"
	msgOrderNotFound      = "Order not found"
	msgProductOutOfStock  = "Product is out of stock"
	msgOrderStateConflict = "Order was modified concurrently, please reload and retry"
)

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"message": message})
}

// Common error response helper
func respondWithError(ctx *gin.Context, statusCode int, message string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	ctx.JSON(statusCode, gin.H{
		"message": message,
		"error":   errMsg,
	})
}

// currentUserID reads the authenticated user id installed by RequireAuth.
func currentUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get("userId")
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

// currentActor maps the token role onto the transition actor.
func currentActor(ctx *gin.Context) orderflow.Actor {
	if claims, exists := ctx.Get("user"); exists {
		if mapClaims, ok := claims.(jwt.MapClaims); ok {
			if role, ok := mapClaims["role"].(string); ok && role == "admin" {
				return orderflow.ActorAdmin
			}
		}
	}
	return orderflow.ActorCustomer
}
