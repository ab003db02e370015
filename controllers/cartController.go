package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kir4che/mern-ecommerce-website-sub000/cartsvc"
	"github.com/kir4che/mern-ecommerce-website-sub000/initializers"
	"github.com/kir4che/mern-ecommerce-website-sub000/metrics"
	"github.com/kir4che/mern-ecommerce-website-sub000/models"
	"github.com/kir4che/mern-ecommerce-website-sub000/stock"
)

// productInfoMap loads live product snapshots for the given ids.
func productInfoMap(ids []uint) (map[uint]cartsvc.ProductInfo, error) {
	if len(ids) == 0 {
		return map[uint]cartsvc.ProductInfo{}, nil
	}
	var products []models.Product
	if err := initializers.DB.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	infos := make(map[uint]cartsvc.ProductInfo, len(products))
	for _, p := range products {
		infos[p.ID] = cartsvc.ProductInfo{
			ID:           p.ID,
			Title:        p.Title,
			Price:        p.Price,
			ImageUrl:     p.ImageUrl,
			CountInStock: p.CountInStock,
		}
	}
	return infos, nil
}

func getOrCreateCart(userID uint) (models.Cart, error) {
	var cart models.Cart
	err := initializers.DB.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		err = initializers.DB.Create(&cart).Error
	}
	return cart, err
}

func cartProductIDs(items []models.CartItem) []uint {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// respondWithCart re-reads the cart, joins live product data, applies stock
// reconciliation (persisting any clamps), and answers with lines + totals.
// Every cart endpoint answers with this shape.
func respondWithCart(ctx *gin.Context, cartID uint) {
	var items []models.CartItem
	if err := initializers.DB.Where("cart_id = ?", cartID).Order("id").Find(&items).Error; err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}

	products, err := productInfoMap(cartProductIDs(items))
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}

	lines, adjustments := cartsvc.Reconcile(items, products)
	for _, adj := range adjustments {
		if err := initializers.DB.Model(&models.CartItem{}).
			Where("id = ?", adj.ItemID).
			Update("quantity", adj.Quantity).Error; err != nil {
			log.Println("Failed to persist stock reconciliation:", err)
		}
	}

	totalQuantity, subtotal := cartsvc.Totals(lines)
	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"cart":          lines,
		"totalQuantity": totalQuantity,
		"subtotal":      subtotal,
	})
}

func GetCart(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	cart, err := getOrCreateCart(userID)
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}
	respondWithCart(ctx, cart.ID)
}

// AddCartItem adds a product to the cart. If the product is already present
// the existing line's quantity is increased, never duplicated.
func AddCartItem(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var input models.CartItemInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		log.Println("Bind error:", err)
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	cart, err := getOrCreateCart(userID)
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	products, err := productInfoMap([]uint{input.ProductID})
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}
	product, exists := products[input.ProductID]
	if !exists {
		sendErrorResponse(ctx, http.StatusNotFound, msgProductNotFound)
		return
	}

	var existingItem models.CartItem
	err = initializers.DB.
		Where("cart_id = ? AND product_id = ?", cart.ID, input.ProductID).
		First(&existingItem).Error

	currentQuantity := 0
	if err == nil {
		currentQuantity = existingItem.Quantity
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	quantity, clampErr := cartsvc.TargetQuantity(currentQuantity, input.Quantity, product.CountInStock)
	if clampErr != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgProductOutOfStock)
		return
	}

	if err == nil {
		existingItem.Quantity = quantity
		if err := initializers.DB.Save(&existingItem).Error; err != nil {
			log.Println("Update error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to update cart item quantity")
			return
		}
	} else {
		item := models.CartItem{CartID: cart.ID, ProductID: input.ProductID, Quantity: quantity}
		if err := initializers.DB.Create(&item).Error; err != nil {
			log.Println("Create error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to create cart item")
			return
		}
	}

	metrics.CartMutations.WithLabelValues("add").Inc()
	respondWithCart(ctx, cart.ID)
}

// UpdateCartItem sets an absolute quantity. Zero or less means removal; a
// zero-quantity line is never stored.
func UpdateCartItem(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	itemID, err := strconv.Atoi(ctx.Param("cartItemId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse cartItemId")
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := ctx.ShouldBindJSON(&input); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	cart, err := getOrCreateCart(userID)
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	var item models.CartItem
	err = initializers.DB.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Tolerate races: an absent line is not an error.
		respondWithCart(ctx, cart.ID)
		return
	} else if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	if input.Quantity <= 0 {
		if err := initializers.DB.Delete(&item).Error; err != nil {
			log.Println("Delete error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
			return
		}
		metrics.CartMutations.WithLabelValues("remove").Inc()
		respondWithCart(ctx, cart.ID)
		return
	}

	products, err := productInfoMap([]uint{item.ProductID})
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}
	product, exists := products[item.ProductID]
	if !exists {
		sendErrorResponse(ctx, http.StatusNotFound, msgProductNotFound)
		return
	}

	quantity, clampErr := stock.Clamp(input.Quantity, product.CountInStock)
	if clampErr != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgProductOutOfStock)
		return
	}

	item.Quantity = quantity
	if err := initializers.DB.Save(&item).Error; err != nil {
		log.Println("Update error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to update cart item quantity")
		return
	}

	metrics.CartMutations.WithLabelValues("update").Inc()
	respondWithCart(ctx, cart.ID)
}

// DeleteCartItem removes a line; an absent id is a no-op so double-click
// races stay harmless.
func DeleteCartItem(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	itemID, err := strconv.Atoi(ctx.Param("cartItemId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse cartItemId")
		return
	}

	cart, err := getOrCreateCart(userID)
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	if err := initializers.DB.
		Where("id = ? AND cart_id = ?", itemID, cart.ID).
		Delete(&models.CartItem{}).Error; err != nil {
		log.Println("Delete error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	metrics.CartMutations.WithLabelValues("remove").Inc()
	respondWithCart(ctx, cart.ID)
}

// ClearCart deletes every line for the user's cart; idempotent.
func ClearCart(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	cart, err := getOrCreateCart(userID)
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	if err := initializers.DB.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		log.Println("Delete error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	metrics.CartMutations.WithLabelValues("clear").Inc()
	respondWithCart(ctx, cart.ID)
}

// SyncCart merges an anonymous local cart into the user's server cart using
// the same increment-if-present rule as a normal add.
func SyncCart(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var input struct {
		LocalCart []models.CartItemInput `json:"localCart" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&input); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	cart, err := getOrCreateCart(userID)
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	var existing []models.CartItem
	if err := initializers.DB.Where("cart_id = ?", cart.ID).Find(&existing).Error; err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	ids := make([]uint, 0, len(input.LocalCart))
	for _, line := range input.LocalCart {
		ids = append(ids, line.ProductID)
	}
	products, err := productInfoMap(ids)
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	upserts := cartsvc.MergeLocal(existing, input.LocalCart, products)
	for _, item := range upserts {
		item.CartID = cart.ID
		if err := initializers.DB.Save(&item).Error; err != nil {
			log.Println("Merge error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to merge cart")
			return
		}
	}

	metrics.CartMutations.WithLabelValues("sync").Inc()
	respondWithCart(ctx, cart.ID)
}
