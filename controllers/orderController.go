package controllers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kir4che/mern-ecommerce-website-sub000/cartsvc"
	"github.com/kir4che/mern-ecommerce-website-sub000/initializers"
	"github.com/kir4che/mern-ecommerce-website-sub000/metrics"
	"github.com/kir4che/mern-ecommerce-website-sub000/models"
	"github.com/kir4che/mern-ecommerce-website-sub000/orderflow"
	"github.com/kir4che/mern-ecommerce-website-sub000/utils"
)

const (
	defaultShippingFee    = 60
	freeShippingThreshold = 1000
)

// newOrderNo builds a human-readable unique order number.
func newOrderNo(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:4])
	return "BK" + now.Format("20060102150405") + suffix
}

func shippingFeeFor(subtotal int) int {
	if subtotal >= freeShippingThreshold {
		return 0
	}
	return defaultShippingFee
}

// CreateOrder snapshots the user's cart into a new order. Prices, titles and
// amounts are frozen at this instant; later catalog changes never affect the
// order.
func CreateOrder(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var input struct {
		Name    string `json:"name" binding:"required"`
		Phone   string `json:"phone" binding:"required"`
		Address string `json:"address" binding:"required"`
	}
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

	var items []models.CartItem
	if err := initializers.DB.Where("cart_id = ?", cart.ID).Order("id").Find(&items).Error; err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	products, err := productInfoMap(cartProductIDs(items))
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	lines, _ := cartsvc.Reconcile(items, products)
	checkoutLines := make([]orderflow.Line, 0, len(lines))
	for _, l := range lines {
		checkoutLines = append(checkoutLines, orderflow.Line{
			ProductID: l.ProductID,
			Title:     l.Title,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}

	frozen, subtotal, err := orderflow.Snapshot(checkoutLines)
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Cannot checkout an empty cart")
		return
	}

	state := orderflow.NewState()
	shippingFee := shippingFeeFor(subtotal)
	order := models.Order{
		OrderNo:     newOrderNo(time.Now()),
		UserID:      userID,
		Name:        input.Name,
		Phone:       input.Phone,
		Address:     input.Address,
		Subtotal:    subtotal,
		ShippingFee: shippingFee,
		TotalAmount: subtotal + shippingFee,
	}
	order.ApplyState(state)

	for _, item := range frozen {
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Amount:    item.Amount,
		})
	}

	tx := initializers.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		log.Println("Create error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to create order")
		return
	}

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		tx.Rollback()
		log.Println("Delete error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to clear cart")
		return
	}

	if err := tx.Commit().Error; err != nil {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to save order")
		return
	}

	metrics.OrdersTotal.WithLabelValues(string(order.Status)).Inc()
	go sendOrderConfirmationEmail(userID, order)

	sendJSONResponse(ctx, http.StatusCreated, gin.H{
		"message": "Order created successfully.",
		"order":   order,
	})
}

func sendOrderConfirmationEmail(userID uint, order models.Order) {
	var user models.User
	if err := initializers.DB.First(&user, userID).Error; err != nil {
		log.Println("Confirmation email skipped, user lookup failed:", err)
		return
	}
	data := utils.OrderEmailData{
		Name:        user.Name,
		OrderNo:     order.OrderNo,
		TotalAmount: order.TotalAmount,
		OrderURL:    os.Getenv("FRONTEND_URL") + "/orders/" + strconv.Itoa(int(order.ID)),
	}
	if err := utils.SendOrderConfirmation(user.Email, data); err != nil {
		log.Println("Failed to send order confirmation email:", err)
	}
}

// GetOrders lists the authenticated user's orders, newest first.
func GetOrders(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	sortOrder := ctx.DefaultQuery("sort", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	query := initializers.DB.Preload("OrderItems").Where("user_id = ?", userID)
	if search := ctx.Query("search"); search != "" {
		query = query.Where("order_no LIKE ?", "%"+search+"%")
	}

	var orders []models.Order
	if result := query.Order("created_at " + sortOrder).Find(&orders); result.Error != nil {
		log.Println(result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": orders})
}

// GetAllOrders is the admin dashboard listing with pagination.
func GetAllOrders(ctx *gin.Context) {
	var orders []models.Order

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "15"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 15
	}
	offset := (page - 1) * limit

	sortOrder := ctx.DefaultQuery("sort", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	query := initializers.DB.Preload("OrderItems")
	if search := ctx.Query("search"); search != "" {
		query = query.Where("order_no LIKE ?", "%"+search+"%")
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	result := query.Order("created_at " + sortOrder).Limit(limit).Offset(offset).Find(&orders)
	if result.Error != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Unable to fetch orders", result.Error)
		return
	}

	var count int64
	countQuery := initializers.DB.Model(&models.Order{})
	if search := ctx.Query("search"); search != "" {
		countQuery = countQuery.Where("order_no LIKE ?", "%"+search+"%")
	}
	if status := ctx.Query("status"); status != "" {
		countQuery = countQuery.Where("status = ?", status)
	}
	countQuery.Count(&count)

	previousPage := page - 1
	nextPage := page + 1
	totalPages := math.Ceil(float64(count) / float64(limit))

	ctx.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"metadata": gin.H{
			"total":        count,
			"currentPage":  page,
			"limit":        limit,
			"hasPrevPage":  previousPage > 0,
			"hasNextPage":  int(totalPages) > page,
			"previousPage": previousPage,
			"nextPage":     nextPage,
		},
	})
}

func loadOrderForActor(ctx *gin.Context) (models.Order, bool) {
	orderID, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return models.Order{}, false
	}

	var order models.Order
	if err := initializers.DB.Preload("OrderItems").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgOrderNotFound)
		} else {
			log.Println("Database error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		}
		return models.Order{}, false
	}

	// Customers only see their own orders; admins see everything.
	if currentActor(ctx) != orderflow.ActorAdmin {
		userID, ok := currentUserID(ctx)
		if !ok || order.UserID != userID {
			sendErrorResponse(ctx, http.StatusForbidden, "Not your order")
			return models.Order{}, false
		}
	}
	return order, true
}

func GetOrderById(ctx *gin.Context) {
	order, ok := loadOrderForActor(ctx)
	if !ok {
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"order":    order,
		"canRepay": order.State().CanRepay(),
	})
}

// applyTransition persists a state transition with a compare-and-swap on the
// version column so concurrent writers cannot silently overwrite each other.
func applyTransition(order models.Order, next orderflow.State, extra map[string]any) error {
	updates := map[string]any{
		"status":          next.Status,
		"payment_status":  next.PaymentStatus,
		"shipping_status": next.ShippingStatus,
		"version":         order.Version + 1,
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := initializers.DB.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errVersionConflict
	}
	metrics.OrdersTotal.WithLabelValues(string(next.Status)).Inc()
	return nil
}

var errVersionConflict = errors.New("order version conflict")

// UpdateOrderStatus drives the order state machine. The target status in the
// request body selects the transition; role and precondition checks live in
// the orderflow package. Payment status is never settable here, only the
// verified gateway callback may change it.
func UpdateOrderStatus(ctx *gin.Context) {
	var input struct {
		Status             string `json:"status"`
		PaymentStatus      string `json:"paymentStatus"`
		ShippingTrackingNo string `json:"shippingTrackingNo"`
	}
	if err := ctx.ShouldBindJSON(&input); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if input.PaymentStatus != "" {
		sendErrorResponse(ctx, http.StatusForbidden, "Payment status is set by the payment gateway only")
		return
	}

	order, ok := loadOrderForActor(ctx)
	if !ok {
		return
	}

	actor := currentActor(ctx)
	state := order.State()
	extra := map[string]any{}

	var next orderflow.State
	var err error
	switch orderflow.Status(input.Status) {
	case orderflow.StatusProcessing:
		next, err = state.StartProcessing(actor)
	case orderflow.StatusShipped:
		next, err = state.Ship(actor, input.ShippingTrackingNo)
		if err == nil {
			extra["shipping_tracking_no"] = input.ShippingTrackingNo
		}
	case orderflow.StatusDelivered:
		next, err = state.MarkDelivered(actor, false)
	case orderflow.StatusPickedUp:
		next, err = state.MarkDelivered(actor, true)
	case orderflow.StatusCompleted:
		next, err = state.Complete(actor)
	case orderflow.StatusCanceled:
		next, err = state.Cancel(actor)
	case orderflow.StatusReturnRequested:
		next, err = state.RequestReturn(actor)
	case orderflow.StatusReturned:
		next, err = state.AcceptReturn(actor)
	default:
		sendErrorResponse(ctx, http.StatusBadRequest, fmt.Sprintf("Unknown target status %q", input.Status))
		return
	}

	switch {
	case errors.Is(err, orderflow.ErrForbiddenActor):
		sendErrorResponse(ctx, http.StatusForbidden, "You may not perform this transition")
		return
	case errors.Is(err, orderflow.ErrBadTrackingNo):
		sendErrorResponse(ctx, http.StatusBadRequest, "Tracking number must be 8-20 alphanumeric characters")
		return
	case errors.Is(err, orderflow.ErrInvalidTransition):
		// Reaching this path means a concurrent actor changed the order or a
		// client bug; surface it, never swallow it.
		sendErrorResponse(ctx, http.StatusConflict,
			fmt.Sprintf("Order cannot move from %q to %q", order.Status, input.Status))
		return
	case err != nil:
		log.Println("Transition error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		return
	}

	if err := applyTransition(order, next, extra); err != nil {
		if errors.Is(err, errVersionConflict) {
			sendErrorResponse(ctx, http.StatusConflict, msgOrderStateConflict)
			return
		}
		log.Println("Update error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to update order status")
		return
	}

	order.ApplyState(next)
	order.Version++
	if trackingNo, ok := extra["shipping_tracking_no"].(string); ok {
		order.ShippingTrackingNo = trackingNo
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message": "Order status updated successfully.",
		"order":   order,
	})
}

func DeleteOrder(ctx *gin.Context) {
	orderID, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	if result := initializers.DB.Delete(&models.Order{}, orderID); result.Error != nil {
		log.Println(result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order deleted successfully."})
}

func GetUndeliveredOrders(ctx *gin.Context) {
	var count int64

	result := initializers.DB.
		Model(&models.Order{}).
		Where("status NOT IN ?", []orderflow.Status{
			orderflow.StatusCompleted,
			orderflow.StatusCanceled,
			orderflow.StatusReturned,
		}).
		Count(&count)
	if result.Error != nil {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to count undelivered orders")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"undeliveredOrderCount": count})
}
