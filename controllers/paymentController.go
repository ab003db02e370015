package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kir4che/mern-ecommerce-website-sub000/initializers"
	"github.com/kir4che/mern-ecommerce-website-sub000/metrics"
	"github.com/kir4che/mern-ecommerce-website-sub000/models"
	"github.com/kir4che/mern-ecommerce-website-sub000/orderflow"
	"github.com/kir4che/mern-ecommerce-website-sub000/payment"
)

var paymentMethods = map[string]string{
	"credit": "Credit",
	"atm":    "ATM",
	"cvs":    "CVS",
}

// newMerchantTradeNo builds the per-trade number sent to the gateway. Each
// payment attempt gets a fresh one, which doubles as the replay nonce.
func newMerchantTradeNo(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:4])
	return "BK" + now.Format("20060102150405") + suffix
}

// CreatePayment builds the signed parameter set the client posts to the
// hosted checkout page. Only the owning customer of a still-payable order may
// request it.
func CreatePayment(adapter *payment.Adapter, checkoutURL string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := currentUserID(ctx)
		if !ok {
			sendErrorResponse(ctx, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		var input struct {
			OrderID       uint   `json:"orderId" binding:"required"`
			Name          string `json:"name"`
			Phone         string `json:"phone"`
			Address       string `json:"address"`
			PaymentMethod string `json:"paymentMethod"`
		}
		if err := ctx.ShouldBindJSON(&input); err != nil {
			sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
			return
		}

		var order models.Order
		if err := initializers.DB.Preload("OrderItems").First(&order, input.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				sendErrorResponse(ctx, http.StatusNotFound, msgOrderNotFound)
			} else {
				log.Println("Database error:", err)
				sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
			}
			return
		}
		if order.UserID != userID {
			sendErrorResponse(ctx, http.StatusForbidden, "Not your order")
			return
		}
		if !order.State().CanRepay() {
			sendErrorResponse(ctx, http.StatusBadRequest, "Order is not payable")
			return
		}

		choosePayment, ok := paymentMethods[strings.ToLower(input.PaymentMethod)]
		if !ok {
			choosePayment = "ALL"
		}

		tradeNo := newMerchantTradeNo(time.Now())
		updates := map[string]any{"merchant_trade_no": tradeNo, "payment_method": choosePayment}
		if input.Name != "" {
			updates["name"] = input.Name
		}
		if input.Phone != "" {
			updates["phone"] = input.Phone
		}
		if input.Address != "" {
			updates["address"] = input.Address
		}
		if err := initializers.DB.Model(&order).Updates(updates).Error; err != nil {
			log.Println("Update error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
			return
		}

		itemNames := make([]string, 0, len(order.OrderItems))
		for _, item := range order.OrderItems {
			itemNames = append(itemNames, fmt.Sprintf("%s x%d", item.Title, item.Quantity))
		}

		params := adapter.BuildTradeParams(payment.TradeRequest{
			MerchantTradeNo: tradeNo,
			TotalAmount:     order.TotalAmount,
			TradeDesc:       "kir4che bakery order",
			ItemNames:       itemNames,
			ChoosePayment:   choosePayment,
			CustomField1:    strconv.Itoa(int(order.ID)),
			TradeDate:       time.Now(),
		})

		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"params":      params,
			"checkoutUrl": checkoutURL,
		})
	}
}

// PaymentCallback consumes the asynchronous gateway notification. Trust
// comes solely from the checksum. The gateway re-delivers until it reads the
// success acknowledgment, so the handler is idempotent and answers the
// failure acknowledgment whenever internal processing fails, never an error
// page. Nothing here is ever surfaced to a user.
func PaymentCallback(adapter *payment.Adapter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := ctx.Request.ParseForm(); err != nil {
			log.Println("Callback parse error:", err)
			metrics.PaymentCallbacks.WithLabelValues("malformed").Inc()
			ctx.String(http.StatusOK, payment.AckFailure)
			return
		}

		cb, err := adapter.VerifyCallback(ctx.Request.PostForm)
		if err != nil {
			log.Println("Callback rejected:", err)
			metrics.PaymentCallbacks.WithLabelValues("bad_checksum").Inc()
			ctx.String(http.StatusOK, payment.AckFailure)
			return
		}

		var order models.Order
		lookupErr := errors.New("callback carried no order reference")
		if id, convErr := strconv.Atoi(cb.OrderID); convErr == nil {
			lookupErr = initializers.DB.First(&order, id).Error
		}
		if lookupErr != nil && cb.MerchantTradeNo != "" {
			lookupErr = initializers.DB.Where("merchant_trade_no = ?", cb.MerchantTradeNo).First(&order).Error
		}
		if lookupErr != nil {
			log.Println("Callback order lookup failed:", lookupErr)
			metrics.PaymentCallbacks.WithLabelValues("unknown_order").Inc()
			ctx.String(http.StatusOK, payment.AckFailure)
			return
		}

		if !cb.Succeeded {
			// A failed trade leaves the order exactly as it is; the
			// notification itself was processed fine.
			log.Printf("Trade %s failed with code %d: %s", cb.MerchantTradeNo, cb.RtnCode, cb.RtnMsg)
			metrics.PaymentCallbacks.WithLabelValues("trade_failed").Inc()
			ctx.String(http.StatusOK, payment.AckSuccess)
			return
		}

		next, changed, err := order.State().MarkPaid(orderflow.ActorGateway)
		if err != nil {
			log.Printf("Paid callback for order %d in state %s: %v", order.ID, order.Status, err)
			metrics.PaymentCallbacks.WithLabelValues("invalid_state").Inc()
			ctx.String(http.StatusOK, payment.AckFailure)
			return
		}
		if !changed {
			// Re-delivery of an already-applied callback is a no-op; still
			// acknowledge success so the gateway stops retrying.
			metrics.PaymentCallbacks.WithLabelValues("duplicate").Inc()
			ctx.String(http.StatusOK, payment.AckSuccess)
			return
		}

		paymentDate := cb.PaymentDate
		if paymentDate.IsZero() {
			paymentDate = time.Now()
		}
		if err := applyTransition(order, next, map[string]any{"payment_date": paymentDate}); err != nil {
			// Failure acknowledgment makes the gateway retry; the retry will
			// see the paid order and no-op if this write actually landed.
			log.Println("Failed to mark order paid:", err)
			metrics.PaymentCallbacks.WithLabelValues("write_failed").Inc()
			ctx.String(http.StatusOK, payment.AckFailure)
			return
		}

		metrics.PaymentCallbacks.WithLabelValues("ok").Inc()
		ctx.String(http.StatusOK, payment.AckSuccess)
	}
}
