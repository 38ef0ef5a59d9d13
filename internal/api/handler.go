package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"payment-service/internal/service"
	"payment-service/internal/store"
	"payment-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// User-facing failure messages. Internal error detail is logged, never
// returned.
const (
	genericInitiateFailure = "Sorry, we are unable to process your payment at this time. Please try again later."
	genericRequestFailure  = "Sorry, we are unable to process this request at this time. Please try again later."
)

// Handler contains HTTP handlers
type Handler struct {
	payments *service.PaymentService
	webhooks *service.WebhookDispatcher
}

// NewHandler creates a new HTTP handler
func NewHandler(payments *service.PaymentService, webhooks *service.WebhookDispatcher) *Handler {
	return &Handler{
		payments: payments,
		webhooks: webhooks,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	payments := router.Group("/payments")
	{
		payments.POST("/initiate", h.initiatePayment)
		payments.GET("/order/:order_id", h.getOrder)
		payments.GET("/transaction/:transaction_id", h.getTransaction)
		payments.POST("/webhook/:payment_gateway", h.handleWebhook)
	}

	router.NoRoute(func(c *gin.Context) {
		respond(c, http.StatusNotFound, false, "Not Found", nil)
	})
}

func respond(c *gin.Context, status int, successful bool, message string, data any) {
	body := gin.H{
		"is_successful": successful,
		"message":       message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// initiatePayment handles order-intent requests
func (h *Handler) initiatePayment(c *gin.Context) {
	var req service.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}

	result, err := h.payments.Initiate(c.Request.Context(), &req, c.GetHeader("Authorization"))
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			respond(c, http.StatusBadRequest, false, vErr.Message, nil)
		case errors.Is(err, service.ErrUnauthorized):
			respond(c, http.StatusUnauthorized, false, "Unauthorized", nil)
		case errors.Is(err, service.ErrOrderUpdate):
			respond(c, http.StatusInternalServerError, false, "Failed to update order", nil)
		default:
			util.GetLogger().Error("Payment initiation failed", zap.Error(err))
			respond(c, http.StatusInternalServerError, false, genericInitiateFailure, nil)
		}
		return
	}

	respond(c, http.StatusOK, true, "Payment initiated successfully", result)
}

// getOrder handles order status lookups
func (h *Handler) getOrder(c *gin.Context) {
	order, items, err := h.payments.GetOrder(c.Request.Context(),
		c.Param("order_id"), c.GetHeader("Authorization"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			respond(c, http.StatusUnauthorized, false, "Unauthorized", nil)
		case errors.Is(err, store.ErrNotFound):
			respond(c, http.StatusNotFound, false, "Order not found", nil)
		default:
			util.GetLogger().Error("Order lookup failed", zap.Error(err))
			respond(c, http.StatusInternalServerError, false, genericInitiateFailure, nil)
		}
		return
	}

	respond(c, http.StatusOK, true, "Order found", gin.H{
		"order": order,
		"items": items,
	})
}

// getTransaction handles transaction lookups
func (h *Handler) getTransaction(c *gin.Context) {
	transactionID, err := strconv.ParseInt(c.Param("transaction_id"), 10, 64)
	if err != nil {
		respond(c, http.StatusBadRequest, false, "Invalid transaction ID", nil)
		return
	}

	tx, err := h.payments.GetTransaction(c.Request.Context(), transactionID, c.GetHeader("Authorization"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			respond(c, http.StatusUnauthorized, false, "Unauthorized", nil)
		case errors.Is(err, store.ErrNotFound):
			respond(c, http.StatusNotFound, false, "Transaction not found", nil)
		default:
			util.GetLogger().Error("Transaction lookup failed", zap.Error(err))
			respond(c, http.StatusInternalServerError, false, genericRequestFailure, nil)
		}
		return
	}

	respond(c, http.StatusOK, true, "Transaction found", tx)
}

// handleWebhook receives gateway callbacks. No bearer auth here; callers are
// authenticated by gateway-specific signature verification instead.
func (h *Handler) handleWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respond(c, http.StatusInternalServerError, false, "Internal server error", nil)
		return
	}

	message, err := h.webhooks.Dispatch(c.Request.Context(),
		c.Param("payment_gateway"), c.GetHeader("Cardnet-Signature"), rawBody)
	if err != nil {
		var sigErr *service.SignatureError
		switch {
		case errors.Is(err, service.ErrGatewayNotSpecified):
			respond(c, http.StatusBadRequest, false, "Payment gateway not specified", nil)
		case errors.Is(err, service.ErrUnknownWebhookSource):
			respond(c, http.StatusBadRequest, false, "Unknown webhook source", nil)
		case errors.As(err, &sigErr):
			respond(c, http.StatusForbidden, false, sigErr.Error(), nil)
		default:
			util.GetLogger().Error("Webhook processing failed", zap.Error(err))
			respond(c, http.StatusInternalServerError, false, "Internal server error", nil)
		}
		return
	}

	respond(c, http.StatusOK, true, message, nil)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
