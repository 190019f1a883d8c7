package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matheusmosca/blueprint-storefront/internal/apperrors"
	"github.com/matheusmosca/blueprint-storefront/internal/sellers"
	"github.com/matheusmosca/blueprint-storefront/internal/storefront"
	"github.com/matheusmosca/blueprint-storefront/internal/views"
)

const (
	sellerHeader = "X-Seller-ID"
	adminHeader  = "X-Admin-Token"
	sellerKey    = "seller_id"
)

// StorefrontService define a interface do serviço usada pelos handlers
type StorefrontService interface {
	SubmitOrder(ctx context.Context, submission storefront.Submission) (string, error)
	GetSupply(ctx context.Context) (map[string]sellers.Supply, error)

	GetOrdersForSeller(ctx context.Context, sellerID string) ([]views.SellerOrderView, error)
	GetArchivedOrdersForSeller(ctx context.Context, sellerID string) ([]views.SellerOrderView, error)
	GetOrderForSeller(ctx context.Context, orderID, sellerID string) (views.SellerOrderView, error)
	PerformSellerAction(ctx context.Context, orderID, sellerID string, action storefront.SellerAction) storefront.ActionResult

	RegisterSeller(ctx context.Context, discordHandle string) (sellers.Seller, error)
	GetSeller(ctx context.Context, sellerID string) (sellers.Seller, error)
	UpdateInventory(ctx context.Context, sellerID string, updates []sellers.InventoryUpdate) (sellers.Seller, error)

	GetOrdersForAdmin(ctx context.Context, filter views.AdminFilter) ([]views.AdminOrderView, error)
	GetOrderForAdmin(ctx context.Context, orderID string) (views.AdminOrderView, error)
	AdminClose(ctx context.Context, orderID string) (views.AdminOrderView, error)
	AdminCancel(ctx context.Context, orderID string) (views.AdminOrderView, error)
	AdminDeleteOrder(ctx context.Context, orderID string) error
	AdminClearAll(ctx context.Context) (int, error)
	ListSellers(ctx context.Context) ([]sellers.Seller, error)
	SetSellerStatus(ctx context.Context, sellerID string, status sellers.Status) (sellers.Seller, error)
	DeleteSeller(ctx context.Context, sellerID string) error
}

// RegisterSellerRequest representa a requisição de cadastro de vendedor
type RegisterSellerRequest struct {
	DiscordHandle string `json:"discordHandle" binding:"required"`
}

// UpdateInventoryRequest representa uma atualização de estoque em lote
type UpdateInventoryRequest struct {
	Updates []sellers.InventoryUpdate `json:"updates" binding:"required"`
}

// SetStatusRequest representa a troca de status de um vendedor
type SetStatusRequest struct {
	Status sellers.Status `json:"status" binding:"required"`
}

// StorefrontHandler contém os handlers HTTP
type StorefrontHandler struct {
	service    StorefrontService
	adminToken string
	logger     *zap.Logger
}

// NewStorefrontHandler cria uma nova instância de StorefrontHandler
func NewStorefrontHandler(service StorefrontService, adminToken string, logger *zap.Logger) *StorefrontHandler {
	return &StorefrontHandler{service: service, adminToken: adminToken, logger: logger}
}

// Register monta as rotas no router
func (h *StorefrontHandler) Register(r *gin.Engine) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	api.POST("/orders", h.SubmitOrder)
	api.GET("/catalog/supply", h.GetSupply)
	api.POST("/sellers", h.RegisterSeller)

	seller := api.Group("/seller", h.requireSeller)
	seller.GET("/me", h.GetMe)
	seller.PUT("/inventory", h.UpdateInventory)
	seller.GET("/orders", h.ListSellerOrders)
	seller.GET("/orders/archived", h.ListArchivedSellerOrders)
	seller.GET("/orders/:id", h.GetSellerOrder)
	seller.POST("/orders/:id/actions", h.PerformAction)

	admin := api.Group("/admin", h.requireAdmin)
	admin.GET("/orders", h.ListAdminOrders)
	admin.DELETE("/orders", h.ClearOrders)
	admin.GET("/orders/:id", h.GetAdminOrder)
	admin.POST("/orders/:id/close", h.CloseOrder)
	admin.POST("/orders/:id/cancel", h.CancelOrder)
	admin.DELETE("/orders/:id", h.DeleteOrder)
	admin.GET("/sellers", h.ListSellers)
	admin.PUT("/sellers/:id/status", h.SetSellerStatus)
	admin.DELETE("/sellers/:id", h.DeleteSeller)
}

// HealthCheck verifica se o serviço está saudável
func (h *StorefrontHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "storefront"})
}

// SubmitOrder recebe o pedido do comprador
func (h *StorefrontHandler) SubmitOrder(c *gin.Context) {
	var req storefront.Submission
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	orderID, err := h.service.SubmitOrder(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"orderId": orderID})
}

// GetSupply retorna o estoque agregado dos vendedores ativos
func (h *StorefrontHandler) GetSupply(c *gin.Context) {
	supply, err := h.service.GetSupply(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"supply": supply})
}

func (h *StorefrontHandler) RegisterSeller(c *gin.Context) {
	var req RegisterSellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	seller, err := h.service.RegisterSeller(c.Request.Context(), req.DiscordHandle)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, seller)
}

func (h *StorefrontHandler) GetMe(c *gin.Context) {
	seller, err := h.service.GetSeller(c.Request.Context(), c.GetString(sellerKey))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seller)
}

func (h *StorefrontHandler) UpdateInventory(c *gin.Context) {
	var req UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	seller, err := h.service.UpdateInventory(c.Request.Context(), c.GetString(sellerKey), req.Updates)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seller)
}

func (h *StorefrontHandler) ListSellerOrders(c *gin.Context) {
	list, err := h.service.GetOrdersForSeller(c.Request.Context(), c.GetString(sellerKey))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *StorefrontHandler) ListArchivedSellerOrders(c *gin.Context) {
	list, err := h.service.GetArchivedOrdersForSeller(c.Request.Context(), c.GetString(sellerKey))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *StorefrontHandler) GetSellerOrder(c *gin.Context) {
	view, err := h.service.GetOrderForSeller(c.Request.Context(), c.Param("id"), c.GetString(sellerKey))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PerformAction executa uma ação do vendedor sobre o pedido
func (h *StorefrontHandler) PerformAction(c *gin.Context) {
	var req storefront.SellerAction
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := h.service.PerformSellerAction(c.Request.Context(), c.Param("id"), c.GetString(sellerKey), req)
	status := http.StatusOK
	if !result.Success {
		status = statusFor(result.Kind)
	}
	c.JSON(status, result)
}

func (h *StorefrontHandler) ListAdminOrders(c *gin.Context) {
	filter, err := views.ParseAdminFilter(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := h.service.GetOrdersForAdmin(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *StorefrontHandler) GetAdminOrder(c *gin.Context) {
	view, err := h.service.GetOrderForAdmin(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *StorefrontHandler) CloseOrder(c *gin.Context) {
	view, err := h.service.AdminClose(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *StorefrontHandler) CancelOrder(c *gin.Context) {
	view, err := h.service.AdminCancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *StorefrontHandler) DeleteOrder(c *gin.Context) {
	if err := h.service.AdminDeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearOrders remove todos os pedidos
func (h *StorefrontHandler) ClearOrders(c *gin.Context) {
	n, err := h.service.AdminClearAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedCount": n})
}

func (h *StorefrontHandler) ListSellers(c *gin.Context) {
	list, err := h.service.ListSellers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sellers": list})
}

func (h *StorefrontHandler) SetSellerStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	seller, err := h.service.SetSellerStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seller)
}

func (h *StorefrontHandler) DeleteSeller(c *gin.Context) {
	if err := h.service.DeleteSeller(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requireSeller exige o header de identificação do vendedor
func (h *StorefrontHandler) requireSeller(c *gin.Context) {
	sellerID := c.GetHeader(sellerHeader)
	if sellerID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + sellerHeader + " header"})
		return
	}
	c.Set(sellerKey, sellerID)
	c.Next()
}

// requireAdmin exige o token de administrador
func (h *StorefrontHandler) requireAdmin(c *gin.Context) {
	if h.adminToken == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access is not configured"})
		return
	}
	token := c.GetHeader(adminHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin token"})
		return
	}
	c.Next()
}

func (h *StorefrontHandler) respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)
	if kind == apperrors.KindInfrastructure {
		h.logger.Error("❌ Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "the storefront is temporarily unavailable, please try again", "code": apperrors.CodeOf(err)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": apperrors.CodeOf(err)})
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindPartialFailure:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger registra cada requisição no logger estruturado
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
