package router

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/catalog"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

type Handler struct {
	catalog  CatalogService
	sessions CartSessions
	health   func(ctx context.Context) error
	logger   *zap.Logger
}

// CartView is the cart as the storefront UI renders it.
type CartView struct {
	Status       cart.Status  `json:"status"`
	Version      uint64       `json:"version"`
	Open         bool         `json:"open"`
	ItemCount    int          `json:"item_count"`
	DisplayTotal string       `json:"display_total"`
	CheckoutURL  string       `json:"checkout_url,omitempty"`
	Cart         *models.Cart `json:"cart,omitempty"`
	Error        string       `json:"error,omitempty"`
}

func cartView(s cart.Snapshot) CartView {
	v := CartView{
		Status:       s.Status,
		Version:      s.Version,
		Open:         s.Open,
		ItemCount:    s.ItemCount(),
		DisplayTotal: s.DisplayTotal(),
		CheckoutURL:  s.CheckoutURL(),
		Cart:         s.Cart,
	}
	if s.Err != nil {
		v.Error = s.Err.Error()
	}
	return v
}

func (h *Handler) HealthCheck(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, global.ErrorResponse("Backend unavailable", nil))
			return
		}
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]string{"status": "OK"}))
}

func (h *Handler) GetCategories(c *gin.Context) {
	categories := append([]models.Category{models.CategoryAll}, models.Categories...)
	c.JSON(http.StatusOK, global.SuccessResponse(categories))
}

// GetProducts lists the catalog filtered by ?category=, ?q= and one parameter per facet.
func (h *Handler) GetProducts(c *gin.Context) {
	state, err := catalog.ParseFilterState(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid filter", []global.ValidationError{
			{Field: "category", Message: err.Error(), Code: "invalid_value"},
		}))
		return
	}

	products, err := h.catalog.Filter(c.Request.Context(), state)
	if err != nil {
		h.respondError(c, "Failed to get products", err)
		return
	}

	c.Header("X-Total-Count", strconv.Itoa(len(products)))
	c.JSON(http.StatusOK, global.SuccessResponse(products))
}

func (h *Handler) GetProductByHandle(c *gin.Context) {
	handle := c.Param("handle")
	if len(handle) > 255 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid handle", []global.ValidationError{
			{Field: "handle", Message: "handle must be at most 255 characters", Code: "invalid_format"},
		}))
		return
	}

	product, cached, err := h.catalog.ProductByHandle(c.Request.Context(), handle)
	if err != nil {
		h.respondError(c, "Failed to fetch product", err)
		return
	}

	if cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, global.SuccessResponse(product))
}

func (h *Handler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Search query required", []global.ValidationError{
			{Field: "q", Message: "q query parameter is required", Code: "required"},
		}))
		return
	}

	products, err := h.catalog.Search(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, "Search failed", err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(products)))
	c.JSON(http.StatusOK, global.SuccessResponse(products))
}

func (h *Handler) GetFacets(c *gin.Context) {
	facets, err := h.catalog.Facets(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to get facets", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(facets))
}

// machine returns the session's ready cart, or writes the error response.
func (h *Handler) machine(c *gin.Context) (*cart.Machine, bool) {
	m, err := h.sessions.Ready(c.Request.Context(), c.GetString(sessionKey))
	if err != nil {
		h.respondError(c, "Cart unavailable", err)
		return nil, false
	}
	return m, true
}

func (h *Handler) GetCart(c *gin.Context) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cartView(m.Snapshot())))
}

func (h *Handler) AddToCart(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", bindingErrors(err)))
		return
	}
	m, ok := h.machine(c)
	if !ok {
		return
	}
	if err := m.AddItem(c.Request.Context(), req.VariantID, req.Quantity); err != nil {
		h.respondError(c, "Failed to add item", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cartView(m.Snapshot())))
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", bindingErrors(err)))
		return
	}
	m, ok := h.machine(c)
	if !ok {
		return
	}
	if err := m.UpdateItem(c.Request.Context(), c.Param("lineId"), req.Quantity); err != nil {
		h.respondError(c, "Failed to update item", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cartView(m.Snapshot())))
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	if err := m.RemoveItem(c.Request.Context(), c.Param("lineId")); err != nil {
		h.respondError(c, "Failed to remove item", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cartView(m.Snapshot())))
}

// SetCartPanel opens or closes the cart panel. It never touches cart contents.
func (h *Handler) SetCartPanel(c *gin.Context) {
	var req models.CartPanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", bindingErrors(err)))
		return
	}
	m, ok := h.machine(c)
	if !ok {
		return
	}
	m.SetPanelOpen(*req.Open)
	if !*req.Open {
		m.DismissError()
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cartView(m.Snapshot())))
}
