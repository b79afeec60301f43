package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cart-service/internal/cart"
	"cart-service/internal/catalog"
	"cart-service/internal/coupon"
	"cart-service/internal/currency"
	"cart-service/internal/entity"
	"cart-service/internal/pricing"
	"cart-service/internal/session"
)

// SessionHeader carries the session id when JWT auth is disabled.
const SessionHeader = "Session-Id"

// ProductFetcher looks up catalog products.
type ProductFetcher interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
	GetProduct(ctx context.Context, productID int) (*entity.Product, error)
}

type CartHandler struct {
	sessions *session.Manager
	table    *currency.Table
	catalog  ProductFetcher
}

// NewCartHandler creates a CartHandler. catalog may be nil, which disables adding by catalog id.
func NewCartHandler(sessions *session.Manager, table *currency.Table, catalog ProductFetcher) *CartHandler {
	return &CartHandler{sessions: sessions, table: table, catalog: catalog}
}

// RegisterRoutes mounts the cart endpoints on e.
func RegisterRoutes(e *echo.Echo, h *CartHandler, middleware ...echo.MiddlewareFunc) {
	g := e.Group("/cart", middleware...)
	g.GET("", h.GetCart)
	g.DELETE("", h.ClearCart)
	g.GET("/summary", h.GetSummary)
	g.POST("/items", h.AddItem)
	g.POST("/items/catalog/:id", h.AddCatalogItem)
	g.PUT("/items/:id", h.UpdateQuantity)
	g.DELETE("/items/:id", h.RemoveItem)
	g.POST("/coupon", h.ApplyCoupon)
	g.DELETE("/coupon", h.RemoveCoupon)
	g.PUT("/currency", h.SetCurrency)

	e.GET("/currencies", h.ListCurrencies)
	e.GET("/catalog/products", h.ListProducts)
}

type formattedSummary struct {
	Subtotal       string `json:"subtotal"`
	DeliveryFee    string `json:"delivery_fee"`
	DeliveryCharge string `json:"delivery_charge"`
	DiscountAmount string `json:"discount_amount"`
	Total          string `json:"total"`
}

type summaryResponse struct {
	entity.OrderSummary
	Formatted formattedSummary `json:"formatted"`
}

type cartResponse struct {
	Currency string             `json:"currency"`
	Items    []entity.CartLine  `json:"items"`
	Coupon   entity.CouponState `json:"coupon"`
	Summary  summaryResponse    `json:"summary"`
	Degraded bool               `json:"degraded,omitempty"` // state is not being persisted
	Message  string             `json:"message,omitempty"`
}

// GetCart returns the lines, coupon and summary --> GET /cart
func (h *CartHandler) GetCart(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorJSON(c, err)
	}
	return h.respond(c, http.StatusOK, s, "")
}

// GetSummary returns the presented order summary --> GET /cart/summary
func (h *CartHandler) GetSummary(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorJSON(c, err)
	}
	summary, err := h.summary(s)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// AddItem adds the posted product --> POST /cart/items
func (h *CartHandler) AddItem(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorJSON(c, err)
	}

	var product entity.Product
	if err := c.Bind(&product); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}
	if _, err := s.AddItem(c.Request().Context(), product); err != nil {
		return errorJSON(c, err)
	}
	return h.respond(c, http.StatusOK, s, "")
}

// AddCatalogItem fetches a product from the catalog and adds it --> POST /cart/items/catalog/:id
func (h *CartHandler) AddCatalogItem(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorJSON(c, err)
	}
	if h.catalog == nil {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "catalog not configured"})
	}

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}

	ctx := c.Request().Context()
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		return errorJSON(c, err)
	}
	if _, err := s.AddItem(ctx, *product); err != nil {
		return errorJSON(c, err)
	}
	return h.respond(c, http.StatusOK, s, "")
}

// UpdateQuantity sets a line's quantity --> PUT /cart/items/:id
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorJSON(c, err)
	}

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}

	var req struct {
		Quantity json.Number `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.Quantity == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}
	quantity, err := req.Quantity.Int64()
	if err != nil {
		return errorJSON(c, cart.ErrInvalidQuantity)
	}

	if err := s.UpdateQuantity(c.Request().Context(), productID, quantity); err != nil {
		return errorJSON(c, err)
	}
	return h.respond(c, http.StatusOK, s, "")
}

// RemoveItem deletes a line --> DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorJSON(c, err)
	}

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}
	if err := s.RemoveItem(c.Request().Context(), productID); err != nil {
		return errorJSON(c, err)
	}
	return h.respond(c, http.StatusOK, s, "")
}

// ClearCart resets the session --> DELETE /cart
func (h *CartHandler) ClearCart(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorJSON(c, err)
	}
	s.Clear(c.Request().Context())
	return h.respond(c, http.StatusOK, s, "Cart cleared.")
}

// ApplyCoupon applies a whole-order coupon --> POST /cart/coupon
func (h *CartHandler) ApplyCoupon(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorJSON(c, err)
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	// the storefront disables the input once a coupon is applied
	if s.Coupon().Applied {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Coupon already applied"})
	}

	switch s.ApplyCoupon(c.Request().Context(), req.Code) {
	case coupon.OutcomeApplied:
		msg := "Coupon code applied! " + s.Coupon().DiscountPercent.String() + "% discount."
		return h.respond(c, http.StatusOK, s, msg)
	case coupon.OutcomeAlreadyApplied:
		return c.JSON(http.StatusConflict, map[string]string{"error": "Coupon already applied"})
	default:
		return h.respond(c, http.StatusUnprocessableEntity, s, "Enter correct coupon code.")
	}
}

// RemoveCoupon drops the coupon --> DELETE /cart/coupon
func (h *CartHandler) RemoveCoupon(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorJSON(c, err)
	}
	s.RemoveCoupon(c.Request().Context())
	return h.respond(c, http.StatusOK, s, "Coupon code removed.")
}

// SetCurrency switches the display currency --> PUT /cart/currency
func (h *CartHandler) SetCurrency(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorJSON(c, err)
	}

	var req struct {
		Currency string `json:"currency"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}
	if err := s.SetCurrency(c.Request().Context(), req.Currency); err != nil {
		return errorJSON(c, err)
	}
	return h.respond(c, http.StatusOK, s, "")
}

// ListCurrencies returns the supported display currencies --> GET /currencies
func (h *CartHandler) ListCurrencies(c echo.Context) error {
	type currencyView struct {
		Code   string `json:"code"`
		Rate   string `json:"rate"`
		Symbol string `json:"symbol"`
	}

	views := make([]currencyView, 0, len(h.table.Codes()))
	for _, code := range h.table.Codes() {
		cur, err := h.table.Lookup(code)
		if err != nil {
			return errorJSON(c, err)
		}
		views = append(views, currencyView{Code: cur.Code, Rate: cur.Rate.String(), Symbol: cur.Symbol})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reference":  h.table.Reference(),
		"currencies": views,
	})
}

// ListProducts returns the catalog with its new, hot and discount markers --> GET /catalog/products
func (h *CartHandler) ListProducts(c echo.Context) error {
	if h.catalog == nil {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "catalog not configured"})
	}
	products, err := h.catalog.ListProducts(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CartHandler) respond(c echo.Context, status int, s *session.Session, message string) error {
	summary, err := h.summary(s)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(status, cartResponse{
		Currency: s.Currency(),
		Items:    s.Items(),
		Coupon:   s.Coupon(),
		Summary:  summary,
		Degraded: s.Degraded(),
		Message:  message,
	})
}

func (h *CartHandler) summary(s *session.Session) (summaryResponse, error) {
	raw, err := s.Summary()
	if err != nil {
		return summaryResponse{}, err
	}

	presented := pricing.Present(raw, h.table)
	code := presented.Currency
	return summaryResponse{
		OrderSummary: presented,
		Formatted: formattedSummary{
			Subtotal:       h.table.Format(presented.Subtotal, code),
			DeliveryFee:    h.table.Format(presented.DeliveryFee, code),
			DeliveryCharge: h.table.Format(presented.DeliveryCharge, code),
			DiscountAmount: h.table.Format(presented.DiscountAmount, code),
			Total:          h.table.Format(presented.Total, code),
		},
	}, nil
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errMissingSession),
		errors.Is(err, currency.ErrUnknownCurrency),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidProduct):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
