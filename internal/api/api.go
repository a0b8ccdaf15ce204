package api

import (
	"errors"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"net/http"
	"order-intake-service/internal/catalog"
	"order-intake-service/internal/document"
	"order-intake-service/internal/entity"
	"order-intake-service/internal/repository"
	"order-intake-service/internal/service"
	"order-intake-service/internal/session"
	"os"
	"strconv"
)

type OrderHandler struct {
	orderService *service.OrderService
	documents    *document.FileStore
}

func NewOrderHandler(orderService *service.OrderService, documents *document.FileStore) *OrderHandler {
	return &OrderHandler{orderService: orderService, documents: documents}
}

type cartView struct {
	SessionID string            `json:"session_id"`
	Items     []entity.LineItem `json:"items"`
	Total     decimal.Decimal   `json:"total"`
}

func newCartView(id string, cart *service.Cart) cartView {
	return cartView{SessionID: id, Items: cart.Items(), Total: cart.Total()}
}

// CreateCart opens a cart session --> POST /carts
func (h *OrderHandler) CreateCart(c echo.Context) error {
	id, err := h.orderService.CreateCart(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(201, cartView{SessionID: id, Items: []entity.LineItem{}, Total: decimal.Zero})
}

// GetCart --> GET /carts/:id
func (h *OrderHandler) GetCart(c echo.Context) error {
	id := c.Param("id")
	cart, err := h.orderService.GetCart(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, newCartView(id, cart))
}

// AddItem --> POST /carts/:id/items
func (h *OrderHandler) AddItem(c echo.Context) error {
	req := struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	id := c.Param("id")
	cart, err := h.orderService.AddItem(c.Request().Context(), id, req.Product, req.Quantity)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, newCartView(id, cart))
}

// RemoveItem --> DELETE /carts/:id/items/:index
func (h *OrderHandler) RemoveItem(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid index"})
	}

	id := c.Param("id")
	cart, err := h.orderService.RemoveItem(c.Request().Context(), id, index)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, newCartView(id, cart))
}

// ClearCart --> DELETE /carts/:id/items
func (h *OrderHandler) ClearCart(c echo.Context) error {
	id := c.Param("id")
	cart, err := h.orderService.ClearCart(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, newCartView(id, cart))
}

// Submit --> POST /carts/:id/submit
func (h *OrderHandler) Submit(c echo.Context) error {
	customer := entity.Customer{}
	if err := c.Bind(&customer); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	key := c.Request().Header.Get("Idempotent-Key")
	result, err := h.orderService.Submit(c.Request().Context(), c.Param("id"), customer, key)
	if err != nil {
		return errorJSON(c, err)
	}

	if result.Status == service.SubmitNotifyFailed {
		return c.JSON(202, result)
	}
	return c.JSON(201, result)
}

// GetOrders --> GET /orders/:cedula
func (h *OrderHandler) GetOrders(c echo.Context) error {
	entries, err := h.orderService.OrderHistory(c.Request().Context(), c.Param("cedula"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, entries)
}

// GetDocument serves the last document generated for a cédula --> GET /orders/:cedula/document
func (h *OrderHandler) GetDocument(c echo.Context) error {
	cedula := c.Param("cedula")
	path, err := h.documents.Path(cedula)
	if errors.Is(err, os.ErrNotExist) {
		return c.JSON(404, map[string]string{"error": "Document not found"})
	}
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.Attachment(path, document.FileName(cedula))
}

func errorJSON(c echo.Context, err error) error {
	var missing *service.MissingFieldError
	var persistence *repository.PersistenceError
	var render *document.RenderError

	status := http.StatusInternalServerError
	body := map[string]string{"error": err.Error()}
	switch {
	case errors.As(err, &missing):
		status = http.StatusUnprocessableEntity
		body["field"] = missing.Field
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, service.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateSubmission):
		status = http.StatusConflict
	case service.IsValidationError(err):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &persistence), errors.As(err, &render):
		status = http.StatusInternalServerError
	}
	return c.JSON(status, body)
}

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(productCatalog *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: productCatalog}
}

// GetProducts --> GET /catalog/products?category=
func (h *CatalogHandler) GetProducts(c echo.Context) error {
	category := c.QueryParam("category")
	if category == "" {
		return c.JSON(200, h.catalog.Products())
	}
	products := h.catalog.ByCategory(category)
	if products == nil {
		products = []entity.Product{}
	}
	return c.JSON(200, products)
}

// GetCategories --> GET /catalog/categories
func (h *CatalogHandler) GetCategories(c echo.Context) error {
	return c.JSON(200, h.catalog.Categories())
}

// GetProduct --> GET /catalog/products/:name
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	product, ok := h.catalog.Get(c.Param("name"))
	if !ok {
		return c.JSON(404, map[string]string{"error": "Product not found"})
	}
	return c.JSON(200, product)
}
