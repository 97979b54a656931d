package handlers

import (
	"math"
	"net/http"

	"shoppinglist/internal/middleware"
	"shoppinglist/internal/models"

	"github.com/gin-gonic/gin"
)

// ListStore is the part of the shopping list store the HTTP layer drives
type ListStore interface {
	State() models.ShoppingListState
	AddItem(name string, quantity models.Quantity, unit string) models.ShoppingListState
	EditItem(id int64, name string, quantity models.Quantity, unit string) models.ShoppingListState
	MarkPurchased(id int64) models.ShoppingListState
	DeleteItem(id int64) models.ShoppingListState
}

// ItemHandler exposes the shopping list over HTTP. Every mutation answers
// with the list as it stands after the change; an unknown id leaves the list
// untouched and is not an error.
type ItemHandler struct {
	store ListStore
}

// NewItemHandler creates a new item handler
func NewItemHandler(store ListStore) *ItemHandler {
	return &ItemHandler{store: store}
}

// GetItems handles GET /items
func (h *ItemHandler) GetItems(c *gin.Context) {
	c.JSON(http.StatusOK, listResponse(h.store.State()))
}

// AddItem handles POST /items
func (h *ItemHandler) AddItem(c *gin.Context) {
	req, ok := bindItemRequest(c)
	if !ok {
		return
	}

	state := h.store.AddItem(req.Name, req.Quantity, req.Unit)
	c.JSON(http.StatusCreated, models.ItemResponse{
		Item:  state.List[len(state.List)-1],
		Items: state.List,
	})
}

// EditItem handles PUT /items/:itemId
func (h *ItemHandler) EditItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	req, ok := bindItemRequest(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, listResponse(h.store.EditItem(id, req.Name, req.Quantity, req.Unit)))
}

// MarkPurchased handles POST /items/:itemId/purchase. It toggles the flag.
func (h *ItemHandler) MarkPurchased(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, listResponse(h.store.MarkPurchased(id)))
}

// DeleteItem handles DELETE /items/:itemId
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, listResponse(h.store.DeleteItem(id)))
}

// bindItemRequest decodes the body. A missing quantity reads as NaN, the
// same as an empty quantity field.
func bindItemRequest(c *gin.Context) (models.ItemRequest, bool) {
	req := models.ItemRequest{Quantity: models.Quantity(math.NaN())}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "INVALID_INPUT",
			Message: "Invalid request body",
			Details: map[string]interface{}{"error": err.Error()},
		})
		return req, false
	}
	return req, true
}

// itemID reads the id parsed by middleware.ItemIDValidator, falling back to
// the raw path parameter when the handler is mounted without it
func itemID(c *gin.Context) (int64, bool) {
	if id, ok := middleware.GetItemID(c); ok {
		return id, true
	}
	if id, ok := middleware.ParseItemID(c.Param("itemId")); ok {
		return id, true
	}

	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    "INVALID_ITEM_ID",
		Message: "Item id must be a positive integer",
	})
	return 0, false
}

func listResponse(state models.ShoppingListState) models.ListResponse {
	items := state.List
	if items == nil {
		items = []models.ShoppingItem{}
	}
	return models.ListResponse{Items: items}
}
