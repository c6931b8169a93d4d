package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nexusshop/backend/internal/models"
)

func TestGetCartCreatesLazily(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	e := echo.New()

	rec, c := doJSON(t, e, http.MethodGet, "/api/v1/cart", nil, 1)
	require.NoError(t, h.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var carts int64
	require.NoError(t, db.Model(&models.Cart{}).Count(&carts).Error)
	require.Equal(t, int64(1), carts)
}

func TestAddItemAndMerge(t *testing.T) {
	db := newTestDB(t)
	product := seedCatalog(t, db, "book", "15.00", 10)
	h := &CartHandler{DB: db}
	e := echo.New()

	body := map[string]uint{"product_id": product.ID, "quantity": 2}
	rec, c := doJSON(t, e, http.MethodPost, "/api/v1/cart/items", body, 1)
	require.NoError(t, h.AddItem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Adding the same product again merges instead of creating a second row.
	rec, c = doJSON(t, e, http.MethodPost, "/api/v1/cart/items", body, 1)
	require.NoError(t, h.AddItem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.CartItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 1)
	require.Equal(t, uint(4), items[0].Quantity)

	var resp struct {
		TotalPrice decimal.Decimal `json:"total_price"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.TotalPrice.Equal(decimal.RequireFromString("60.00")),
		"total was %s", resp.TotalPrice)
}

func TestAddItemRejectsOverStock(t *testing.T) {
	db := newTestDB(t)
	product := seedCatalog(t, db, "book", "15.00", 3)
	h := &CartHandler{DB: db}
	e := echo.New()

	body := map[string]uint{"product_id": product.ID, "quantity": 2}
	_, c := doJSON(t, e, http.MethodPost, "/api/v1/cart/items", body, 1)
	require.NoError(t, h.AddItem(c))

	// 2 already in the cart, 2 more would exceed the 3 in stock.
	_, c = doJSON(t, e, http.MethodPost, "/api/v1/cart/items", body, 1)
	err := h.AddItem(c)
	he := httpError(t, err)
	require.Equal(t, http.StatusBadRequest, he.Code)

	var items []models.CartItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 1)
	require.Equal(t, uint(2), items[0].Quantity)
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	db := newTestDB(t)
	product := seedCatalog(t, db, "book", "15.00", 5)
	h := &CartHandler{DB: db}
	e := echo.New()

	body := map[string]uint{"product_id": product.ID, "quantity": 0}
	_, c := doJSON(t, e, http.MethodPost, "/api/v1/cart/items", body, 1)
	require.Equal(t, http.StatusBadRequest, httpError(t, h.AddItem(c)).Code)

	var items int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&items).Error)
	require.Zero(t, items)
}

func TestUpdateItem(t *testing.T) {
	db := newTestDB(t)
	product := seedCatalog(t, db, "book", "15.00", 5)
	h := &CartHandler{DB: db}
	e := echo.New()

	body := map[string]uint{"product_id": product.ID, "quantity": 1}
	_, c := doJSON(t, e, http.MethodPost, "/api/v1/cart/items", body, 1)
	require.NoError(t, h.AddItem(c))

	var item models.CartItem
	require.NoError(t, db.First(&item).Error)

	rec, c := doJSON(t, e, http.MethodPatch, "/api/v1/cart/items/1", map[string]uint{"quantity": 5}, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateItem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, db.First(&item, item.ID).Error)
	require.Equal(t, uint(5), item.Quantity)

	// Over stock is rejected.
	_, c = doJSON(t, e, http.MethodPatch, "/api/v1/cart/items/1", map[string]uint{"quantity": 6}, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.Equal(t, http.StatusBadRequest, httpError(t, h.UpdateItem(c)).Code)
}

func TestRemoveItem(t *testing.T) {
	db := newTestDB(t)
	product := seedCatalog(t, db, "book", "15.00", 5)
	h := &CartHandler{DB: db}
	e := echo.New()

	body := map[string]uint{"product_id": product.ID, "quantity": 2}
	_, c := doJSON(t, e, http.MethodPost, "/api/v1/cart/items", body, 1)
	require.NoError(t, h.AddItem(c))

	rec, c := doJSON(t, e, http.MethodDelete, "/api/v1/cart/items/1", nil, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.RemoveItem(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	require.Zero(t, count)

	// Removing again is a 404.
	_, c = doJSON(t, e, http.MethodDelete, "/api/v1/cart/items/1", nil, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.Equal(t, http.StatusNotFound, httpError(t, h.RemoveItem(c)).Code)
}

func TestCartIsPerUser(t *testing.T) {
	db := newTestDB(t)
	product := seedCatalog(t, db, "book", "15.00", 5)
	h := &CartHandler{DB: db}
	e := echo.New()

	body := map[string]uint{"product_id": product.ID, "quantity": 2}
	_, c := doJSON(t, e, http.MethodPost, "/api/v1/cart/items", body, 1)
	require.NoError(t, h.AddItem(c))

	rec, c := doJSON(t, e, http.MethodGet, "/api/v1/cart", nil, 2)
	require.NoError(t, h.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []models.CartItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Items)
}
