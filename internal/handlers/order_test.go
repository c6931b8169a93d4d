package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nexusshop/backend/internal/models"
	"github.com/nexusshop/backend/internal/repo"
	"github.com/nexusshop/backend/internal/service/checkout"
)

func newOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{
		DB:       db,
		Checkout: &checkout.Service{Store: repo.NewGormStore(db)},
	}
}

func fillCart(t *testing.T, db *gorm.DB, userID, productID, quantity uint) {
	t.Helper()
	cart := models.Cart{UserID: userID}
	require.NoError(t, db.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error)
	require.NoError(t, db.Create(&models.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	}).Error)
}

func TestCreateOrderEndpoint(t *testing.T) {
	db := newTestDB(t)
	product := seedCatalog(t, db, "The Great Gatsby", "15.00", 5)
	fillCart(t, db, 1, product.ID, 2)

	h := newOrderHandler(db)
	e := echo.New()

	rec, c := doJSON(t, e, http.MethodPost, "/api/v1/orders", nil, 1)
	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, models.StatusPending, resp.Status)
	require.True(t, resp.TotalPrice.Equal(decimal.RequireFromString("30.00")))
	require.Len(t, resp.Items, 1)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	require.Equal(t, uint(3), reloaded.Stock)
}

func TestCreateOrderEndpointEmptyCart(t *testing.T) {
	db := newTestDB(t)
	h := newOrderHandler(db)
	e := echo.New()

	_, c := doJSON(t, e, http.MethodPost, "/api/v1/orders", nil, 1)
	require.Equal(t, http.StatusBadRequest, httpError(t, h.CreateOrder(c)).Code)
}

func TestCreateOrderEndpointInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	product := seedCatalog(t, db, "book", "15.00", 1)
	fillCart(t, db, 1, product.ID, 2)

	h := newOrderHandler(db)
	e := echo.New()

	_, c := doJSON(t, e, http.MethodPost, "/api/v1/orders", nil, 1)
	err := h.CreateOrder(c)
	he := httpError(t, err)
	require.Equal(t, http.StatusBadRequest, he.Code)

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.Zero(t, orders)
}

func TestGetOrdersOwnership(t *testing.T) {
	db := newTestDB(t)
	product := seedCatalog(t, db, "book", "15.00", 5)
	fillCart(t, db, 1, product.ID, 1)

	h := newOrderHandler(db)
	e := echo.New()

	_, c := doJSON(t, e, http.MethodPost, "/api/v1/orders", nil, 1)
	require.NoError(t, h.CreateOrder(c))

	rec, c := doJSON(t, e, http.MethodGet, "/api/v1/orders", nil, 1)
	require.NoError(t, h.GetOrders(c))
	var mine []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)

	rec, c = doJSON(t, e, http.MethodGet, "/api/v1/orders", nil, 2)
	require.NoError(t, h.GetOrders(c))
	var others []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &others))
	require.Empty(t, others)

	// Retrieving someone else's order by id is a 404.
	_, c = doJSON(t, e, http.MethodGet, "/api/v1/orders/1", nil, 2)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.Equal(t, http.StatusNotFound, httpError(t, h.GetOrder(c)).Code)
}
