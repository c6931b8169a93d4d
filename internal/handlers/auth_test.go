package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/nexusshop/backend/internal/models"
)

var (
	testJWTSecret     = []byte("test-jwt-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

func registerAndLogin(t *testing.T, h *AuthHandler, e *echo.Echo) (string, string) {
	t.Helper()
	creds := map[string]string{
		"email":      "customer@example.com",
		"password":   "password",
		"first_name": "Jane",
		"last_name":  "Doe",
	}
	rec, c := doJSON(t, e, http.MethodPost, "/api/v1/register", creds, 0)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, c = doJSON(t, e, http.MethodPost, "/api/v1/login", creds, 0)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	return resp.AccessToken, resp.RefreshToken
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}
	e := echo.New()

	registerAndLogin(t, h, e)

	var user models.User
	require.NoError(t, db.Where("email = ?", "customer@example.com").First(&user).Error)
	require.Equal(t, "user", user.Role)
	require.NotEqual(t, "password", user.PasswordHash)

	var tokens int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&tokens).Error)
	require.Equal(t, int64(1), tokens)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}
	e := echo.New()

	creds := map[string]string{"email": "customer@example.com", "password": "password"}
	_, c := doJSON(t, e, http.MethodPost, "/api/v1/register", creds, 0)
	require.NoError(t, h.Register(c))

	_, c = doJSON(t, e, http.MethodPost, "/api/v1/register", creds, 0)
	require.Equal(t, http.StatusConflict, httpError(t, h.Register(c)).Code)
}

func TestRegisterDBFailureIsNotConflict(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}
	e := echo.New()

	// A broken storage layer must surface as 500, not as "already exists".
	require.NoError(t, db.Migrator().DropTable(&models.User{}))

	creds := map[string]string{"email": "customer@example.com", "password": "password"}
	_, c := doJSON(t, e, http.MethodPost, "/api/v1/register", creds, 0)
	require.Equal(t, http.StatusInternalServerError, httpError(t, h.Register(c)).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}
	e := echo.New()

	creds := map[string]string{"email": "customer@example.com", "password": "password"}
	_, c := doJSON(t, e, http.MethodPost, "/api/v1/register", creds, 0)
	require.NoError(t, h.Register(c))

	bad := map[string]string{"email": "customer@example.com", "password": "nope"}
	_, c = doJSON(t, e, http.MethodPost, "/api/v1/login", bad, 0)
	require.Equal(t, http.StatusUnauthorized, httpError(t, h.Login(c)).Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}
	e := echo.New()

	_, refreshToken := registerAndLogin(t, h, e)

	rec, c := doJSON(t, e, http.MethodPost, "/api/v1/logout", nil, 0)
	c.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken, Path: "/"})
	require.NoError(t, h.LogOut(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.RefreshToken
	require.NoError(t, db.Where("token = ?", refreshToken).First(&stored).Error)
	require.True(t, stored.Revoked)
}
