package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	token, err := GenerateToken(42, "wallet42")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "wallet42", claims.WalletAddress)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	InitJWT("one", time.Hour)
	token, err := GenerateToken(1, "w")
	require.NoError(t, err)

	InitJWT("two", time.Hour)
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

type memberMap map[uint]string

func (m memberMap) WalletOf(_ context.Context, userID uint) (string, bool, error) {
	if userID == 500 {
		return "", false, errors.New("connection refused")
	}
	wallet, ok := m[userID]
	return wallet, ok, nil
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitJWT("test-secret", time.Hour)

	router := gin.New()
	router.GET("/me", AuthMiddleware(memberMap{9: "w9"}), func(c *gin.Context) {
		id, ok := GetUserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := GenerateToken(9, "w9")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":9}`, w.Body.String())
}

func TestAuthMiddlewareRejectsStaleMembers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitJWT("test-secret", time.Hour)

	router := gin.New()
	router.GET("/me", AuthMiddleware(memberMap{9: "w9", 10: "w10-new"}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	call := func(userID uint, wallet string) int {
		token, err := GenerateToken(userID, wallet)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call(9, "w9"))
	assert.Equal(t, http.StatusUnauthorized, call(10, "w10-old"), "wallet changed since the token was issued")
	assert.Equal(t, http.StatusUnauthorized, call(11, "w11"), "unknown member")
	assert.Equal(t, http.StatusInternalServerError, call(500, "w500"))
}
