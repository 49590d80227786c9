package handlers

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mlm-platform/internal/auth"
	"mlm-platform/internal/config"
	"mlm-platform/internal/models"
	"mlm-platform/internal/repository"
	"mlm-platform/internal/services"
	"mlm-platform/internal/testutil"
)

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
	codes  *services.ActivationCodeService
	admins *services.AdminService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.InitJWT("handler-test-secret", time.Hour)

	db := testutil.NewTestDB(t)
	repo := repository.NewRepository(db)
	cfg := config.DefaultNetworkConfig()

	rewards := services.NewRewardService(repo)
	users := services.NewUserService(repo)
	commissions := services.NewCommissionService(repo, cfg)
	network := services.NewNetworkService(repo, rewards, cfg)
	activation := services.NewActivationService(repo, commissions, network, rewards, cfg)
	codes := services.NewActivationCodeService(repo, config.CodesConfig{TTL: time.Hour, BatchMax: 10})
	payouts := services.NewPayoutService(repo)
	admins := services.NewAdminService(repo)

	authHandler := NewAuthHandler(services.NewAuthService(users), users)
	userHandler := NewUserHandler(users)
	activationHandler := NewActivationHandler(activation, codes)
	rewardHandler := NewRewardHandler(rewards)
	adminHandler := NewAdminHandler(db, admins, activation, codes, rewards, payouts, services.NewTallyService(repo, config.DefaultNetworkConfig()))

	router := gin.New()
	router.POST("/auth/wallet", authHandler.WalletLogin)
	api := router.Group("/api", auth.AuthMiddleware(users))
	api.GET("/user/profile", userHandler.GetProfile)
	api.POST("/activation/code", activationHandler.ActivateWithCode)
	api.GET("/rewards", rewardHandler.GetRewards)
	api.POST("/rewards/:id/claim", rewardHandler.ClaimReward)
	admin := router.Group("/api/admin", auth.AuthMiddleware(users), adminHandler.AdminMiddleware())
	admin.POST("/users/:id/activate", adminHandler.RequirePermission("direct_activate"), adminHandler.ActivateUser)

	return &testServer{db: db, router: router, codes: codes, admins: admins}
}

func (s *testServer) do(t *testing.T, method, path string, userID uint, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		wallet := fmt.Sprintf("wallet-%d", userID)
		var member models.User
		if err := s.db.First(&member, userID).Error; err == nil {
			wallet = member.WalletAddress
		}
		token, err := auth.GenerateToken(userID, wallet)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		services.ErrNotFound:                         http.StatusNotFound,
		fmt.Errorf("user: %w", services.ErrNotFound): http.StatusNotFound,
		services.ErrAlreadyActive:                    http.StatusConflict,
		services.ErrAlreadyClaimed:                   http.StatusConflict,
		services.ErrInvalidAuthorization:             http.StatusUnprocessableEntity,
		services.ErrNotClaimable:                     http.StatusUnprocessableEntity,
		services.ErrInsufficientBalance:              http.StatusUnprocessableEntity,
		services.ErrInvalidWalletAddress:             http.StatusBadRequest,
		services.ErrForbidden:                        http.StatusForbidden,
		services.ErrTransientLookup:                  http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}

func TestActivateWithCodeEndpoint(t *testing.T) {
	s := newTestServer(t)
	testutil.SeedCatalog(t, s.db)

	referrer := testutil.CreateUser(t, s.db, nil, true)
	member := testutil.CreateUser(t, s.db, &referrer.ID, false)
	codes, err := s.codes.Generate(context.Background(), 1, nil, 0)
	require.NoError(t, err)

	w, resp := s.do(t, http.MethodPost, "/api/activation/code", member.ID, gin.H{"code": "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, false, resp["success"])

	w, resp = s.do(t, http.MethodPost, "/api/activation/code", member.ID, gin.H{"code": codes[0].Code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, resp["success"])
	assert.EqualValues(t, 5, resp["rewards_created"])

	w, resp = s.do(t, http.MethodPost, "/api/activation/code", member.ID, gin.H{"code": codes[0].Code})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, services.ErrAlreadyActive.Error(), resp["message"])

	w, resp = s.do(t, http.MethodGet, "/api/rewards", member.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["rewards"], 5)

	w, _ = s.do(t, http.MethodPost, "/api/activation/code", member.ID, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimEndpoint(t *testing.T) {
	s := newTestServer(t)
	defs := testutil.SeedCatalog(t, s.db)

	member := testutil.CreateUser(t, s.db, nil, false)
	codes, err := s.codes.Generate(context.Background(), 1, nil, 0)
	require.NoError(t, err)
	w, _ := s.do(t, http.MethodPost, "/api/activation/code", member.ID, gin.H{"code": codes[0].Code})
	require.Equal(t, http.StatusOK, w.Code)

	path := fmt.Sprintf("/api/rewards/%d/claim", defs[0].ID)
	w, resp := s.do(t, http.MethodPost, path, member.ID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, services.ErrNotClaimable.Error(), resp["message"])

	require.NoError(t, s.db.Model(&models.UserReward{}).
		Where("user_id = ? AND reward_id = ?", member.ID, defs[0].ID).
		Update("is_claimable", true).Error)

	w, _ = s.do(t, http.MethodPost, path, member.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodPost, path, member.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/rewards/abc/claim", member.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/rewards/999/claim", member.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminActivateRequiresAdmin(t *testing.T) {
	s := newTestServer(t)

	operator := testutil.CreateUser(t, s.db, nil, true)
	super := testutil.CreateUser(t, s.db, nil, true)
	target := testutil.CreateUser(t, s.db, nil, false)
	path := fmt.Sprintf("/api/admin/users/%d/activate", target.ID)

	w, _ := s.do(t, http.MethodPost, path, target.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	ctx := context.Background()
	_, err := s.admins.PromoteUserToAdmin(ctx, operator.ID, models.AdminRoleOperator, nil)
	require.NoError(t, err)
	_, err = s.admins.PromoteUserToAdmin(ctx, super.ID, models.AdminRoleSuper, nil)
	require.NoError(t, err)

	w, _ = s.do(t, http.MethodPost, path, operator.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "operators cannot activate directly")

	w, resp := s.do(t, http.MethodPost, path, super.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, resp["success"])

	var logs []models.AdminLog
	require.NoError(t, s.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "ACTIVATE_USER", logs[0].Action)
}

func TestWalletLoginEndpoint(t *testing.T) {
	s := newTestServer(t)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	wallet := base58.Encode(pub)
	good := base58.Encode(ed25519.Sign(priv, []byte(LoginMessage)))
	bad := base58.Encode(ed25519.Sign(priv, []byte("something else")))

	w, _ := s.do(t, http.MethodPost, "/auth/wallet", 0, gin.H{"wallet_address": wallet, "signature": bad})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp := s.do(t, http.MethodPost, "/auth/wallet", 0, gin.H{"wallet_address": wallet, "signature": good})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, resp["created"])
	assert.NotEmpty(t, resp["token"])

	w, resp = s.do(t, http.MethodPost, "/auth/wallet", 0, gin.H{"wallet_address": wallet, "signature": good})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["created"])

	w, _ = s.do(t, http.MethodPost, "/auth/wallet", 0, gin.H{"wallet_address": wallet, "signature": good, "referral_code": "999"})
	assert.Equal(t, http.StatusOK, w.Code, "referral code is ignored for existing wallets")
}
