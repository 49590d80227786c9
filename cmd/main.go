package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mlm-platform/internal/auth"
	"mlm-platform/internal/config"
	"mlm-platform/internal/database"
	"mlm-platform/internal/handlers"
	"mlm-platform/internal/jobs"
	"mlm-platform/internal/logging"
	"mlm-platform/internal/metrics"
	"mlm-platform/internal/middleware"
	"mlm-platform/internal/repository"
	"mlm-platform/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger, err := logging.Init(cfg.IsProduction())
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	auth.InitJWT(cfg.App.JWTSecret, cfg.App.JWTTTL)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}
	db := database.GetDB()

	if err := database.AutoMigrate(db); err != nil {
		zap.L().Fatal("Failed to run migrations", zap.Error(err))
	}

	repo := repository.NewRepository(db)

	// Initialize services
	rewardService := services.NewRewardService(repo)
	userService := services.NewUserService(repo)
	authService := services.NewAuthService(userService)
	commissionService := services.NewCommissionService(repo, cfg.Network)
	networkService := services.NewNetworkService(repo, rewardService, cfg.Network)
	activationService := services.NewActivationService(repo, commissionService, networkService, rewardService, cfg.Network)
	codeService := services.NewActivationCodeService(repo, cfg.Codes)
	payoutService := services.NewPayoutService(repo)
	adminService := services.NewAdminService(repo)
	tallyService := services.NewTallyService(repo, cfg.Network)

	seedRewardCatalog(rewardService, cfg.App.RewardCatalogFile)

	// Background jobs
	var reconciler *jobs.TallyReconciler
	if cfg.Jobs.TallyReconcileEnabled && cfg.Network.TallyMode == config.TallyModeFull {
		reconciler = jobs.NewTallyReconciler(tallyService, cfg.Jobs.TallyReconcileInterval)
		if err := reconciler.Start(); err != nil {
			zap.L().Fatal("Failed to start tally reconciler", zap.Error(err))
		}
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	activationHandler := handlers.NewActivationHandler(activationService, codeService)
	rewardHandler := handlers.NewRewardHandler(rewardService)
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	adminHandler := handlers.NewAdminHandler(db, adminService, activationService, codeService, rewardService, payoutService, tallyService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	limiterCtx, stopLimiterCleanup := context.WithCancel(context.Background())
	defer stopLimiterCleanup()
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	limiter.StartCleanup(limiterCtx, cfg.RateLimit.CleanupInterval, cfg.RateLimit.IdleTTL)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Authentication routes (public)
	router.POST("/auth/wallet", limiter.Handler(), authHandler.WalletLogin)

	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware(userService))
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware(userService))
	{
		userRoutes := api.Group("/user")
		{
			userRoutes.GET("/profile", userHandler.GetProfile)
			userRoutes.GET("/referrals", userHandler.GetReferrals)
			userRoutes.GET("/upline", userHandler.GetUpline)
			userRoutes.GET("/wallet", userHandler.GetWalletHistory)
		}

		api.POST("/activation/code", limiter.Handler(), activationHandler.ActivateWithCode)
		api.GET("/codes", activationHandler.ListCodes)
		api.POST("/codes/transfer", limiter.Handler(), activationHandler.TransferCode)

		api.GET("/rewards", rewardHandler.GetRewards)
		api.POST("/rewards/:id/claim", limiter.Handler(), rewardHandler.ClaimReward)

		api.POST("/payouts", limiter.Handler(), payoutHandler.RequestWithdrawal)
		api.GET("/payouts", payoutHandler.ListPayouts)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware(userService))
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.GET("/dashboard", adminHandler.GetDashboard)
		admin.GET("/logs", adminHandler.GetAdminLogs)

		admin.GET("/users", adminHandler.GetUsers)
		admin.POST("/users/:id/activate", adminHandler.RequirePermission("direct_activate"), adminHandler.ActivateUser)
		admin.POST("/codes", adminHandler.RequirePermission("manage_codes"), adminHandler.GenerateCodes)

		admin.GET("/rewards", adminHandler.ListRewards)
		admin.POST("/rewards", adminHandler.RequirePermission("manage_catalog"), adminHandler.CreateReward)
		admin.PUT("/rewards/:id", adminHandler.RequirePermission("manage_catalog"), adminHandler.UpdateReward)

		admin.GET("/payouts", adminHandler.ListPayouts)
		admin.POST("/payouts/:id/approve", adminHandler.RequirePermission("manage_payouts"), adminHandler.ApprovePayout)
		admin.POST("/payouts/:id/reject", adminHandler.RequirePermission("manage_payouts"), adminHandler.RejectPayout)

		admin.POST("/admins", adminHandler.RequirePermission("manage_admins"), adminHandler.PromoteToAdmin)
		admin.POST("/tally/reconcile", adminHandler.RequirePermission("manage_users"), adminHandler.ReconcileTally)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		zap.L().Info("Server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("Shutting down server...")
	stopLimiterCleanup()

	if reconciler != nil {
		if err := reconciler.Stop(); err != nil {
			zap.L().Error("Tally reconciler shutdown failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Fatal("Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exited")
}

// seedRewardCatalog loads the catalog file into an empty or partial catalog.
// A missing file is not an error; the catalog can be managed from the admin API.
func seedRewardCatalog(rewards *services.RewardService, path string) {
	if path == "" {
		return
	}
	entries, err := services.LoadCatalogFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			zap.L().Warn("Reward catalog file not found, skipping seed", zap.String("path", path))
			return
		}
		zap.L().Fatal("Failed to load reward catalog", zap.String("path", path), zap.Error(err))
	}

	created, err := rewards.SeedCatalog(context.Background(), entries)
	if err != nil {
		zap.L().Fatal("Failed to seed reward catalog", zap.Error(err))
	}
	zap.L().Info("Reward catalog seeded", zap.Int("created", created), zap.Int("entries", len(entries)))
}
