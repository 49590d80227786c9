package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"mlm-platform/internal/config"
	"mlm-platform/internal/database"
	"mlm-platform/internal/logging"
	"mlm-platform/internal/models"
	"mlm-platform/internal/repository"
	"mlm-platform/internal/services"
)

// Operator commands that need no running server:
//
//	admin -promote <wallet> [-role SUPER_ADMIN]
//	admin -codes 50 [-owner <user id>]
//	admin -reconcile
func main() {
	promote := flag.String("promote", "", "wallet address of the user to promote to admin")
	role := flag.String("role", models.AdminRoleSuper, "admin role for -promote")
	codes := flag.Int("codes", 0, "number of activation codes to generate")
	owner := flag.Uint("owner", 0, "owner user id for -codes")
	reconcile := flag.Bool("reconcile", false, "rebuild the level tally from the referral tree")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logging.Init(cfg.IsProduction())
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if err := database.Connect(cfg.GetDSN()); err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}
	repo := repository.NewRepository(database.GetDB())
	ctx := context.Background()

	switch {
	case *promote != "":
		users := services.NewUserService(repo)
		user, err := users.GetUserByWallet(ctx, *promote)
		if err != nil {
			zap.L().Fatal("Failed to find user", zap.String("wallet", *promote), zap.Error(err))
		}
		admin, err := services.NewAdminService(repo).PromoteUserToAdmin(ctx, user.ID, *role, nil)
		if err != nil {
			zap.L().Fatal("Failed to promote user", zap.Error(err))
		}
		zap.L().Info("Admin created", zap.Uint("admin_id", admin.ID), zap.Uint("user_id", user.ID), zap.String("role", admin.Role))

	case *codes > 0:
		var ownerID *uint
		if *owner > 0 {
			id := *owner
			ownerID = &id
		}
		generated, err := services.NewActivationCodeService(repo, cfg.Codes).Generate(ctx, *codes, ownerID, 0)
		if err != nil {
			zap.L().Fatal("Failed to generate codes", zap.Error(err))
		}
		for _, code := range generated {
			zap.L().Info("Activation code", zap.String("code", code.Code), zap.Time("expires_at", code.ExpiresAt))
		}

	case *reconcile:
		updated, err := services.NewTallyService(repo, cfg.Network).Reconcile(ctx)
		if err != nil {
			zap.L().Fatal("Reconcile failed", zap.Error(err))
		}
		zap.L().Info("Reconcile finished", zap.Int("members", updated))

	default:
		flag.Usage()
		os.Exit(2)
	}
}
