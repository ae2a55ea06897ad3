package main

import (
	"fmt"

	"jobportal_backend/internal/app"
	"jobportal_backend/internal/config"
	"jobportal_backend/internal/logger"
	"jobportal_backend/internal/models"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Server.Env, cfg.Server.LogLevel)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	return cfg, nil
}

// withApp открывает БД и собирает приложение для одноразовых команд
func withApp(run func(a *app.Application) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gormDB, err := app.OpenDB(cfg)
	if err != nil {
		return err
	}
	return run(app.New(cfg, gormDB, nil))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return app.Run(cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				if err := migrate(a.DB); err != nil {
					return err
				}
				logger.Info("Database migrated", "models", len(models.AllModels()))
				return nil
			})
		},
	}
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func seedPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-plans",
		Short: "Insert or update the standard and premium plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				if err := a.Services.PlanService.SeedDefaults(a.DB); err != nil {
					return err
				}
				logger.Info("Plans seeded")
				return nil
			})
		},
	}
}

func expireSubscriptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-subscriptions",
		Short: "Deactivate subscriptions whose expiry has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				affected, err := a.Worker.ExpireSubscriptions(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "expired %d subscriptions\n", affected)
				return nil
			})
		},
	}
}

func reconcilePaymentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile-payments",
		Short: "Check stale pending transactions with eSewa once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				settled, err := a.Worker.ReconcilePending(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "settled %d transactions\n", settled)
				return err
			})
		},
	}
}
