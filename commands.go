package main

import (
	"fmt"

	"robot-manager/database"
	"robot-manager/models"
	"robot-manager/redis"
	"robot-manager/services"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.NewDatabase(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return err
		}
		logger.Info("Database migrated")

		seed, _ := cmd.Flags().GetBool("seed")
		if !seed {
			return nil
		}
		_, err = db.SeedSuperAdmin(cmd.Context(), cfg)
		return err
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for an existing user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetUint("user-id")
		phone, _ := cmd.Flags().GetString("phone")
		if userID == 0 && phone == "" {
			return fmt.Errorf("one of --user-id or --phone is required")
		}

		db, err := database.NewDatabase(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		tx := db.DB.WithContext(cmd.Context())
		var user *models.User
		if userID != 0 {
			user, err = db.Users.GetByID(tx, userID)
		} else {
			user, err = db.Users.FindByPhone(tx, phone)
		}
		if err != nil {
			return err
		}

		authService, err := services.NewAuthService(db, redis.NoopClient{}, cfg.JWTSecret, cfg.JWTTTL, logger)
		if err != nil {
			return err
		}
		token, err := authService.IssueToken(user)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
