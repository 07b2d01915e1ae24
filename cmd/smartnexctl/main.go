// Package main is the operator CLI: schema migrations and install-time seeding.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/config"
	"github.com/smartnex-ai/backend/internal/admins"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/internal/products"
	"github.com/smartnex-ai/backend/pkg/database"
	"github.com/smartnex-ai/backend/pkg/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "smartnexctl",
		Short:        "SmartNex operator tool",
		SilenceUsage: true,
	}

	seedCmd := &cobra.Command{Use: "seed", Short: "Seed install-time data"}
	seedCmd.AddCommand(seedProductsCmd(), seedSuperAdminCmd())
	rootCmd.AddCommand(migrateCmd(), seedCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the core and pg schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pools := database.NewRegistry(nil, zap.NewNop())
			defer pools.Close()

			targets := []struct{ segment, url string }{
				{database.SegmentCore, cfg.CoreDatabase.URL},
				{database.SegmentPG, cfg.PGDatabase.URL},
			}
			for _, t := range targets {
				if t.url == "" {
					return fmt.Errorf("database url for %s segment is not set", t.segment)
				}
				pool, err := pools.Pool(ctx, t.url)
				if err != nil {
					return fmt.Errorf("connect %s: %w", t.segment, err)
				}
				if err := database.Migrate(ctx, pool, t.segment); err != nil {
					return fmt.Errorf("migrate %s: %w", t.segment, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", t.segment)
			}
			return nil
		},
	}
}

func seedProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "Upsert the product catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := corePool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := products.NewRepository(pool).Seed(cmd.Context(), products.Catalog)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", n)
			return nil
		},
	}
}

func seedSuperAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "superadmin",
		Short: "Create a superadmin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}

			hash, err := utils.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			pool, err := corePool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			u, err := admins.NewRepository(pool).Create(cmd.Context(), admins.CreateParams{
				Name:         name,
				Email:        strings.ToLower(strings.TrimSpace(email)),
				PasswordHash: hash,
				Role:         models.RoleSuperAdmin,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created superadmin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().String("name", "Super Admin", "Display name")
	cmd.Flags().String("email", "", "Login email")
	cmd.Flags().String("password", "", "Login password")
	return cmd
}

func corePool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.CoreDatabase.URL == "" {
		return nil, errors.New("CORE_DATABASE_URL is required")
	}
	return database.NewPostgresPool(ctx, cfg.CoreDatabase.URL, zap.NewNop())
}
