package main

import (
	"context"
	"fmt"

	"animeshop-be/internal/auth"
	"animeshop-be/internal/config"
	"animeshop-be/internal/order"
	"animeshop-be/internal/product"
	"animeshop-be/internal/user"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the collection indexes, including the one-cart-per-user index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context, _ *config.Config, database *mongo.Database) error {
			if err := ensureIndexes(ctx,
				product.NewRepository(database),
				user.NewRepository(database),
				order.NewRepository(database),
			); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Indexes ready")
			return nil
		})
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create the admin account from ADMIN_EMAIL and ADMIN_PASSWORD if it is missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context, cfg *config.Config, database *mongo.Database) error {
			svc := user.NewService(user.NewRepository(database), auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL))
			u, err := svc.EnsureAdmin(ctx, user.RegisterInput{
				FirstName: cfg.AdminFirstName,
				LastName:  cfg.AdminLastName,
				Email:     cfg.AdminEmail,
				Password:  cfg.AdminPassword,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin ready: %s (%s)\n", u.Email, u.ID.Hex())
			return nil
		})
	},
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(ctx context.Context, repos ...indexer) error {
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	return nil
}
