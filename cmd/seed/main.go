package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"animeshop-be/internal/config"
	"animeshop-be/internal/db"
	"animeshop-be/internal/logger"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

const commandTimeout = time.Minute

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "seed",
	Short:         "Anime shop database tooling",
	Long:          "Seed the product catalog, create indexes and bootstrap the admin account.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(adminCmd)
}

// withDB loads config, connects and hands fn a database bounded by
// commandTimeout.
func withDB(fn func(ctx context.Context, cfg *config.Config, database *mongo.Database) error) error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer db.Close(database)

	return fn(ctx, cfg, database)
}
