package main

import (
	"context"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"ngo_connect_backend/database"
	"ngo_connect_backend/internal/algorithms"
	"ngo_connect_backend/internal/catalog"
	"ngo_connect_backend/internal/config"
	"ngo_connect_backend/internal/logger"
	"ngo_connect_backend/internal/models"
	"ngo_connect_backend/internal/repositories"
)

var (
	fakeCount    int
	fakeLat      float64
	fakeLon      float64
	fakeSpreadKm float64
	fakeSeed     int64
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the NGO catalog",
	Long: `Writes NGOs into the configured database. Existing rows with the same
id are updated in place.

Configuration is read the same way the web server reads it (.env,
CONFIG_PATH, DATABASE_URL).`,
	SilenceUsage: true,
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Upsert the built-in Bangalore demo roster",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, repo repositories.NGORepository) error {
			return upsertAll(ctx, repo, catalog.BangaloreRoster())
		})
	},
}

var fakeCmd = &cobra.Command{
	Use:   "fake",
	Short: "Upsert randomly generated NGOs around a point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if fakeCount <= 0 {
			return fmt.Errorf("--count must be positive")
		}
		center := models.GeoPoint{Latitude: fakeLat, Longitude: fakeLon}
		if err := algorithms.ValidatePoint(center); err != nil {
			return err
		}
		ngos := FakeNGOs(gofakeit.New(fakeSeed), fakeCount, center, fakeSpreadKm)
		return withDB(cmd.Context(), func(ctx context.Context, repo repositories.NGORepository) error {
			return upsertAll(ctx, repo, ngos)
		})
	},
}

func init() {
	fakeCmd.Flags().IntVarP(&fakeCount, "count", "n", 20, "number of NGOs to generate")
	fakeCmd.Flags().Float64Var(&fakeLat, "lat", 12.9716, "latitude of the center point")
	fakeCmd.Flags().Float64Var(&fakeLon, "lon", 77.5946, "longitude of the center point")
	fakeCmd.Flags().Float64Var(&fakeSpreadKm, "spread-km", 30, "maximum distance from the center")
	fakeCmd.Flags().Int64Var(&fakeSeed, "seed", 0, "random seed, 0 picks one")

	rootCmd.AddCommand(rosterCmd, fakeCmd)
}

func withDB(ctx context.Context, fn func(context.Context, repositories.NGORepository) error) error {
	cfg := config.GetConfig()
	logger.Init(cfg.Server.Env)

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return fn(ctx, repositories.NewNGORepository(tx))
	}); err != nil {
		return err
	}
	invalidateCache(ctx, cfg, repositories.NewNGORepository(db))
	return nil
}

// invalidateCache drops cached rosters so running servers read the seeded
// catalog on their next match.
func invalidateCache(ctx context.Context, cfg *config.Config, repo repositories.NGORepository) {
	if cfg.Redis.Addr == "" {
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	cached := catalog.NewCachedProvider(catalog.NewDatabaseProvider(repo), client, cfg.Redis.Prefix, cfg.Catalog.CacheTTL)
	if err := cached.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate catalog cache", "addr", cfg.Redis.Addr, "error", err)
		return
	}
	logger.Info("Catalog cache invalidated")
}

func upsertAll(ctx context.Context, repo repositories.NGORepository, ngos []models.NGO) error {
	for i := range ngos {
		if err := repo.Upsert(ctx, &ngos[i]); err != nil {
			return fmt.Errorf("upsert NGO %s: %w", ngos[i].ID, err)
		}
	}
	logger.Info("Seeded NGO catalog", "ngos", len(ngos))
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
