package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/pcshop/internal/config"
	"github.com/Skotchmaster/pcshop/internal/hash"
	"github.com/Skotchmaster/pcshop/internal/repo"
	"github.com/Skotchmaster/pcshop/internal/search"
	"github.com/Skotchmaster/pcshop/internal/service"
	"github.com/Skotchmaster/pcshop/pkg/db"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

const bootTimeout = 10 * time.Second

// bootDB loads the config and opens the database with a logger in ctx.
func bootDB(cmd *cobra.Command) (context.Context, *config.Config, *repo.GormRepo, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(cmd.Context(), logger)

	initCtx, cancel := context.WithTimeout(ctx, bootTimeout)
	defer cancel()
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	return ctx, cfg, &repo.GormRepo{DB: gdb}, nil
}

func seeder(r *repo.GormRepo, cfg *config.Config, catalog *service.CatalogService) *service.Seeder {
	return &service.Seeder{
		Users:         &service.UserService{Repo: r, Hasher: hash.Bcrypt{Cost: bcrypt.DefaultCost}},
		Catalog:       catalog,
		AdminPassword: cfg.AdminPassword,
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, _, r, err := bootDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close(r.DB)

		if err := r.Migrate(ctx); err != nil {
			return err
		}
		logging.FromContext(ctx).Info("migrations_applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin account and the starter catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, r, err := bootDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close(r.DB)

		if err := r.Migrate(ctx); err != nil {
			return err
		}
		return seeder(r, cfg, &service.CatalogService{Repo: r}).Run(ctx)
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Push every product into the Elasticsearch index",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, r, err := bootDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close(r.DB)

		if !cfg.Search.Enabled() {
			return fmt.Errorf("ES_URL is not set")
		}
		index, err := openIndex(ctx, cfg.Search)
		if err != nil {
			return err
		}

		n, err := (&service.CatalogService{Repo: r, Index: index}).Reindex(ctx)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("products_reindexed", "count", n)
		return nil
	},
}

func openIndex(ctx context.Context, cfg search.Config) (*search.Index, error) {
	client, err := search.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, bootTimeout)
	defer cancel()
	if err := search.Ping(pingCtx, client); err != nil {
		return nil, err
	}

	index := search.NewIndex(client, cfg.Index)
	if err := index.EnsureIndex(pingCtx); err != nil {
		return nil, err
	}
	return index, nil
}
