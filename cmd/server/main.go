package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"anoa.com/taskmanager/internal/bootstrap"
	"anoa.com/taskmanager/internal/config"
	"anoa.com/taskmanager/internal/progress"
	"anoa.com/taskmanager/internal/server"
	"anoa.com/taskmanager/pkg/database"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	port       string
	skipSeed   bool
	verboseSQL bool
)

var rootCmd = &cobra.Command{
	Use:   "taskmanager",
	Short: "Task manager API - projects, tasks and progress tracking",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		if err := bootstrap.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Println("Migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo users, projects and tasks (idempotent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		if err := bootstrap.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		return bootstrap.Seed(cmd.Context(), db)
	},
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rebuild the cached progress of every project",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		results, err := progress.RecomputeAll(cmd.Context(), db)
		if err != nil {
			return fmt.Errorf("recompute failed: %w", err)
		}
		for _, res := range results {
			log.Printf("project %s: %.2f%%", res.ProjectID, res.ProgressPercentage)
		}
		log.Printf("Recomputed %d projects", len(results))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseSQL, "verbose", "v", false, "log every SQL statement")

	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
		c.Flags().BoolVar(&skipSeed, "skip-seed", false, "do not seed demo data in development")
	}

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, recomputeCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db := database.Connect(cfg.DatabaseURL, verboseSQL)
	return cfg, db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}

	if err := bootstrap.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if cfg.IsDevelopment() && !skipSeed {
		if err := bootstrap.Seed(cmd.Context(), db); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	redisClient := database.ConnectRedis(cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	if port == "" {
		port = cfg.Port
	}

	srv := server.NewServer(cfg, db, redisClient)
	log.Printf("Task manager API listening on :%s", port)
	if err := srv.Run(":" + port); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	return nil
}
