// Command graphctl runs maintenance tasks against the graph database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/panot-hq/edge-backend/internal/setup"
	"github.com/panot-hq/edge-backend/internal/util"
	"github.com/panot-hq/edge-backend/pkg/graph"
	"github.com/panot-hq/edge-backend/pkg/logger"
	"github.com/panot-hq/edge-backend/pkg/logger/console"
	pgstore "github.com/panot-hq/edge-backend/pkg/store/pgx"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	util.LoadEnv()
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
		Level: util.GetEnv("LOG_LEVEL"),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if errors.Is(err, errDrift) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "graphctl",
		Short:         "Maintenance commands for the contact graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("database-url", util.GetEnv("DATABASE_URL"), "PostgreSQL connection string")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "graphctl v%s (%s)\n", version, commit)
		},
	})

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			return setup.MigrateUp(url)
		},
	})
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			steps, _ := cmd.Flags().GetInt("steps")
			return setup.MigrateDown(url, steps)
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(downCmd)
	rootCmd.AddCommand(migrateCmd)

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Report concepts whose weight differs from their in-degree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(engine *graph.Engine, tenantID uuid.UUID) error {
				return runAudit(cmd.Context(), engine, tenantID, cmd.OutOrStdout())
			})
		},
	}
	auditCmd.Flags().String("tenant", "", "Tenant (user) id")
	_ = auditCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(auditCmd)

	repairCmd := &cobra.Command{
		Use:   "repair",
		Short: "Reset drifting weights and collect unreferenced concepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(engine *graph.Engine, tenantID uuid.UUID) error {
				return runRepair(cmd.Context(), engine, tenantID, cmd.OutOrStdout())
			})
		},
	}
	repairCmd.Flags().String("tenant", "", "Tenant (user) id")
	_ = repairCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(repairCmd)

	return rootCmd
}

func databaseURL(cmd *cobra.Command) (string, error) {
	url, _ := cmd.Flags().GetString("database-url")
	if url == "" {
		return "", errors.New("--database-url or DATABASE_URL is required")
	}
	return url, nil
}

func withEngine(cmd *cobra.Command, fn func(engine *graph.Engine, tenantID uuid.UUID) error) error {
	raw, _ := cmd.Flags().GetString("tenant")
	tenantID, err := util.ParseID("tenant", raw)
	if err != nil {
		return err
	}
	url, err := databaseURL(cmd)
	if err != nil {
		return err
	}

	pool, err := pgstore.NewPool(cmd.Context(), url)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	aiClient, err := setup.NewAIClient()
	if err != nil {
		return err
	}
	engine, err := setup.NewEngine(pool, aiClient)
	if err != nil {
		return err
	}
	return fn(engine, tenantID)
}
