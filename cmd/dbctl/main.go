package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roivaz/azdo-pr-dashboard/internal/config"
	"github.com/roivaz/azdo-pr-dashboard/internal/db"
	dbmigrate "github.com/roivaz/azdo-pr-dashboard/internal/db/migrate"
)

var rootCmd = &cobra.Command{
	Use:   "dbctl",
	Short: "Snapshot history database management CLI",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize migration tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDatabase(func(database *db.Database) error {
			manager, err := database.Migrations()
			if err != nil {
				return err
			}
			return manager.Init(cmd.Context())
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or rollback schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDatabase(func(database *db.Database) error {
			manager, err := database.Migrations()
			if err != nil {
				return err
			}
			applied, err := manager.Up(cmd.Context())
			if err != nil {
				return err
			}
			report(cmd, "applied", applied)
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		to, _ := cmd.Flags().GetString("to")

		return runWithDatabase(func(database *db.Database) error {
			manager, err := database.Migrations()
			if err != nil {
				return err
			}
			var undone []string
			if to != "" {
				undone, err = manager.RollbackTo(cmd.Context(), to)
			} else {
				undone, err = manager.Rollback(cmd.Context(), steps)
			}
			report(cmd, "rolled back", undone)
			return err
		})
	},
}

var statusCmd = &cobra.Command{
	Use:           "status",
	Short:         "Show applied and pending migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDatabase(func(database *db.Database) error {
			manager, err := database.Migrations()
			if err != nil {
				return err
			}
			entries, err := manager.Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range entries {
				state := "pending"
				if e.Applied {
					state = "applied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.Name, state)
			}
			return nil
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:           "verify",
	Short:         "Ensure database is on the latest schema version",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDatabase(func(database *db.Database) error {
			manager, err := database.Migrations()
			if err != nil {
				return err
			}
			return dbmigrate.EnsureCurrent(cmd.Context(), manager, false)
		})
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the database is reachable and show recent snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDatabase(func(database *db.Database) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := database.Ping(ctx); err != nil {
				return fmt.Errorf("database unreachable: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "database connection successful")

			snaps, err := db.NewSnapshotRepository(database).RecentSnapshots(ctx, 5)
			if err != nil {
				fmt.Fprintf(out, "snapshot history unavailable: %v\n", err)
				return nil
			}
			for _, s := range snaps {
				fmt.Fprintf(out, "%s\t%s\t%d pull requests\t%d failures\n",
					s.TakenAt.Format(time.RFC3339), s.ID, s.PullRequestCount, s.FailureCount)
			}
			return nil
		})
	},
}

var recreateCmd = &cobra.Command{
	Use:   "recreate",
	Short: "Drop and recreate the snapshot history tables (destructive)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.ToLower(os.Getenv("DB_ALLOW_DESTRUCTIVE")) != "yes" {
			return errors.New("DB_ALLOW_DESTRUCTIVE=yes must be set for recreate")
		}
		return runWithDatabase(func(database *db.Database) error {
			return recreate(cmd.Context(), database)
		})
	},
}

func main() {
	rootCmd.PersistentFlags().String("dsn", "", "PostgreSQL DSN (overrides POSTGRES_URL)")
	rootCmd.PersistentFlags().String("migrations", "", "Migrations directory (defaults to the embedded set)")

	config.Init(rootCmd)
	_ = viper.BindPFlag(config.KeyPostgresURL, rootCmd.PersistentFlags().Lookup("dsn"))

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(initCmd, migrateCmd, statusCmd, verifyCmd, pingCmd, recreateCmd)
	_ = migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to roll back (0 = all)")
	_ = migrateDownCmd.Flags().String("to", "", "Roll back to the specified migration (inclusive)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dbctl: %v\n", err)
		os.Exit(1)
	}
}

func runWithDatabase(fn func(*db.Database) error) error {
	dsn := config.PostgresURL()
	if dsn == "" {
		return errors.New("postgres DSN must be provided via --dsn or POSTGRES_URL")
	}
	database, err := db.Connect(db.Config{
		DSN:           dsn,
		Debug:         config.DBDebug(),
		MigrationsDir: config.MigrationsDir(),
	})
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(database)
}

func recreate(ctx context.Context, database *db.Database) error {
	if _, err := database.Bun().ExecContext(ctx, `DROP TABLE IF EXISTS pull_request_snapshots, snapshots CASCADE`); err != nil {
		return err
	}
	manager, err := database.Migrations()
	if err != nil {
		return err
	}
	if err := manager.Reset(ctx); err != nil {
		return err
	}
	_, err = manager.Up(ctx)
	return err
}

func report(cmd *cobra.Command, verb string, names []string) {
	if len(names) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "nothing %s\n", verb)
		return
	}
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, name)
	}
}
