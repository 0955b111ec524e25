package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"readinghub/internal/config"
	"readinghub/internal/importer"
	"readinghub/internal/library"
	"readinghub/internal/stats"
	"readinghub/internal/user"
	"readinghub/pkg/database"
	"readinghub/pkg/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type dbFlags struct {
	driver string
	dsn    string
}

func newRootCmd() *cobra.Command {
	var flags dbFlags

	root := &cobra.Command{
		Use:           "readctl",
		Short:         "Reading hub maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.driver, "driver", "", "database driver (defaults to DB_DRIVER)")
	root.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "database DSN (defaults to DB_DSN)")

	root.AddCommand(newMigrateCmd(&flags))
	root.AddCommand(newImportCmd(&flags))
	root.AddCommand(newStatsCmd(&flags))
	return root
}

func openDB(flags *dbFlags) (*sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	driver, dsn := cfg.DBDriver, cfg.DBDSN
	if flags.driver != "" {
		driver = flags.driver
	}
	if flags.dsn != "" {
		dsn = flags.dsn
	}
	db, err := database.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// lookupUser accepts either an email address or a user id.
func lookupUser(ctx context.Context, db *sqlx.DB, ref string) (models.User, error) {
	if strings.Contains(ref, "@") {
		return user.GetByEmail(ctx, db, ref)
	}
	return user.GetByID(ctx, db, ref)
}

func newMigrateCmd(flags *dbFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(flags)
			if err != nil {
				return err
			}
			defer db.Close()
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newImportCmd(flags *dbFlags) *cobra.Command {
	var userRef, sheet string
	var startRow int

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import reading items from .xlsx, .csv, .json or .yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userRef == "" {
				return fmt.Errorf("--user is required")
			}
			db, err := openDB(flags)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := context.Background()
			u, err := lookupUser(ctx, db, userRef)
			if err != nil {
				return err
			}
			cfg := importer.DefaultConfig(args[0])
			if sheet != "" {
				cfg.SheetName = sheet
			}
			if startRow > 0 {
				cfg.StartRow = startRow
			}
			res, err := importer.Import(ctx, db, u.ID, cfg, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "processed=%d created=%d skipped=%d\n", res.TotalProcessed, res.Created, res.Skipped)
			for _, e := range res.Errors {
				_, _ = fmt.Fprintln(out, "  "+e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userRef, "user", "", "owner email or id")
	cmd.Flags().StringVar(&sheet, "sheet", "Sheet1", "worksheet name for .xlsx")
	cmd.Flags().IntVar(&startRow, "start-row", 0, "first data row, 1-based (defaults to 2)")
	return cmd
}

func newStatsCmd(flags *dbFlags) *cobra.Command {
	var userRef string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a user's reading summary and items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userRef == "" {
				return fmt.Errorf("--user is required")
			}
			db, err := openDB(flags)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := context.Background()
			u, err := lookupUser(ctx, db, userRef)
			if err != nil {
				return err
			}
			items, err := library.ListForUser(ctx, db, u.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			sum := stats.Summarize(items)
			_, _ = fmt.Fprintf(out, "%s: %d books, %d/%d pages, %d%%, streak %d\n",
				u.Email, sum.TotalBooks, sum.CurrentPages, sum.TotalPages, sum.OverallProgress, u.Settings.StreakDays)
			for _, v := range stats.ViewAll(items) {
				_, _ = fmt.Fprintf(out, "  %-40s %4d/%-4d %3d%% %s\n", v.Title, v.CurrentPage, v.TotalPages, v.Progress, v.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userRef, "user", "", "email or id")
	return cmd
}
