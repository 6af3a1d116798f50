package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	authmodels "leadbook/internal/auth/models"
	userstore "leadbook/internal/auth/store/user"
	"leadbook/internal/buyer/filter"
	buyerservice "leadbook/internal/buyer/service"
	buyerstore "leadbook/internal/buyer/store"
	"leadbook/internal/platform/config"
	"leadbook/internal/platform/database"
	"leadbook/internal/platform/logger"
)

// cli carries state shared by every subcommand.
type cli struct {
	cfg    config.Config
	driver string
	url    string
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: config.FromEnv()}

	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Leadbook administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			c.logger = logger.NewWithWriter(cmd.ErrOrStderr(), c.cfg.Log)
		},
	}
	root.PersistentFlags().StringVar(&c.driver, "driver", c.cfg.Database.Driver, "database driver (postgres|sqlite)")
	root.PersistentFlags().StringVar(&c.url, "database-url", c.cfg.Database.URL, "database connection URL")

	root.AddCommand(c.migrateCmd(), c.importCmd(), c.exportCmd())
	return root
}

func (c *cli) open() (*gorm.DB, error) {
	cfg := c.cfg.Database
	cfg.Driver, cfg.URL = c.driver, c.url
	if cfg.Driver == database.DriverMemory {
		return nil, errors.New("leadctl needs a persistent database; memory driver is not supported")
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := userstore.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	if err := buyerstore.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate buyers: %w", err)
	}
	return nil
}

func (c *cli) service(db *gorm.DB) (*buyerservice.Service, error) {
	return buyerservice.New(buyerstore.NewGorm(db), buyerservice.WithLogger(c.logger))
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.open()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()
			fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s %s)\n", c.driver, database.Redact(c.url))
			return nil
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	var file, owner string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import buyers from a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if owner == "" {
				return errors.New("--owner is required")
			}
			db, err := c.open()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			ctx := cmd.Context()
			ownerID, err := resolveOwner(ctx, userstore.NewGorm(db), owner)
			if err != nil {
				return err
			}
			svc, err := c.service(db)
			if err != nil {
				return err
			}

			in, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer in.Close()

			res, err := svc.ImportCSV(ctx, ownerID, in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, msg := range res.Errors {
				fmt.Fprintln(out, msg)
			}
			fmt.Fprintf(out, "Imported %d buyers, %d errors\n", res.Imported, len(res.Errors))
			if !res.Success {
				return fmt.Errorf("import finished with %d errors", len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV file to import")
	cmd.Flags().StringVar(&owner, "owner", "", "owner user id or email")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// resolveOwner accepts a user id or an email address.
func resolveOwner(ctx context.Context, users *userstore.GormUserStore, owner string) (string, error) {
	var (
		u   *authmodels.User
		err error
	)
	if strings.Contains(owner, "@") {
		u, err = users.FindByEmail(ctx, owner)
	} else {
		u, err = users.FindByID(ctx, owner)
	}
	if err != nil {
		return "", fmt.Errorf("owner %q: %w", owner, err)
	}
	return u.ID, nil
}

func (c *cli) exportCmd() *cobra.Command {
	var out string
	var p filter.Params
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export buyers to CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.open()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()
			svc, err := c.service(db)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := svc.ExportCSV(cmd.Context(), p, w); err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", out)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&out, "out", "-", "output file, - for stdout")
	f.StringVar(&p.Search, "search", "", "match name, phone or email")
	f.StringVar(&p.City, "city", "", "city filter")
	f.StringVar(&p.PropertyType, "property-type", "", "property type filter")
	f.StringVar(&p.Status, "status", "", "status filter")
	f.StringVar(&p.Timeline, "timeline", "", "timeline filter")
	return cmd
}
