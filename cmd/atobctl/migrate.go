package main

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pkordes/atob/migrations"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the embedded schema migrations",
	}
	cmd.AddCommand(
		a.migrateCmd("up", "Apply every pending migration", func(c *cobra.Command, p *goose.Provider) error {
			results, err := p.Up(c.Context())
			a.logResults(results)
			return err
		}),
		a.migrateCmd("down", "Roll back the most recent migration", func(c *cobra.Command, p *goose.Provider) error {
			result, err := p.Down(c.Context())
			if result != nil {
				a.logResults([]*goose.MigrationResult{result})
			}
			return err
		}),
		a.migrateCmd("reset", "Roll back every migration", func(c *cobra.Command, p *goose.Provider) error {
			results, err := p.DownTo(c.Context(), 0)
			a.logResults(results)
			return err
		}),
		a.migrateCmd("status", "Show which migrations are applied", func(c *cobra.Command, p *goose.Provider) error {
			statuses, err := p.Status(c.Context())
			if err != nil {
				return err
			}
			out := c.OutOrStdout()
			for _, s := range statuses {
				applied := "pending"
				if s.State == goose.StateApplied {
					applied = "applied " + s.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(out, "%05d  %-40s %s\n", s.Source.Version, s.Source.Path, applied)
			}
			return nil
		}),
	)
	return cmd
}

// migrateCmd builds a subcommand that runs fn against a provider over the
// embedded migrations.
func (a *app) migrateCmd(use, short string, fn func(*cobra.Command, *goose.Provider) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			db, err := a.openSQL(c.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			provider, err := migrations.NewProvider(db)
			if err != nil {
				return err
			}
			if err := fn(c, provider); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			return nil
		},
	}
}

func (a *app) logResults(results []*goose.MigrationResult) {
	if len(results) == 0 {
		a.log.Info("no migrations to run")
		return
	}
	for _, r := range results {
		fields := []zap.Field{
			zap.Int64("version", r.Source.Version),
			zap.String("direction", r.Direction),
			zap.Duration("duration", r.Duration),
		}
		if r.Error != nil {
			a.log.Error("migration failed", append(fields, zap.Error(r.Error))...)
			continue
		}
		a.log.Info("migration applied", fields...)
	}
}
