package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkordes/atob/internal/auth"
	"github.com/pkordes/atob/internal/repo"
	"github.com/pkordes/atob/internal/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	opts := seed.Options{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the administrator, demo accounts and demo trips",
		Long: "Seed an empty database. A database that already has users is left alone\n" +
			"unless --force is given, which empties every table first.",
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			pool, err := a.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			s := seed.New(repo.NewUnitOfWork(pool), pool, auth.Hasher{}, nil, a.log)
			res, err := s.Run(ctx, opts)
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Fprintln(c.OutOrStdout(), "database already seeded; use --force to start over")
				return nil
			}
			fmt.Fprintf(c.OutOrStdout(), "seeded %d users, %d trips, %d steps, %d travels, %d testimonials\n",
				res.Users, res.Trips, res.Steps, res.Travels, res.Testimonials)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.Force, "force", false, "empty every table before seeding")
	f.StringVar(&opts.AdminUsername, "admin-username", "admin", "administrator username")
	f.StringVar(&opts.AdminEmail, "admin-email", "admin@atob.local", "administrator email")
	f.StringVar(&opts.AdminPassword, "admin-password", "", "administrator password")
	f.StringVar(&opts.DemoPassword, "demo-password", "", "password shared by the demo accounts")
	_ = cmd.MarkFlagRequired("admin-password")
	_ = cmd.MarkFlagRequired("demo-password")
	return cmd
}
