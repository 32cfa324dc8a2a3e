package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/store"
)

// emptyCollection seeds collections that have never been stored. Only the
// admin collection created by init starts from the sample catalog.
func emptyCollection() []model.Item { return []model.Item{} }

// collectionConfig describes the collection of owner. A nil submitter
// leaves out the approval step.
func (a *app) collectionConfig(database *sql.DB, owner int64, sub inventory.Submitter) inventory.Config {
	return inventory.Config{
		Owner:   owner,
		Storage: store.KV{DB: database, Namespace: store.UserNamespace(owner)},
		Logger:  a.log.Named("inventory"),
		Guards:  inventory.DefaultGuards(sub),
		Seed:    emptyCollection,
		Features: inventory.Features{
			Lottery:      a.cfg.Features.Lottery,
			Achievements: a.cfg.Features.Achievements,
		},
	}
}

// operator is the actor for terminal commands. Whoever runs them has the
// database file and therefore full rights.
func operator(u *model.User) inventory.Actor {
	return inventory.Actor{UserID: u.ID, Username: u.Username, Role: model.RoleAdmin, Plan: model.PlanEnterprise}
}

// openCollection opens the database and the collection of the --owner
// user, defaulting to the admin account.
func (a *app) openCollection(ctx context.Context, ownerName string) (*sql.DB, *inventory.Controller, *model.User, error) {
	database, err := a.openDatabase(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if ownerName == "" {
		ownerName = a.cfg.AdminUser
	}
	u, err := store.GetUserByUsername(ctx, database, ownerName)
	if err != nil {
		database.Close()
		return nil, nil, nil, err
	}
	if u == nil {
		database.Close()
		return nil, nil, nil, fmt.Errorf("user %q not found", ownerName)
	}

	coll, err := inventory.Open(ctx, a.collectionConfig(database, u.ID, nil))
	if err != nil {
		database.Close()
		return nil, nil, nil, err
	}
	return database, coll, u, nil
}

func (a *app) exportCommand() *cobra.Command {
	var owner, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a collection as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, coll, u, err := a.openCollection(cmd.Context(), owner)
			if err != nil {
				return err
			}
			defer database.Close()

			if out == "" {
				out = inventory.ExportFilename(time.Now())
			}
			var w io.Writer = os.Stdout
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := coll.Export(cmd.Context(), operator(u), w); err != nil {
				return err
			}
			if out != "-" {
				fmt.Printf("Exported %d items to %s\n", len(coll.Items()), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "username whose collection to export (default: admin user)")
	cmd.Flags().StringVarP(&out, "output", "o", "", `output file, "-" for stdout (default: timestamped backup name)`)
	return cmd
}

func (a *app) importCommand() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace a collection with a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			database, coll, u, err := a.openCollection(cmd.Context(), owner)
			if err != nil {
				return err
			}
			defer database.Close()

			res, err := coll.Import(cmd.Context(), operator(u), f)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				a.log.Warn(w)
			}
			_ = store.LogActivity(cmd.Context(), database, &u.ID, model.ActivityImport, fmt.Sprintf("imported %d items from %s", res.Count, args[0]))
			fmt.Printf("Imported %d items into the collection of %s\n", res.Count, u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "username whose collection to replace (default: admin user)")
	return cmd
}

func (a *app) resetCommand() *cobra.Command {
	var owner string
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Replace a collection with the sample catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, coll, u, err := a.openCollection(cmd.Context(), owner)
			if err != nil {
				return err
			}
			defer database.Close()

			res, err := coll.Reset(cmd.Context(), operator(u), yes)
			if err != nil {
				if yes {
					return err
				}
				return fmt.Errorf("%w: pass --yes to reset the collection of %s", err, u.Username)
			}
			_ = store.LogActivity(cmd.Context(), database, &u.ID, model.ActivityReset, "from the command line")
			fmt.Printf("Collection of %s reset to %d sample items\n", u.Username, res.Count)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "username whose collection to reset (default: admin user)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")
	return cmd
}

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the schema and every collection up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := a.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()

			users, err := store.ListUsers(cmd.Context(), database)
			if err != nil {
				return err
			}
			for _, u := range users {
				// Opening a collection runs its pending migrations.
				coll, err := inventory.Open(cmd.Context(), a.collectionConfig(database, u.ID, nil))
				if err != nil {
					return fmt.Errorf("collection of %s: %w", u.Username, err)
				}
				a.log.Info("collection up to date", zap.String("user", u.Username), zap.Int("items", len(coll.Items())))
			}
			fmt.Printf("Migrated schema and %d collections\n", len(users))
			return nil
		},
	}
}
