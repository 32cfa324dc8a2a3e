package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/auth"
	"github.com/erazemk/ifrit/internal/db"
	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/store"
)

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and the admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.cfg.DB); err == nil {
				return fmt.Errorf("database file %s already exists", a.cfg.DB)
			}
			database, password, err := a.initDatabase(cmd.Context())
			if err != nil {
				return err
			}
			database.Close()
			printInitResult(a.cfg.DB, a.cfg.AdminUser, password)
			return nil
		},
	}
}

// initDatabase creates a new database, runs the migrations, creates the
// admin account and seeds its collection with the sample catalog.
func (a *app) initDatabase(ctx context.Context) (*sql.DB, string, error) {
	path := a.cfg.DB
	database, err := db.Open(path)
	if err != nil {
		return nil, "", err
	}
	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.Migrate(database); err != nil {
		return fail(fmt.Errorf("migrating schema: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fail(err)
	}

	admin, err := store.CreateUser(ctx, database, a.cfg.AdminUser, hash, model.RoleAdmin)
	if err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}
	if err := store.UpdateSubscription(ctx, database, admin.ID, model.Subscription{
		Plan:   model.PlanEnterprise,
		Status: model.SubscriptionActive,
	}); err != nil {
		return fail(err)
	}

	collCfg := a.collectionConfig(database, admin.ID, nil)
	collCfg.Seed = inventory.SampleData
	coll, err := inventory.Open(ctx, collCfg)
	if err != nil {
		return fail(fmt.Errorf("seeding collection: %w", err))
	}
	if err := inventory.Save(ctx, store.KV{DB: database, Namespace: store.UserNamespace(admin.ID)}, coll.Items()); err != nil {
		return fail(err)
	}
	if err := store.SetSetting(ctx, database, store.SettingSeededAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fail(err)
	}

	a.log.Info("database initialized", zap.String("path", path), zap.Int("sample_items", len(coll.Items())))
	return database, password, nil
}

// openDatabase opens the configured database, creating it with an admin
// account on first run, and brings the schema up to date.
func (a *app) openDatabase(ctx context.Context) (*sql.DB, error) {
	if _, err := os.Stat(a.cfg.DB); errors.Is(err, os.ErrNotExist) {
		database, password, err := a.initDatabase(ctx)
		if err != nil {
			return nil, fmt.Errorf("initializing database: %w", err)
		}
		database.Close()
		printInitResult(a.cfg.DB, a.cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := db.Open(a.cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	a.log.Info("database ready", zap.String("path", a.cfg.DB))
	return database, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized, sample collection loaded.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
