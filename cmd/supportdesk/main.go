package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/supportdesk-io/supportdesk-ce/internal/auth"
	"github.com/supportdesk-io/supportdesk-ce/internal/config"
	"github.com/supportdesk-io/supportdesk-ce/internal/database"
	"github.com/supportdesk-io/supportdesk-ce/internal/models"
	"github.com/supportdesk-io/supportdesk-ce/internal/repository"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPathFlag string

var rootCmd = &cobra.Command{
	Use:   "supportdesk",
	Short: "SupportDesk CLI - customer support ticketing management tool",
	Long: `SupportDesk Command Line Interface

Utilities for managing a SupportDesk installation: applying the database
schema and creating accounts without going through the HTTP API.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Apply the embedded schema to the configured database.

Statements are idempotent, so running this against an existing database is
safe.`,
	RunE: runMigrate,
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an account directly in the database",
	RunE:  runCreateUser,
}

var (
	emailFlag    string
	passwordFlag string
	nameFlag     string
	roleFlag     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "config", "Directory holding default.yaml")

	createUserCmd.Flags().StringVar(&emailFlag, "email", "", "Email address (required)")
	createUserCmd.Flags().StringVar(&passwordFlag, "password", "", "Password (required)")
	createUserCmd.Flags().StringVar(&nameFlag, "name", "", "Full name (required)")
	createUserCmd.Flags().StringVar(&roleFlag, "role", models.RoleCustomer, "Role: customer, agent or admin")
	createUserCmd.MarkFlagRequired("email")
	createUserCmd.MarkFlagRequired("password")
	createUserCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createUserCmd)
}

func connect() (*repository.UserRepository, func(), error) {
	if err := config.Load(configPathFlag); err != nil {
		return nil, nil, err
	}
	cfg := config.Get()

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewUserRepository(db), func() { db.Close() }, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := config.Load(configPathFlag); err != nil {
		return err
	}
	cfg := config.Get()

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	fmt.Println("Schema applied")
	return nil
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	if !models.ValidateRole(roleFlag) {
		return fmt.Errorf("invalid role: %s", roleFlag)
	}

	users, closeDB, err := connect()
	if err != nil {
		return err
	}
	defer closeDB()

	cfg := config.Get()
	hasher := auth.NewPasswordHasher(cfg.Auth.Password.BcryptCost, cfg.Auth.Password.MinLength)
	hash, err := hasher.HashPassword(passwordFlag)
	if err != nil {
		return err
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Email:    emailFlag,
		FullName: nameFlag,
		Role:     roleFlag,
	}
	if err := users.Create(context.Background(), user, hash); err != nil {
		return err
	}
	fmt.Printf("Created %s account %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
