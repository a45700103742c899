package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicehub/internal/config"
	"servicehub/internal/database"
	"servicehub/internal/logger"
	"servicehub/internal/media"
	"servicehub/internal/repository"
	"servicehub/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const commandTimeout = time.Minute

// boot loads config and opens the MongoDB connection
func boot(ctx context.Context) (*config.Config, *zap.Logger, *database.Service, error) {
	cfg := config.Load()
	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Database.Driver != config.DBDriverMongo {
		return nil, nil, nil, errors.New("admin commands require DB_DRIVER=mongo")
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

var adminInput service.RegisterInput

// servicehub-admin create-admin
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		cfg, log, db, err := boot(ctx)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())
		defer log.Sync()

		repos := repository.NewMongoRepositories(db.DB())
		// account creation never uploads media
		manager := media.NewManager(media.NewMemoryStore(), log, cfg.Media.Timeout)
		users := service.NewUserService(repos.Users, manager, cfg.JWT.Secret,
			time.Duration(cfg.JWT.AccessExpiry)*time.Minute, log)

		user, err := users.CreateAdmin(ctx, adminInput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

// servicehub-admin ensure-indexes
var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create the MongoDB indexes the API relies on",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		_, log, db, err := boot(ctx)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())
		defer log.Sync()

		if err := database.EnsureIndexes(ctx, db.DB(), log); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Indexes are up to date")
		return nil
	},
}

func init() {
	flags := createAdminCmd.Flags()
	flags.StringVar(&adminInput.Name, "name", "", "display name")
	flags.StringVar(&adminInput.Email, "email", "", "login email")
	flags.StringVar(&adminInput.Password, "password", "", "initial password")
	flags.StringVar(&adminInput.Phone, "phone", "", "contact phone")
	flags.StringVar(&adminInput.Address, "address", "", "postal address")
	for _, name := range []string{"name", "email", "password", "phone", "address"} {
		_ = createAdminCmd.MarkFlagRequired(name)
	}
}
