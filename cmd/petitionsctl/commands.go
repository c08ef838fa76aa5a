package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sujalbistaa/petitions/internal/auth"
	"github.com/sujalbistaa/petitions/internal/config"
	"github.com/sujalbistaa/petitions/internal/db"
	"github.com/sujalbistaa/petitions/internal/logging"
	"github.com/sujalbistaa/petitions/internal/store"
)

const (
	userIDFlag      = "user-id"
	ttlFlag         = "ttl"
	databaseURLFlag = "database-url"
	timeoutFlag     = "timeout"
)

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "petitionsctl",
		Short:        "Operator tasks for the petitions server",
		SilenceUsage: true,
	}
}

// newTokenCommand mints a token the server accepts, for local testing
// without the user service.
func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a user id",
		Long:  "Mint an access token signed with JWT_SECRET. Send it in the X-Authorization header.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			userID, err := flags.GetUint(userIDFlag)
			if err != nil {
				return err
			}
			if userID == 0 {
				return errors.New("--user-id is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ttl := cfg.TokenTTL
			if flags.Changed(ttlFlag) {
				if ttl, err = flags.GetDuration(ttlFlag); err != nil {
					return err
				}
			}

			token, err := auth.NewTokens(cfg.JWTSecret, ttl).Issue(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Uint(userIDFlag, 0, "(required) the user id to put in the token")
	flags.Duration(ttlFlag, 0, "token lifetime (defaults to TOKEN_TTL)")
	return cmd
}

// newMigrateCommand creates the tables and seeds categories, without
// starting the server.
func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			dbURL := cfg.DatabaseURL
			if flags.Changed(databaseURLFlag) {
				dbURL, _ = flags.GetString(databaseURLFlag)
			}
			timeout, err := flags.GetDuration(timeoutFlag)
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.LogFormat, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := migrate(ctx, dbURL, cfg.SeedCategories, logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration done")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String(databaseURLFlag, "", "database to migrate (defaults to DATABASE_URL)")
	flags.Duration(timeoutFlag, time.Minute, "a timeout after which the migration is abandoned")
	return cmd
}

func migrate(ctx context.Context, dbURL string, categories []string, logger *zap.Logger) error {
	database, err := db.Open(dbURL, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	s := store.New(database)
	if err := s.Migrate(); err != nil {
		return err
	}
	if err := s.SeedCategories(ctx, categories); err != nil {
		return err
	}
	logger.Info("migration complete", zap.Int("seed_categories", len(categories)))
	return nil
}
