package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sujalbistaa/petitions/internal/auth"
	"github.com/sujalbistaa/petitions/internal/db"
	"github.com/sujalbistaa/petitions/internal/store"
)

func TestTokenCommand_MintsVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("LOG_LEVEL", "none")

	cmd := newTokenCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--user-id", "17", "--ttl", "5m"})
	require.NoError(t, cmd.Execute())

	userID, err := auth.NewTokens("cli-secret", time.Hour).Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, uint(17), userID)
}

func TestTokenCommand_RequiresUserID(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	cmd := newTokenCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}

func TestMigrateCommand_CreatesSchemaAndSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	t.Setenv("DATABASE_URL", "sqlite://"+path)
	t.Setenv("SEED_CATEGORIES", "Wildlife, Education")
	t.Setenv("LOG_LEVEL", "none")

	cmd := newMigrateCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "migration done")

	conn, err := db.Open("sqlite://"+path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	categories, err := store.New(conn).ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Education", categories[1].Name)
}
