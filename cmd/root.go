package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/database"
)

// NewRootCmd builds the tablero command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tablero",
		Short: "Tablero - an ordered collaborative board engine",
		Long: `Tablero serves collaborative boards of ordered columns and cards,
with live updates and encrypted chat per board.`,
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(boardCmd())

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// openStore opens the configured database and applies migrations
func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, *database.Repository, error) {
	db, dialect, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.Migrate(ctx, db, dialect); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, database.NewRepository(db, dialect), nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		slog.Warn("failed to close database", "error", err)
	}
}
