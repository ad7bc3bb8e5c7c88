package cmd

import (
	"encoding/json"
	"errors"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/render"
	"github.com/thenoetrevino/tablero/internal/types"
)

func boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect boards",
	}

	cmd.AddCommand(boardShowCmd())
	return cmd
}

func boardShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a board",
		Long: `Render a board's columns side by side with their cards in order.

Examples:
  # Columns and card titles
  tablero board show --id=1

  # Include card descriptions and check ordering
  tablero board show --id=1 --details --verify

  # Machine readable
  tablero board show --id=1 --json`,
		Args: cobra.NoArgs,
		RunE: runBoardShow,
	}

	cmd.Flags().Int("id", 0, "Board ID (required)")
	cmd.Flags().Bool("verify", false, "Check that every column and card set is densely ordered (exit 5 on violation)")
	cmd.Flags().Bool("details", false, "Render card descriptions")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runBoardShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	id, _ := cmd.Flags().GetInt("id")
	verify, _ := cmd.Flags().GetBool("verify")
	details, _ := cmd.Flags().GetBool("details")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if id <= 0 {
		return withExitCode(ExitUsage, errors.New("board ID must be a positive integer"))
	}
	boardID := types.BoardID(id)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, repo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	detail, err := repo.LoadBoard(ctx, boardID)
	if err != nil {
		return err
	}

	var violation error
	if verify {
		violation = repo.VerifyBoard(ctx, boardID)
		var order *database.OrderViolation
		if violation != nil && !errors.As(violation, &order) {
			return violation
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		result := map[string]any{"board": detail}
		if verify {
			result["verified"] = violation == nil
		}
		if err := json.NewEncoder(out).Encode(result); err != nil {
			return err
		}
	} else {
		styles := render.NewStyles(cfg.Theme)
		lipgloss.Fprintln(out, styles.Board(detail, render.Options{Details: details}))
		if verify {
			lipgloss.Fprintln(out, styles.Verified(violation))
		}
	}

	if violation != nil {
		return withExitCode(ExitViolation, violation)
	}
	return nil
}
