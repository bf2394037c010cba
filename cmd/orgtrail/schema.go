package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgtrail/orgtrail-go/internal/database"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the store schema if it does not exist",
	Long:  `Create extensions, tables, and indexes. Safe to run repeatedly.`,
	RunE:  runInit,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the entire store schema",
	Long: `Drop every table, including all ingested data, and recreate the schema
from scratch. Requires --force; there is no undo.`,
	RunE: runReset,
}

var forceReset bool

func init() {
	resetCmd.Flags().BoolVar(&forceReset, "force", false, "confirm destructive reset")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.NewSchemaManager(db, cfg.Ingest.EmbeddingDim).Setup(ctx); err != nil {
		return fmt.Errorf("schema setup: %w", err)
	}

	fmt.Println("✅ Schema ready")
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !forceReset {
		return fmt.Errorf("reset drops all data; re-run with --force to confirm")
	}

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.NewSchemaManager(db, cfg.Ingest.EmbeddingDim).Reset(ctx); err != nil {
		return fmt.Errorf("schema reset: %w", err)
	}

	fmt.Println("✅ Schema reset complete")
	return nil
}
