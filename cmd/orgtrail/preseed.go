package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgtrail/orgtrail-go/internal/database"
	"github.com/orgtrail/orgtrail-go/internal/ingestion"
)

var preseedCmd = &cobra.Command{
	Use:   "preseed",
	Short: "Upsert the organization hierarchy from a descriptor file",
	Long: `Load organization paths from a YAML or JSON file and upsert them into
the store, parents before children. Run this before ingesting tenures so
employment rows resolve against real org nodes.`,
	RunE: runPreseed,
}

var preseedFile string

func init() {
	preseedCmd.Flags().StringVarP(&preseedFile, "file", "f", "", "org descriptor file (.yaml/.json)")
	preseedCmd.MarkFlagRequired("file")
}

func runPreseed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	records, err := ingestion.LoadOrgDescriptors(preseedFile)
	if err != nil {
		return err
	}
	logger.WithField("records", len(records)).Info("Loaded organization descriptors")

	db, err := database.Connect(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := ingestion.NewPreseeder(db).Seed(ctx, records)
	if err != nil {
		return fmt.Errorf("pre-seed: %w", err)
	}

	fmt.Printf("✅ Pre-seed complete\n")
	fmt.Printf("  Created: %d\n", report.Created)
	fmt.Printf("  Updated: %d\n", report.Updated)
	fmt.Printf("  Failed:  %d\n", report.Failed)
	return nil
}
