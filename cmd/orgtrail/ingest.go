package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgtrail/orgtrail-go/internal/database"
	"github.com/orgtrail/orgtrail-go/internal/ingestion"
	"github.com/orgtrail/orgtrail-go/internal/models"
	"github.com/orgtrail/orgtrail-go/internal/overlap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Bulk-load employment tenures from a CSV file",
	Long: `Read tenure rows from a CSV file, resolve people by normalized name,
write employment edges, and refresh the colleague-overlap index once at the
end. Bad rows are counted and skipped, never fatal.`,
	RunE: runIngest,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the colleague-overlap index",
	Long: `Recompute the derived colleague-pairs relation from the employment
edges. Ingest does this automatically; use this after manual edits.`,
	RunE: runRefresh,
}

var (
	ingestFile     string
	ingestManifest string
	batchSize      int
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "tenure CSV file")
	ingestCmd.Flags().StringVarP(&ingestManifest, "manifest", "m", "", "dataset manifest (.yaml) listing org and tenure files")
	ingestCmd.Flags().IntVar(&batchSize, "batch-size", 0, "employment edges per transaction (default from config)")
	ingestCmd.MarkFlagsOneRequired("file", "manifest")
	ingestCmd.MarkFlagsMutuallyExclusive("file", "manifest")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var (
		records   []models.TenureRecord
		malformed int
		orgFile   string
		err       error
	)
	if ingestManifest != "" {
		manifest, mErr := ingestion.LoadManifest(ingestManifest)
		if mErr != nil {
			return mErr
		}
		orgFile = manifest.Orgs
		records, malformed, err = ingestion.LoadTenureFiles(ctx, manifest.Tenures)
	} else {
		records, malformed, err = ingestion.LoadTenureCSV(ctx, ingestFile)
	}
	if err != nil {
		return err
	}
	logger.WithField("rows", len(records)).Info("Loaded tenure rows")
	if malformed > 0 {
		logger.WithField("rows", malformed).Warn("Skipped malformed CSV rows")
	}

	db, err := database.Connect(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	if orgFile != "" {
		orgs, err := ingestion.LoadOrgDescriptors(orgFile)
		if err != nil {
			return err
		}
		seedReport, err := ingestion.NewPreseeder(db).Seed(ctx, orgs)
		if err != nil {
			return fmt.Errorf("pre-seed from manifest: %w", err)
		}
		logger.WithField("created", seedReport.Created).
			WithField("updated", seedReport.Updated).
			WithField("failed", seedReport.Failed).
			Info("Pre-seeded organizations from manifest")
	}

	size := batchSize
	if size <= 0 {
		size = cfg.Ingest.BatchSize
	}

	ingestor := ingestion.NewIngestor(db, overlap.NewMaintainer(db))
	report, err := ingestor.BulkInsert(ctx, records, size)
	if err != nil {
		return fmt.Errorf("bulk insert: %w", err)
	}

	fmt.Printf("✅ Ingest complete (run %s)\n", report.RunID)
	fmt.Printf("  Rows processed:  %d\n", report.RowsProcessed)
	fmt.Printf("  Persons created: %d\n", report.PersonsCreated)
	fmt.Printf("  Persons reused:  %d\n", report.PersonsReused)
	fmt.Printf("  Edges written:   %d\n", report.EdgesWritten)
	fmt.Printf("  Edges failed:    %d\n", report.EdgesFailed+malformed)
	if !report.Refreshed {
		fmt.Printf("  ⚠️  Overlap index not refreshed; run 'orgtrail refresh'\n")
	}
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := overlap.NewMaintainer(db).Refresh(ctx); err != nil {
		return fmt.Errorf("refresh overlap index: %w", err)
	}

	fmt.Println("✅ Colleague-overlap index refreshed")
	return nil
}
