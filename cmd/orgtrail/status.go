package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store contents and configuration",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Printf("🔍 OrgTrail Status\n")
	fmt.Printf("%s\n", strings.Repeat("═", 50))

	fmt.Printf("\n📋 Configuration:\n")
	fmt.Printf("  Store: %s@%s:%d/%s\n", cfg.Storage.User, cfg.Storage.Host, cfg.Storage.Port, cfg.Storage.Database)
	fmt.Printf("  Batch size: %d\n", cfg.Ingest.BatchSize)
	fmt.Printf("  Max search depth: %d\n", cfg.Query.MaxSearchDepth)

	db, engine, err := openEngine()
	if err != nil {
		fmt.Printf("\n💾 Store: ❌ unreachable (%v)\n", err)
		return nil
	}
	defer db.Close()

	stats, err := engine.Stats(ctx)
	if err != nil {
		fmt.Printf("\n💾 Store: ❌ not initialized (run 'orgtrail init')\n")
		return nil
	}

	fmt.Printf("\n💾 Store:\n")
	fmt.Printf("  People:          %d\n", stats.People)
	fmt.Printf("  Organizations:   %d\n", stats.Organizations)
	fmt.Printf("  Employment:      %d\n", stats.Employment)
	fmt.Printf("  Colleague pairs: %d\n", stats.OverlapPairs)
	return nil
}
