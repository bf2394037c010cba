package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orgtrail/orgtrail-go/internal/database"
	"github.com/orgtrail/orgtrail-go/internal/resolution"
)

var searchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Find people by approximate name",
	Long: `Match a free-text name against the store using trigram similarity with
an edit-distance re-rank. Useful for finding the person id to feed into
career, connect, or colleagues.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.Join(args, " ")

	db, err := database.OpenRead(cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := resolution.NewResolver(db, cfg.Query).SearchPerson(ctx, query)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Printf("No matches for %q\n", query)
		return nil
	}

	fmt.Printf("🔍 Matches for %q\n", query)
	for _, m := range matches {
		fmt.Printf("  #%-6d %-30s similarity %.2f\n", m.ID, m.Name, m.Similarity)
	}
	return nil
}
