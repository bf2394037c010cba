package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgtrail/orgtrail-go/internal/graph"
)

var connectCmd = &cobra.Command{
	Use:   "connect <from-person-id> <to-person-id>",
	Short: "Find the shortest colleague chain between two people",
	Long: `Search the colleague-overlap graph breadth-first for the shortest chain
of shared tenures linking two people. Equal-length chains are ranked by
total shared days.`,
	Args: cobra.ExactArgs(2),
	RunE: runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fromID, err := parseID(args[0], "person")
	if err != nil {
		return err
	}
	toID, err := parseID(args[1], "person")
	if err != nil {
		return err
	}

	db, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	path, err := engine.ShortestConnection(ctx, fromID, toID)
	if errors.Is(err, graph.ErrNoConnection) {
		fmt.Printf("No connection between %d and %d within %d hops\n", fromID, toID, cfg.Query.MaxSearchDepth)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("🔗 %d hop(s), %d shared days total\n", path.Len(), path.TotalDays)
	for i, hop := range path.Hops {
		fmt.Printf("  %d. %s via %s (%s → %s, %d days)\n",
			i+1, hop.PersonName, hop.OrgName,
			formatDate(hop.OverlapStart), formatDate(hop.OverlapEnd), hop.OverlapDays)
	}
	return nil
}
