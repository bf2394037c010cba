package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline <org-id>",
	Short: "List the dates on which an org subtree's composition changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimeline,
}

func runTimeline(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	orgID, err := parseID(args[0], "organization")
	if err != nil {
		return err
	}

	db, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	dates, err := engine.OrgTimeline(ctx, orgID)
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		fmt.Printf("No employment history below org %d\n", orgID)
		return nil
	}

	fmt.Printf("📅 %d change dates for org %d\n", len(dates), orgID)
	for _, d := range dates {
		fmt.Printf("  %s\n", formatDate(d))
	}
	return nil
}
