package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgtrail/orgtrail-go/internal/graph"
)

var careerCmd = &cobra.Command{
	Use:   "career <person-id>",
	Short: "Show a person's employment history in order",
	Long: `Walk a person's career chronologically. With --cluster, consecutive
roster fragments with the same organization and rank are merged into
single spans.`,
	Args: cobra.ExactArgs(1),
	RunE: runCareer,
}

var clusterCareer bool

func init() {
	careerCmd.Flags().BoolVar(&clusterCareer, "cluster", false, "merge contiguous same-role fragments")
}

func runCareer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	personID, err := parseID(args[0], "person")
	if err != nil {
		return err
	}

	db, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	steps, err := engine.CollectCareerPath(ctx, personID)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		fmt.Printf("No employment records for person %d\n", personID)
		return nil
	}
	if clusterCareer {
		steps = graph.ClusterCareer(steps)
	}

	fmt.Printf("📋 Career of %s (#%d)\n", steps[0].PersonName, personID)
	for _, step := range steps {
		fmt.Printf("  %s → %s  %s", formatDate(step.StartDate), formatEndDate(step.EndDate), step.OrgName)
		if step.Rank != "" {
			fmt.Printf(" (%s)", step.Rank)
		}
		if step.TenureDays > 0 {
			fmt.Printf("  [%d days]", step.TenureDays)
		}
		fmt.Println()
	}
	return nil
}
