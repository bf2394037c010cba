package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var turnoverCmd = &cobra.Command{
	Use:   "turnover <org-id>",
	Short: "Analyze staffing churn at an organization",
	Long: `List every tenure recorded at an organization and report the average
closed-tenure length. Bound the analysis with --from and --to to look at
tenures starting and ending inside a window.`,
	Args: cobra.ExactArgs(1),
	RunE: runTurnover,
}

var (
	turnoverFrom string
	turnoverTo   string
)

func init() {
	turnoverCmd.Flags().StringVar(&turnoverFrom, "from", "", "only tenures starting on or after YYYY-MM-DD")
	turnoverCmd.Flags().StringVar(&turnoverTo, "to", "", "only tenures ending on or before YYYY-MM-DD")
}

func runTurnover(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	orgID, err := parseID(args[0], "organization")
	if err != nil {
		return err
	}
	from, err := parseOptionalDate(turnoverFrom)
	if err != nil {
		return err
	}
	to, err := parseOptionalDate(turnoverTo)
	if err != nil {
		return err
	}

	db, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := engine.OrgTurnover(ctx, orgID, from, to)
	if err != nil {
		return err
	}
	if report.TotalTenures == 0 {
		fmt.Printf("No tenures at organization %d in the given window\n", orgID)
		return nil
	}

	fmt.Printf("📊 Turnover at organization %d\n", orgID)
	fmt.Printf("  Tenures:        %d (%d still open)\n", report.TotalTenures, report.OpenTenures)
	fmt.Printf("  Avg closed:     %.1f days\n", report.AvgTenureDays)
	for _, entry := range report.Entries {
		fmt.Printf("  #%-6d %-30s %-25s %s to %s\n",
			entry.PersonID, entry.PersonName, entry.Rank,
			formatDate(entry.StartDate), formatEndDate(entry.EndDate))
	}
	return nil
}

func parseOptionalDate(arg string) (*time.Time, error) {
	if arg == "" {
		return nil, nil
	}
	d, err := parseDate(arg)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
