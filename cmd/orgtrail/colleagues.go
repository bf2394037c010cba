package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var colleaguesCmd = &cobra.Command{
	Use:   "colleagues <person-id>",
	Short: "List a person's co-workers on a given date, or ever",
	Args:  cobra.ExactArgs(1),
	RunE:  runColleagues,
}

var (
	colleaguesDate string
	colleaguesAll  bool
)

func init() {
	colleaguesCmd.Flags().StringVar(&colleaguesDate, "date", "", "date YYYY-MM-DD (default today)")
	colleaguesCmd.Flags().BoolVar(&colleaguesAll, "all", false, "every colleague ever, aggregated")
	colleaguesCmd.MarkFlagsMutuallyExclusive("date", "all")
}

func runColleagues(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	personID, err := parseID(args[0], "person")
	if err != nil {
		return err
	}
	date, err := parseDate(colleaguesDate)
	if err != nil {
		return err
	}

	db, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	if colleaguesAll {
		summaries, err := engine.AllColleagues(ctx, personID)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Printf("No colleagues of %d on record\n", personID)
			return nil
		}

		fmt.Printf("👥 All colleagues of %d\n", personID)
		for _, s := range summaries {
			fmt.Printf("  #%-6d %-30s %d org(s), %d shared days (%s to %s)\n",
				s.PersonID, s.PersonName, s.SharedOrgs, s.TotalOverlapDays,
				formatDate(s.FirstOverlap), formatDate(s.LastOverlap))
		}
		return nil
	}

	colleagues, err := engine.ColleaguesAt(ctx, personID, date)
	if err != nil {
		return err
	}
	if len(colleagues) == 0 {
		fmt.Printf("No colleagues of %d on %s\n", personID, formatDate(date))
		return nil
	}

	fmt.Printf("👥 Colleagues of %d on %s\n", personID, formatDate(date))
	for _, c := range colleagues {
		fmt.Printf("  #%-6d %-30s %s (%d shared days)\n", c.PersonID, c.PersonName, c.OrgName, c.OverlapDays)
	}
	return nil
}
