package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orgtrail/orgtrail-go/internal/models"
)

var orgchartCmd = &cobra.Command{
	Use:   "orgchart <org-id>",
	Short: "Reconstruct an organization subtree at a point in time",
	Long: `Show the organization subtree as it stood on a given date. Units with
no tenure covering the date are pruned unless an active descendant needs
them as a connecting ancestor.`,
	Args: cobra.ExactArgs(1),
	RunE: runOrgchart,
}

var orgchartDate string

func init() {
	orgchartCmd.Flags().StringVar(&orgchartDate, "date", "", "chart date YYYY-MM-DD (default today)")
}

func runOrgchart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	orgID, err := parseID(args[0], "organization")
	if err != nil {
		return err
	}
	asOf, err := parseDate(orgchartDate)
	if err != nil {
		return err
	}

	db, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	root, err := engine.OrgChart(ctx, orgID, asOf)
	if err != nil {
		return err
	}

	fmt.Printf("🏛  %s as of %s\n", root.Org.Name, formatDate(asOf))
	printOrgNode(root, 0)
	return nil
}

func printOrgNode(node *models.OrgNode, depth int) {
	marker := "·"
	if node.Active {
		marker = "●"
	}
	fmt.Printf("%s%s %s (#%d)\n", strings.Repeat("  ", depth), marker, node.Org.Name, node.Org.ID)
	for _, child := range node.Children {
		printOrgNode(child, depth+1)
	}
}
