package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orgtrail/orgtrail-go/internal/database"
	"github.com/orgtrail/orgtrail-go/internal/models"
)

const orgSubtreeSQL = `
	WITH RECURSIVE subtree AS (
		SELECT id, name, path_key, entity_type, url, parent_org_id, created_at, updated_at
		FROM organizations
		WHERE id = $1
		UNION ALL
		SELECT o.id, o.name, o.path_key, o.entity_type, o.url, o.parent_org_id, o.created_at, o.updated_at
		FROM organizations o
		JOIN subtree s ON o.parent_org_id = s.id
	)
	SELECT id, name, path_key, entity_type, url, parent_org_id, created_at, updated_at
	FROM subtree
`

const activeOrgsSQL = `
	WITH RECURSIVE subtree AS (
		SELECT id FROM organizations WHERE id = $1
		UNION ALL
		SELECT o.id FROM organizations o JOIN subtree s ON o.parent_org_id = s.id
	)
	SELECT DISTINCT e.org_id
	FROM employment e
	JOIN subtree s ON s.id = e.org_id
	WHERE e.start_date <= $2
	  AND (e.end_date IS NULL OR e.end_date >= $2)
`

// OrgChart reconstructs the organization subtree rooted at orgID as it
// stood on asOf. A unit is active when at least one tenure covers the
// date; inactive units are pruned unless an active descendant needs
// them as a connecting ancestor. The root is always returned, active or
// not, so "nothing was active" and "no such org" stay distinguishable.
func (e *Engine) OrgChart(ctx context.Context, orgID int64, asOf time.Time) (*models.OrgNode, error) {
	var (
		orgs   []models.Organization
		active []int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.db.SelectContext(gctx, &orgs, orgSubtreeSQL, orgID); err != nil {
			return fmt.Errorf("query org subtree: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := e.db.SelectContext(gctx, &active, activeOrgsSQL, orgID, asOf); err != nil {
			return fmt.Errorf("query active orgs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(orgs) == 0 {
		return nil, fmt.Errorf("organization %d: %w", orgID, database.ErrNotFound)
	}

	root := buildOrgTree(orgID, orgs, active)
	e.logger.Debug("org chart built",
		"org_id", orgID, "as_of", asOf.Format("2006-01-02"),
		"subtree", len(orgs), "active", len(active))
	return root, nil
}

// buildOrgTree assembles the subtree and prunes branches with no active
// evidence anywhere below them.
func buildOrgTree(rootID int64, orgs []models.Organization, active []int64) *models.OrgNode {
	activeSet := make(map[int64]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}

	nodes := make(map[int64]*models.OrgNode, len(orgs))
	for _, org := range orgs {
		nodes[org.ID] = &models.OrgNode{Org: org, Active: activeSet[org.ID]}
	}

	for _, node := range nodes {
		if node.Org.ID == rootID || node.Org.ParentOrgID == nil {
			continue
		}
		if parent, ok := nodes[*node.Org.ParentOrgID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}

	root := nodes[rootID]
	pruneInactive(root)
	sortChildren(root)
	return root
}

// pruneInactive removes children whose entire branch is inactive and
// reports whether the node itself should survive.
func pruneInactive(node *models.OrgNode) bool {
	kept := node.Children[:0]
	for _, child := range node.Children {
		if pruneInactive(child) {
			kept = append(kept, child)
		}
	}
	node.Children = kept
	return node.Active || len(node.Children) > 0
}

func sortChildren(node *models.OrgNode) {
	sort.Slice(node.Children, func(i, j int) bool {
		return node.Children[i].Org.Name < node.Children[j].Org.Name
	})
	for _, child := range node.Children {
		sortChildren(child)
	}
}
