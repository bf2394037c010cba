package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/orgtrail/orgtrail-go/internal/models"
)

// overlapEdge is one colleague_pairs row viewed as an undirected edge.
type overlapEdge struct {
	PersonAID    int64     `db:"person_a_id"`
	PersonBID    int64     `db:"person_b_id"`
	OrgID        int64     `db:"org_id"`
	OverlapStart time.Time `db:"overlap_start"`
	OverlapEnd   time.Time `db:"overlap_end"`
	OverlapDays  int       `db:"overlap_days"`
}

// ShortestConnection finds the minimum-hop chain of colleague overlaps
// linking two people, breadth-first over the derived overlap relation.
// Among equal-length chains it prefers the one with the largest total
// shared days, and when two people overlapped at several organizations
// the longest of those overlaps represents the link. Returns
// ErrNoConnection when no chain exists within the configured depth.
func (e *Engine) ShortestConnection(ctx context.Context, fromID, toID int64) (models.ConnectionPath, error) {
	if fromID == toID {
		return models.ConnectionPath{StartPersonID: fromID}, nil
	}

	dist := map[int64]int{fromID: 0}
	levels := [][]int64{{fromID}}
	adj := make(map[int64]map[int64]overlapEdge)

	targetDepth := -1
	for depth := 1; depth <= e.cfg.MaxSearchDepth; depth++ {
		if err := ctx.Err(); err != nil {
			return models.ConnectionPath{}, fmt.Errorf("connection search interrupted: %w", err)
		}

		frontier := levels[depth-1]
		if len(frontier) == 0 {
			break
		}

		edges, err := e.neighborEdges(ctx, frontier)
		if err != nil {
			return models.ConnectionPath{}, err
		}

		var next []int64
		for _, ed := range edges {
			addEdge(adj, ed)
			for _, pair := range [2][2]int64{{ed.PersonAID, ed.PersonBID}, {ed.PersonBID, ed.PersonAID}} {
				known, other := pair[0], pair[1]
				if d, ok := dist[known]; !ok || d != depth-1 {
					continue
				}
				if _, seen := dist[other]; !seen {
					dist[other] = depth
					next = append(next, other)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		levels = append(levels, next)

		if _, ok := dist[toID]; ok {
			targetDepth = depth
			break
		}
	}

	if targetDepth < 0 {
		return models.ConnectionPath{}, fmt.Errorf("person %d to %d within %d hops: %w",
			fromID, toID, e.cfg.MaxSearchDepth, ErrNoConnection)
	}

	pathIDs, total := bestPath(fromID, toID, targetDepth, levels, dist, adj)
	path, err := e.hydratePath(ctx, fromID, pathIDs, adj)
	if err != nil {
		return models.ConnectionPath{}, err
	}
	path.TotalDays = total

	e.logger.Debug("connection found",
		"from", fromID, "to", toID, "hops", path.Len(), "total_days", total)
	return path, nil
}

// neighborEdges fetches every overlap edge touching the frontier. The
// fixed ordering keeps discovery order, and therefore results on ties
// the scoring cannot split, stable across runs.
func (e *Engine) neighborEdges(ctx context.Context, frontier []int64) ([]overlapEdge, error) {
	query, args, err := sqlx.In(`
		SELECT person_a_id, person_b_id, org_id, overlap_start, overlap_end, overlap_days
		FROM colleague_pairs
		WHERE person_a_id IN (?) OR person_b_id IN (?)
		ORDER BY person_a_id, person_b_id, org_id`,
		frontier, frontier)
	if err != nil {
		return nil, fmt.Errorf("build frontier query: %w", err)
	}

	var edges []overlapEdge
	if err := e.db.SelectContext(ctx, &edges, e.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query frontier edges: %w", err)
	}
	return edges, nil
}

// addEdge records an undirected edge both ways, keeping only the
// longest overlap when a pair shares more than one organization.
func addEdge(adj map[int64]map[int64]overlapEdge, ed overlapEdge) {
	for _, pair := range [2][2]int64{{ed.PersonAID, ed.PersonBID}, {ed.PersonBID, ed.PersonAID}} {
		u, v := pair[0], pair[1]
		if adj[u] == nil {
			adj[u] = make(map[int64]overlapEdge)
		}
		if existing, ok := adj[u][v]; !ok || ed.OverlapDays > existing.OverlapDays {
			adj[u][v] = ed
		}
	}
}

// bestPath scores every minimum-hop path by total overlap days in one
// pass over the BFS levels and returns the winning node sequence,
// excluding the start.
func bestPath(fromID, toID int64, targetDepth int, levels [][]int64, dist map[int64]int, adj map[int64]map[int64]overlapEdge) ([]int64, int) {
	best := map[int64]int{fromID: 0}
	pred := make(map[int64]int64)

	for depth := 1; depth <= targetDepth; depth++ {
		for _, v := range levels[depth] {
			for u, ed := range adj[v] {
				if dist[u] != depth-1 {
					continue
				}
				upstream, ok := best[u]
				if !ok {
					continue
				}
				cand := upstream + ed.OverlapDays
				cur, seen := best[v]
				if !seen || cand > cur || (cand == cur && u < pred[v]) {
					best[v] = cand
					pred[v] = u
				}
			}
		}
	}

	ids := make([]int64, targetDepth)
	node := toID
	for i := targetDepth - 1; i >= 0; i-- {
		ids[i] = node
		node = pred[node]
	}
	return ids, best[toID]
}

// hydratePath attaches person and organization names to the hop chain.
func (e *Engine) hydratePath(ctx context.Context, fromID int64, pathIDs []int64, adj map[int64]map[int64]overlapEdge) (models.ConnectionPath, error) {
	path := models.ConnectionPath{StartPersonID: fromID}

	personIDs := []int64{fromID}
	var orgIDs []int64
	prev := fromID
	for _, id := range pathIDs {
		ed := adj[id][prev]
		path.Hops = append(path.Hops, models.ConnectionHop{
			PersonID:     id,
			OrgID:        ed.OrgID,
			OverlapStart: ed.OverlapStart,
			OverlapEnd:   ed.OverlapEnd,
			OverlapDays:  ed.OverlapDays,
		})
		personIDs = append(personIDs, id)
		orgIDs = append(orgIDs, ed.OrgID)
		prev = id
	}

	personNames, err := e.namesByID(ctx, "people", personIDs)
	if err != nil {
		return models.ConnectionPath{}, err
	}
	orgNames, err := e.namesByID(ctx, "organizations", orgIDs)
	if err != nil {
		return models.ConnectionPath{}, err
	}

	for i := range path.Hops {
		path.Hops[i].PersonName = personNames[path.Hops[i].PersonID]
		path.Hops[i].OrgName = orgNames[path.Hops[i].OrgID]
	}
	return path, nil
}

func (e *Engine) namesByID(ctx context.Context, table string, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}

	query, args, err := sqlx.In(`SELECT id, name FROM `+table+` WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build name lookup: %w", err)
	}

	rows, err := e.db.QueryxContext(ctx, e.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("lookup %s names: %w", table, err)
	}
	defer rows.Close()

	names := make(map[int64]string, len(ids))
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan %s name: %w", table, err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
