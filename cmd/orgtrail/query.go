package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/orgtrail/orgtrail-go/internal/database"
	"github.com/orgtrail/orgtrail-go/internal/graph"
)

// openEngine opens the read-side handle and a query engine over it.
// Callers must close the returned handle.
func openEngine() (*sqlx.DB, *graph.Engine, error) {
	db, err := database.OpenRead(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return db, graph.NewEngine(db, cfg.Query), nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

func parseDate(arg string) (time.Time, error) {
	if arg == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse("2006-01-02", arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", arg)
	}
	return d, nil
}

func formatDate(t time.Time) string { return t.Format("2006-01-02") }

func formatEndDate(t *time.Time) string {
	if t == nil {
		return "present"
	}
	return formatDate(*t)
}
