package ingestion

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/orgtrail/orgtrail-go/internal/models"
)

// Manifest describes one ingestion run: an optional organization
// descriptor file and the tenure CSV files to load. Relative paths are
// resolved against the manifest's own directory.
type Manifest struct {
	Orgs    string   `yaml:"orgs,omitempty"`
	Tenures []string `yaml:"tenures"`
}

// LoadManifest reads a dataset manifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Tenures) == 0 {
		return Manifest{}, fmt.Errorf("manifest %s lists no tenure files", path)
	}

	base := filepath.Dir(path)
	if m.Orgs != "" && !filepath.IsAbs(m.Orgs) {
		m.Orgs = filepath.Join(base, m.Orgs)
	}
	for i, t := range m.Tenures {
		if !filepath.IsAbs(t) {
			m.Tenures[i] = filepath.Join(base, t)
		}
	}
	return m, nil
}

// LoadTenureFiles reads several tenure CSV files concurrently and
// concatenates their rows in the listed file order.
func LoadTenureFiles(ctx context.Context, paths []string) ([]models.TenureRecord, int, error) {
	perFile := make([][]models.TenureRecord, len(paths))
	var (
		mu        sync.Mutex
		malformed int
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			records, bad, err := LoadTenureCSV(gctx, path)
			if err != nil {
				return err
			}
			perFile[i] = records
			mu.Lock()
			malformed += bad
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var all []models.TenureRecord
	for _, records := range perFile {
		all = append(all, records...)
	}
	return all, malformed, nil
}

// LoadOrgDescriptors reads a pre-seed file of organization paths.
// YAML and JSON are both accepted, keyed on file extension.
func LoadOrgDescriptors(path string) ([]models.OrgDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read org file: %w", err)
	}

	var records []models.OrgDescriptor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	case ".json":
		err = json.Unmarshal(data, &records)
	default:
		return nil, fmt.Errorf("unsupported org file format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse org file %s: %w", path, err)
	}
	return records, nil
}

// tenureColumns is the required CSV header, in order.
var tenureColumns = []string{
	"name", "org_path", "rank", "start_date", "end_date", "tel", "email", "source_url",
}

// LoadTenureCSV reads a tenure dataset in the flat CSV layout produced
// by the scraping stage. Dates are YYYY-MM-DD; an empty end_date means
// the tenure is still open. Malformed rows are returned alongside the
// good ones so the caller can count them as failures instead of
// aborting the file. Cancelling the context stops the read mid-file.
func LoadTenureCSV(ctx context.Context, path string) ([]models.TenureRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open tenure file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, 0, fmt.Errorf("tenure file %s: %w", path, err)
	}

	var (
		records   []models.TenureRecord
		malformed int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			malformed++
			continue
		}

		rec, err := parseTenureRow(row)
		if err != nil {
			malformed++
			continue
		}
		records = append(records, rec)
	}
	return records, malformed, nil
}

func checkHeader(header []string) error {
	if len(header) != len(tenureColumns) {
		return fmt.Errorf("expected %d columns, got %d", len(tenureColumns), len(header))
	}
	for i, want := range tenureColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return fmt.Errorf("column %d: expected %q, got %q", i, want, header[i])
		}
	}
	return nil
}

func parseTenureRow(row []string) (models.TenureRecord, error) {
	if len(row) != len(tenureColumns) {
		return models.TenureRecord{}, fmt.Errorf("expected %d fields, got %d", len(tenureColumns), len(row))
	}

	start, err := time.Parse("2006-01-02", strings.TrimSpace(row[3]))
	if err != nil {
		return models.TenureRecord{}, fmt.Errorf("parse start_date: %w", err)
	}

	var end *time.Time
	if raw := strings.TrimSpace(row[4]); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return models.TenureRecord{}, fmt.Errorf("parse end_date: %w", err)
		}
		end = &parsed
	}

	return models.TenureRecord{
		RawName:   strings.TrimSpace(row[0]),
		OrgPath:   strings.TrimSpace(row[1]),
		Rank:      strings.TrimSpace(row[2]),
		StartDate: start,
		EndDate:   end,
		Tel:       strings.TrimSpace(row[5]),
		Email:     strings.TrimSpace(row[6]),
		SourceURL: strings.TrimSpace(row[7]),
	}, nil
}
