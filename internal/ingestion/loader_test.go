package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOrgDescriptorsYAML(t *testing.T) {
	path := writeTemp(t, "orgs.yaml", `
- parts: ["Ministry of Finance"]
  entity_type: ministry
- parts: ["Ministry of Finance", "Budget Office"]
  entity_type: department
  url: https://example.gov/budget
`)

	records, err := LoadOrgDescriptors(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Ministry of Finance", records[0].Name())
	assert.Equal(t, "Ministry of Finance : Budget Office", records[1].PathKey())
	assert.Equal(t, "https://example.gov/budget", records[1].URL)
}

func TestLoadOrgDescriptorsJSON(t *testing.T) {
	path := writeTemp(t, "orgs.json", `[{"parts":["Agency"],"entity_type":"statutory board"}]`)

	records, err := LoadOrgDescriptors(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "statutory board", records[0].EntityType)
}

func TestLoadOrgDescriptorsUnknownFormat(t *testing.T) {
	path := writeTemp(t, "orgs.txt", "whatever")
	_, err := LoadOrgDescriptors(path)
	assert.Error(t, err)
}

func TestLoadTenureCSV(t *testing.T) {
	path := writeTemp(t, "tenures.csv",
		"name,org_path,rank,start_date,end_date,tel,email,source_url\n"+
			"John Tan,Ministry : Digital Services,Director,2021-07-22,2022-04-10,,john@example.gov,https://example.gov/roster\n"+
			"Mary Lee,Ministry : Digital Services,Engineer,2021-07-22,,,,\n"+
			"Broken Row,Ministry,Engineer,not-a-date,,,,\n")

	records, malformed, err := LoadTenureCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, malformed, "bad date row counted, not fatal")
	require.Len(t, records, 2)

	assert.Equal(t, "John Tan", records[0].RawName)
	require.NotNil(t, records[0].EndDate)
	assert.Equal(t, "2022-04-10", records[0].EndDate.Format("2006-01-02"))

	assert.Nil(t, records[1].EndDate, "empty end_date means open tenure")
}

func TestLoadTenureCSVRejectsWrongHeader(t *testing.T) {
	path := writeTemp(t, "bad.csv", "person,company\nJohn,Acme\n")
	_, _, err := LoadTenureCSV(context.Background(), path)
	assert.Error(t, err)
}

func TestLoadTenureCSVStopsOnCancelledContext(t *testing.T) {
	path := writeTemp(t, "tenures.csv",
		"name,org_path,rank,start_date,end_date,tel,email,source_url\n"+
			"John Tan,Ministry,Director,2021-01-01,,,,\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := LoadTenureCSV(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadManifestResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
orgs: orgs.yaml
tenures:
  - data/2021.csv
  - /abs/2022.csv
`), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "orgs.yaml"), m.Orgs)
	assert.Equal(t, filepath.Join(dir, "data", "2021.csv"), m.Tenures[0])
	assert.Equal(t, "/abs/2022.csv", m.Tenures[1], "absolute paths kept as-is")
}

func TestLoadManifestRequiresTenures(t *testing.T) {
	path := writeTemp(t, "manifest.yaml", "orgs: orgs.yaml\n")
	_, err := LoadManifest(path)
	assert.Error(t, err)
}

func TestLoadTenureFilesKeepsListedOrder(t *testing.T) {
	header := "name,org_path,rank,start_date,end_date,tel,email,source_url\n"
	first := writeTemp(t, "2021.csv", header+
		"John Tan,Ministry,Director,2021-01-01,2021-12-31,,,\n"+
		"Broken,Ministry,Engineer,nope,,,,\n")
	second := writeTemp(t, "2022.csv", header+
		"Mary Lee,Ministry,Engineer,2022-01-01,,,,\n")

	records, malformed, err := LoadTenureFiles(context.Background(), []string{first, second})
	require.NoError(t, err)
	assert.Equal(t, 1, malformed)
	require.Len(t, records, 2)
	assert.Equal(t, "John Tan", records[0].RawName)
	assert.Equal(t, "Mary Lee", records[1].RawName)
}

func TestLoadTenureFilesPropagatesOpenError(t *testing.T) {
	_, _, err := LoadTenureFiles(context.Background(), []string{"/no/such/file.csv"})
	assert.Error(t, err)
}

func TestLoadTenureFilesHonorsCancelledContext(t *testing.T) {
	path := writeTemp(t, "tenures.csv",
		"name,org_path,rank,start_date,end_date,tel,email,source_url\n"+
			"John Tan,Ministry,Director,2021-01-01,,,,\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := LoadTenureFiles(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
}
