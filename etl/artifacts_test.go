package etl

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteArtifactsCSV(t *testing.T) {
	schema, _ := buildFromFile(t, "testdata/raw_extract.csv")
	dir := filepath.Join(t.TempDir(), "data")

	paths, err := WriteArtifacts(dir, schema, false)
	require.NoError(t, err)
	require.Len(t, paths, len(Tables))

	for _, def := range Tables {
		records := readCSVFile(t, ArtifactPath(dir, def.Name, FormatCSV))
		require.NotEmpty(t, records, def.Name)
		assert.Equal(t, def.ColumnNames(), records[0], "%s header", def.Name)
		assert.Equal(t, schema.RowCounts()[def.Name], len(records)-1, "%s rows", def.Name)
	}

	fact := readCSVFile(t, ArtifactPath(dir, FactTable, FormatCSV))
	assert.Equal(t, []string{"2", "7", "11", "101", "2024-01-15", "1", "21", "200"}, fact[2])

	patients := readCSVFile(t, ArtifactPath(dir, PatientTable, FormatCSV))
	assert.Equal(t, []string{"7", "Alice Moreno", "34", "Female", "Austin", "A+", "60.5", "165", "Never", "Occasionally", "Weekly"}, patients[1])
}

func TestWriteArtifactsParquet(t *testing.T) {
	schema, _ := buildFromFile(t, "testdata/raw_extract.csv")
	dir := t.TempDir()

	paths, err := WriteArtifacts(dir, schema, true)
	require.NoError(t, err)
	assert.Len(t, paths, 2*len(Tables))

	visits, err := ReadParquet[VisitFact](ArtifactPath(dir, FactTable, FormatParquet))
	require.NoError(t, err)
	assert.Equal(t, schema.Visits, visits)

	billings, err := ReadParquet[Billing](ArtifactPath(dir, BillingTable, FormatParquet))
	require.NoError(t, err)
	assert.Equal(t, schema.Billings, billings)
}

func TestWriteArtifactsIdempotent(t *testing.T) {
	ex, err := ReadExtract("testdata/raw_extract.csv")
	require.NoError(t, err)

	dirs := []string{t.TempDir(), t.TempDir()}
	for _, dir := range dirs {
		schema, _, err := Build(ex, nil)
		require.NoError(t, err)
		_, err = WriteArtifacts(dir, schema, false)
		require.NoError(t, err)
	}

	for _, def := range Tables {
		a, err := os.ReadFile(ArtifactPath(dirs[0], def.Name, FormatCSV))
		require.NoError(t, err)
		b, err := os.ReadFile(ArtifactPath(dirs[1], def.Name, FormatCSV))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), def.Name)
	}
}
