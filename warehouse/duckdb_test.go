package warehouse

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"healthdash/config"
	"healthdash/etl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// seedDuckDB writes schema as artifacts, loads them into a fresh DuckDB file
// and returns the warehouse config.
func seedDuckDB(t *testing.T, schema *etl.StarSchema, format etl.Format) config.Warehouse {
	t.Helper()
	dir := t.TempDir()
	_, err := etl.WriteArtifacts(dir, schema, format == etl.FormatParquet)
	require.NoError(t, err)

	cfg := duckCfg(t)
	_, err = Load(context.Background(), cfg, dir, format, zap.NewNop())
	require.NoError(t, err)
	return cfg
}

func sampleSchema(t *testing.T) *etl.StarSchema {
	t.Helper()
	ex, err := etl.ReadExtract("../etl/testdata/raw_extract.csv")
	require.NoError(t, err)
	schema, _, err := etl.Build(ex, zap.NewNop())
	require.NoError(t, err)
	return schema
}

// buildSchema builds a star schema from data lines written under the sample
// extract's header.
func buildSchema(t *testing.T, lines ...string) *etl.StarSchema {
	t.Helper()
	sample, err := os.Open("../etl/testdata/raw_extract.csv")
	require.NoError(t, err)
	defer sample.Close()
	sc := bufio.NewScanner(sample)
	require.True(t, sc.Scan())

	path := filepath.Join(t.TempDir(), "raw.csv")
	content := sc.Text() + "\n" + strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ex, err := etl.ReadExtract(path)
	require.NoError(t, err)
	schema, _, err := etl.Build(ex, zap.NewNop())
	require.NoError(t, err)
	return schema
}

func f64Ptr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func TestLoadDuckDBCounts(t *testing.T) {
	for _, format := range []etl.Format{etl.FormatCSV, etl.FormatParquet} {
		t.Run(string(format), func(t *testing.T) {
			schema := sampleSchema(t)
			dir := t.TempDir()
			_, err := etl.WriteArtifacts(dir, schema, format == etl.FormatParquet)
			require.NoError(t, err)

			counts, err := Load(context.Background(), duckCfg(t), dir, format, zap.NewNop())
			require.NoError(t, err)
			for table, n := range schema.RowCounts() {
				assert.Equal(t, int64(n), counts[table], table)
			}
		})
	}
}

func TestLoadIsRepeatable(t *testing.T) {
	schema := sampleSchema(t)
	dir := t.TempDir()
	_, err := etl.WriteArtifacts(dir, schema, false)
	require.NoError(t, err)

	cfg := duckCfg(t)
	for i := 0; i < 2; i++ {
		counts, err := Load(context.Background(), cfg, dir, etl.FormatCSV, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), counts[etl.FactTable])
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(context.Background(), duckCfg(t), t.TempDir(), etl.FormatCSV, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), etl.FactTable)
}

func TestCatalogColumnsOnSeededWarehouse(t *testing.T) {
	cfg := seedDuckDB(t, sampleSchema(t), etl.FormatCSV)
	exec, err := NewExecutor(cfg)
	require.NoError(t, err)

	for _, q := range All() {
		table, err := exec.Run(context.Background(), q)
		require.NoError(t, err, q.Name)
		assert.Equal(t, q.Columns, table.Columns, q.Name)
		assert.False(t, table.Empty(), q.Name)
	}
}

func TestCatalogColumnsOnEmptyWarehouse(t *testing.T) {
	cfg := seedDuckDB(t, &etl.StarSchema{}, etl.FormatCSV)
	exec, err := NewExecutor(cfg)
	require.NoError(t, err)

	for _, q := range All() {
		table, err := exec.Run(context.Background(), q)
		require.NoError(t, err, q.Name)
		assert.Equal(t, q.Columns, table.Columns, q.Name)
		assert.True(t, table.Empty(), "%s returned rows on an empty warehouse", q.Name)
	}
}

func TestSampleKPIs(t *testing.T) {
	cfg := seedDuckDB(t, sampleSchema(t), etl.FormatParquet)
	exec, err := NewExecutor(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	run := func(name QueryName) *Table {
		q, ok := Lookup(name)
		require.True(t, ok)
		table, err := exec.Run(ctx, q)
		require.NoError(t, err)
		return table
	}

	visits := run(TotalVisits)
	require.Equal(t, 1, visits.Len())
	assert.Equal(t, int64(4), visits.Rows[0]["total_visits"])

	revenue := run(TotalRevenue)
	total, ok := revenue.Float(0, "total_revenue")
	require.True(t, ok)
	assert.InDelta(t, 425.25, total, 1e-9)

	gender := run(VisitsByGender)
	assert.Equal(t, []Row{
		{"gender": "Female", "visits": int64(3)},
		{"gender": "Male", "visits": int64(1)},
	}, gender.Rows)

	ages := run(VisitsByAgeGroup)
	assert.Equal(t, []Count{{"0-17", 1}, {"18-34", 1}, {"50-64", 1}}, ages.CountBy("age_group", "Unknown"))
	assert.Equal(t, int64(2), ages.Rows[1]["visits"])

	stats := run(PatientStatistics)
	assert.Equal(t, int64(3), stats.Rows[0]["total_patients"])
	assert.Equal(t, int64(4), stats.Rows[0]["total_visits"])
}

func TestHospitalRevenueScenario(t *testing.T) {
	schema := &etl.StarSchema{
		Visits: []etl.VisitFact{
			{VisitID: 1, PatientID: 1, DiseaseID: 1, BillingID: 1, VisitDate: strPtr("2024-01-01"), HospitalID: 1, DoctorID: 1, TotalBill: f64Ptr(100)},
			{VisitID: 2, PatientID: 1, DiseaseID: 1, BillingID: 2, VisitDate: strPtr("2024-01-02"), HospitalID: 1, DoctorID: 1, TotalBill: f64Ptr(200)},
			{VisitID: 3, PatientID: 1, DiseaseID: 1, BillingID: 3, HospitalID: 2, DoctorID: 1, TotalBill: f64Ptr(50)},
		},
		Patients:  []etl.Patient{{PatientID: 1, Name: "Pat"}},
		Diseases:  []etl.Disease{{DiseaseID: 1, DiseaseName: "Flu", Category: "Infectious"}},
		Doctors:   []etl.Doctor{{DoctorID: 1, DoctorName: "Dr. A"}},
		Hospitals: []etl.Hospital{{HospitalID: 1, HospitalName: "A"}, {HospitalID: 2, HospitalName: "B"}},
		Billings:  []etl.Billing{{BillingID: 1}, {BillingID: 2}, {BillingID: 3}},
	}
	exec, err := NewExecutor(seedDuckDB(t, schema, etl.FormatCSV))
	require.NoError(t, err)

	q, _ := Lookup(HospitalRevenue)
	table, err := exec.Run(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{"hospital_name": "A", "revenue": 300.0},
		{"hospital_name": "B", "revenue": 50.0},
	}, table.Rows)
}

func TestLoadWithRepeatedVisitID(t *testing.T) {
	schema := buildSchema(t,
		"1,7,10,100,2024-01-05,1,20,100.00,7,Alice Moreno,34,Female,Austin,A+,60.5,165,Never,Occasionally,Weekly,Influenza,Infectious,Mild,Dr. Smith,Cardiology,12,General Hospital,Austin,Public,100.00,PPO,Paid,PPO,Approved,Credit Card",
		"1,7,10,100,2024-01-05,1,20,100.00,7,Alice Moreno,34,Female,Austin,A+,60.5,165,Never,Occasionally,Weekly,Influenza,Infectious,Mild,Dr. Smith,Cardiology,12,General Hospital,Austin,Public,100.00,PPO,Paid,PPO,Denied,Credit Card",
	)

	for _, format := range []etl.Format{etl.FormatCSV, etl.FormatParquet} {
		t.Run(string(format), func(t *testing.T) {
			dir := t.TempDir()
			_, err := etl.WriteArtifacts(dir, schema, format == etl.FormatParquet)
			require.NoError(t, err)

			counts, err := Load(context.Background(), duckCfg(t), dir, format, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, int64(1), counts[etl.FactTable])
			assert.Equal(t, int64(1), counts[etl.BillingTable])
		})
	}
}

func TestLoadFormatsAgreeOnMissingText(t *testing.T) {
	schema := buildSchema(t,
		"1,7,10,100,2024-01-05,1,20,100.00,7,Alice Moreno,34,Female,Austin,A+,60.5,165,Never,Occasionally,Weekly,Influenza,Infectious,Mild,Dr. Smith,Cardiology,12,General Hospital,Austin,Public,100.00,PPO,Paid,PPO,Approved,Credit Card",
		"2,8,10,101,2024-01-06,1,20,80.00,8,Bob Ito,61,,Dallas,O-,82,180,Never,Occasionally,Weekly,Influenza,Infectious,Mild,Dr. Smith,Cardiology,12,General Hospital,Austin,Public,80.00,PPO,Paid,PPO,Approved,Cash",
	)
	q, ok := Lookup(VisitsByGender)
	require.True(t, ok)

	results := make(map[etl.Format][]Row)
	for _, format := range []etl.Format{etl.FormatCSV, etl.FormatParquet} {
		exec, err := NewExecutor(seedDuckDB(t, schema, format))
		require.NoError(t, err)
		table, err := exec.Run(context.Background(), q)
		require.NoError(t, err)
		results[format] = table.Rows
	}

	assert.Equal(t, []Row{
		{"gender": "Female", "visits": int64(1)},
		{"gender": nil, "visits": int64(1)},
	}, results[etl.FormatCSV])
	assert.Equal(t, results[etl.FormatCSV], results[etl.FormatParquet])
}
