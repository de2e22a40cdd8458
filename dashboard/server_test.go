package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"healthdash/config"
	"healthdash/etl"
	"healthdash/warehouse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, runner Runner) *httptest.Server {
	t.Helper()
	srv := NewServer(NewDispatcher(runner, zap.NewNop()), NewMetrics(), zap.NewNop())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func TestStaticViews(t *testing.T) {
	ts := newTestServer(t, &stubRunner{})

	status, body, _ := get(t, ts, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Project Overview")

	status, body, _ = get(t, ts, "/schema")
	assert.Equal(t, http.StatusOK, status)
	for _, def := range etl.Tables {
		assert.Contains(t, body, def.Name)
	}

	status, body, _ = get(t, ts, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestKPIView(t *testing.T) {
	ts := newTestServer(t, &stubRunner{tables: sampleTables()})

	status, body, _ := get(t, ts, "/kpis?visits=visits-by-gender")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "$425.25")
	assert.Contains(t, body, "Revenue Breakdown")
	assert.Contains(t, body, "data-figure")
}

func TestFailingPanelDoesNotBreakOthers(t *testing.T) {
	runner := &stubRunner{
		tables: sampleTables(),
		fail: map[warehouse.QueryName]error{
			warehouse.TotalRevenue: &warehouse.QueryError{Query: warehouse.TotalRevenue, Kind: warehouse.ErrConnection, Err: errors.New("refused")},
		},
	}
	ts := newTestServer(t, runner)

	status, body, _ := get(t, ts, "/kpis")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "unavailable")
	assert.Contains(t, body, "refused")
	assert.Contains(t, body, "Total Visits")

	status, body, _ = get(t, ts, "/aggregations?q=hospital-revenue")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<td>A</td>")
}

func TestEmptyResultShowsAdvisory(t *testing.T) {
	ts := newTestServer(t, &stubRunner{})

	for _, path := range []string{"/aggregations?q=hospital-revenue", "/visualizations", "/datamarts?q=doctor-mart"} {
		status, body, _ := get(t, ts, path)
		assert.Equal(t, http.StatusOK, status, path)
		assert.Contains(t, body, noDataNotice, path)
	}
}

func TestUnknownSelectionRejected(t *testing.T) {
	ts := newTestServer(t, &stubRunner{})

	status, _, _ := get(t, ts, "/aggregations?q=total-revenue")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = get(t, ts, "/export/nope.xlsx")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestKPIViewValidatesBeforeQuerying(t *testing.T) {
	runner := &stubRunner{tables: sampleTables()}
	ts := newTestServer(t, runner)

	status, _, _ := get(t, ts, "/kpis?revenue=nope")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _, _ = get(t, ts, "/kpis?visits=nope")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Zero(t, runner.callCount())
}

func TestAggregationTableSorts(t *testing.T) {
	tables := sampleTables()
	tables[warehouse.HospitalRevenue] = &warehouse.Table{
		Columns: []string{"hospital_name", "revenue"},
		Rows: []warehouse.Row{
			{"hospital_name": "B", "revenue": 50.0},
			{"hospital_name": "A", "revenue": 300.0},
			{"hospital_name": "C", "revenue": 120.0},
		},
	}
	ts := newTestServer(t, &stubRunner{tables: tables})

	// order lists the hospital cells in the order they appear in body.
	order := func(body string) []string {
		names := []string{"A", "B", "C"}
		sort.Slice(names, func(i, j int) bool {
			return strings.Index(body, "<td>"+names[i]+"</td>") < strings.Index(body, "<td>"+names[j]+"</td>")
		})
		return names
	}

	status, body, _ := get(t, ts, "/aggregations?q=hospital-revenue&sort=revenue&dir=desc")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"A", "C", "B"}, order(body))
	assert.Contains(t, body, "sort=revenue&amp;dir=asc", "active descending column links back to ascending")

	status, body, _ = get(t, ts, "/aggregations?q=hospital-revenue&sort=revenue&dir=asc")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"B", "C", "A"}, order(body))

	status, body, _ = get(t, ts, "/aggregations?q=hospital-revenue&sort=hospital_name")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"A", "B", "C"}, order(body))

	status, body, _ = get(t, ts, "/aggregations?q=hospital-revenue")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"B", "A", "C"}, order(body), "query order without a sort parameter")
	assert.Contains(t, body, "sort=hospital_name&amp;dir=asc")

	status, _, _ = get(t, ts, "/aggregations?q=hospital-revenue&sort=nope")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _, _ = get(t, ts, "/aggregations?q=hospital-revenue&sort=revenue&dir=sideways")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestExportWorkbook(t *testing.T) {
	ts := newTestServer(t, &stubRunner{tables: sampleTables()})

	status, body, header := get(t, ts, "/export/hospital-revenue.xlsx")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, header.Get("Content-Disposition"), "hospital-revenue.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Hospital Revenue")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"hospital_name", "revenue"}, {"A", "300"}, {"B", "50"}}, rows)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := NewMetrics()
	exec, err := warehouse.NewExecutor(
		config.Warehouse{Driver: config.DriverDuckDB, Path: filepath.Join(t.TempDir(), "missing", "wh.duckdb")},
		warehouse.WithObserver(metrics),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(NewServer(NewDispatcher(exec, nil), metrics, nil).Routes())
	defer ts.Close()

	_, body, _ := get(t, ts, "/aggregations")
	assert.Contains(t, body, "Could not load")

	_, body, _ = get(t, ts, "/metrics")
	assert.Contains(t, body, "healthdash_query_errors_total")
	assert.Contains(t, body, `query="patient_statistics"`)
	assert.Contains(t, body, "healthdash_page_views_total")
}

func TestDashboardOnEmptyWarehouse(t *testing.T) {
	dir := t.TempDir()
	_, err := etl.WriteArtifacts(dir, &etl.StarSchema{}, false)
	require.NoError(t, err)

	cfg := config.Warehouse{Driver: config.DriverDuckDB, Path: filepath.Join(t.TempDir(), "wh.duckdb")}
	_, err = warehouse.Load(context.Background(), cfg, dir, etl.FormatCSV, nil)
	require.NoError(t, err)

	exec, err := warehouse.NewExecutor(cfg)
	require.NoError(t, err)
	ts := newTestServer(t, exec)

	status, body, _ := get(t, ts, "/aggregations?q=patient-statistics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, noDataNotice)
}
