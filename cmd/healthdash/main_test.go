package main

import (
	"path/filepath"
	"testing"

	"healthdash/etl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildThenLoadDuckDB(t *testing.T) {
	out := t.TempDir()
	t.Setenv("WAREHOUSE_DRIVER", "duckdb")
	t.Setenv("WAREHOUSE_PATH", filepath.Join(t.TempDir(), "wh.duckdb"))

	root := newRootCmd()
	root.SetArgs([]string{"build", "--extract", "../../etl/testdata/raw_extract.csv", "--out", out, "--parquet", "--log-level", "error"})
	require.NoError(t, root.Execute())

	for _, def := range etl.Tables {
		assert.FileExists(t, etl.ArtifactPath(out, def.Name, etl.FormatCSV))
		assert.FileExists(t, etl.ArtifactPath(out, def.Name, etl.FormatParquet))
	}

	root = newRootCmd()
	root.SetArgs([]string{"load", "--dir", out, "--format", "parquet", "--log-level", "error"})
	require.NoError(t, root.Execute())
}

func TestBuildRequiresExtract(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"build"})
	assert.Error(t, root.Execute())
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
	t.Setenv("WAREHOUSE_DRIVER", "postgres")
	t.Setenv("WAREHOUSE_HOST", "localhost")

	root := newRootCmd()
	root.SetArgs([]string{"load", "--dir", t.TempDir()})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required option")
}
