package etl

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Format is an artifact file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ArtifactPath returns the path of the cleaned artifact for table in dir.
func ArtifactPath(dir, table string, format Format) string {
	return filepath.Join(dir, "cleaned_"+table+"."+string(format))
}

// WriteArtifacts persists every table of schema to dir, one independent file
// per table and format. CSV is always written; Parquet when requested.
// Returns the written paths.
func WriteArtifacts(dir string, schema *StarSchema, parquetToo bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	type job struct {
		path  string
		write func(path string) error
	}
	jobs := []job{
		{ArtifactPath(dir, FactTable, FormatCSV), func(p string) error { return writeCSV(p, FactTable, schema.Visits) }},
		{ArtifactPath(dir, PatientTable, FormatCSV), func(p string) error { return writeCSV(p, PatientTable, schema.Patients) }},
		{ArtifactPath(dir, DiseaseTable, FormatCSV), func(p string) error { return writeCSV(p, DiseaseTable, schema.Diseases) }},
		{ArtifactPath(dir, DoctorTable, FormatCSV), func(p string) error { return writeCSV(p, DoctorTable, schema.Doctors) }},
		{ArtifactPath(dir, HospitalTable, FormatCSV), func(p string) error { return writeCSV(p, HospitalTable, schema.Hospitals) }},
		{ArtifactPath(dir, BillingTable, FormatCSV), func(p string) error { return writeCSV(p, BillingTable, schema.Billings) }},
	}
	if parquetToo {
		jobs = append(jobs,
			job{ArtifactPath(dir, FactTable, FormatParquet), func(p string) error { return writeParquet(p, schema.Visits) }},
			job{ArtifactPath(dir, PatientTable, FormatParquet), func(p string) error { return writeParquet(p, schema.Patients) }},
			job{ArtifactPath(dir, DiseaseTable, FormatParquet), func(p string) error { return writeParquet(p, schema.Diseases) }},
			job{ArtifactPath(dir, DoctorTable, FormatParquet), func(p string) error { return writeParquet(p, schema.Doctors) }},
			job{ArtifactPath(dir, HospitalTable, FormatParquet), func(p string) error { return writeParquet(p, schema.Hospitals) }},
			job{ArtifactPath(dir, BillingTable, FormatParquet), func(p string) error { return writeParquet(p, schema.Billings) }},
		)
	}

	var g errgroup.Group
	paths := make([]string, len(jobs))
	for i, j := range jobs {
		paths[i] = j.path
		g.Go(func() error {
			if err := j.write(j.path); err != nil {
				return fmt.Errorf("write %s: %w", filepath.Base(j.path), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func writeCSV[T record](path, table string, rows []T) error {
	def, ok := LookupTable(table)
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(def.ColumnNames()); err != nil {
		f.Close()
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
