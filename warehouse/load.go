package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"healthdash/config"
	"healthdash/etl"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Load recreates the star schema in the warehouse described by cfg and
// bulk-loads the cleaned artifacts found in dir. The whole load runs in one
// transaction. It returns the number of rows loaded per table.
func Load(ctx context.Context, cfg config.Warehouse, dir string, format etl.Format, log *zap.Logger) (map[string]int64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if format == "" {
		format = etl.FormatCSV
	}
	if format != etl.FormatCSV && format != etl.FormatParquet {
		return nil, fmt.Errorf("unsupported artifact format %q", format)
	}
	for _, def := range etl.Tables {
		path := etl.ArtifactPath(dir, def.Name, format)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("artifact for %s: %w", def.Name, err)
		}
	}

	start := time.Now()
	var (
		counts map[string]int64
		err    error
	)
	switch strings.ToLower(cfg.Driver) {
	case config.DriverPostgres:
		counts, err = loadPostgres(ctx, cfg.DSN(), dir, format, log)
	case config.DriverDuckDB:
		counts, err = loadDuckDB(ctx, cfg.DSN(), dir, format, log)
	default:
		err = fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	log.Info("warehouse loaded",
		zap.String("driver", cfg.Driver),
		zap.String("format", string(format)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return counts, nil
}

func loadPostgres(ctx context.Context, connStr, dir string, format etl.Format, log *zap.Logger) (map[string]int64, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection: %w", err)
	}
	poolConfig.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schemaStatements() {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	counts := make(map[string]int64, len(etl.Tables))
	for _, def := range etl.Tables {
		path := etl.ArtifactPath(dir, def.Name, format)
		var n int64
		if format == etl.FormatParquet {
			n, err = copyParquetToPg(ctx, tx, def, path)
		} else {
			n, err = copyCSVToPg(ctx, tx, def, path)
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", def.Name, err)
		}
		counts[def.Name] = n
		log.Info("table loaded", zap.String("table", def.Name), zap.Int64("rows", n))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return counts, nil
}

// copyCSVToPg streams a CSV artifact through COPY FROM STDIN.
func copyCSVToPg(ctx context.Context, tx pgx.Tx, def etl.TableDef, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ident := pgx.Identifier{def.Name}.Sanitize()
	cols := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		cols[i] = pgx.Identifier{c.Name}.Sanitize()
	}
	stmt := fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv, HEADER true)", ident, strings.Join(cols, ", "))

	tag, err := tx.Conn().PgConn().CopyFrom(ctx, f, stmt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// copyParquetToPg reads a Parquet artifact into typed rows and sends them with
// the binary COPY protocol.
func copyParquetToPg(ctx context.Context, tx pgx.Tx, def etl.TableDef, path string) (int64, error) {
	rows, err := parquetRows(def.Name, path)
	if err != nil {
		return 0, err
	}
	return tx.CopyFrom(ctx, pgx.Identifier{def.Name}, def.ColumnNames(), pgx.CopyFromRows(rows))
}

func parquetRows(table, path string) ([][]any, error) {
	switch table {
	case etl.FactTable:
		return readRows(path, func(r etl.VisitFact) []any {
			return []any{r.VisitID, r.PatientID, r.DiseaseID, r.BillingID, dateValue(r.VisitDate), r.HospitalID, r.DoctorID, r.TotalBill}
		})
	case etl.PatientTable:
		return readRows(path, func(r etl.Patient) []any {
			return []any{r.PatientID, text(r.Name), r.Age, text(r.Gender), text(r.Location), text(r.BloodType),
				r.Weight, r.Height, text(r.SmokerStatus), text(r.AlcoholConsumption), text(r.ExerciseFrequency)}
		})
	case etl.DiseaseTable:
		return readRows(path, func(r etl.Disease) []any {
			return []any{r.DiseaseID, text(r.DiseaseName), text(r.Category), text(r.SeverityLevel)}
		})
	case etl.DoctorTable:
		return readRows(path, func(r etl.Doctor) []any {
			return []any{r.DoctorID, text(r.DoctorName), text(r.Specialization), r.YearsOfExperience}
		})
	case etl.HospitalTable:
		return readRows(path, func(r etl.Hospital) []any {
			return []any{r.HospitalID, text(r.HospitalName), text(r.City), text(r.Type)}
		})
	case etl.BillingTable:
		return readRows(path, func(r etl.Billing) []any {
			return []any{r.BillingID, r.TotalBill, text(r.InsuranceType), text(r.ClaimStatus), text(r.PaymentMethod)}
		})
	}
	return nil, fmt.Errorf("unknown table %q", table)
}

func readRows[T any](path string, values func(T) []any) ([][]any, error) {
	typed, err := etl.ReadParquet[T](path)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, len(typed))
	for i, r := range typed {
		rows[i] = values(r)
	}
	return rows, nil
}

// text maps an empty artifact string to NULL, matching how COPY reads an
// empty CSV field.
func text(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// dateValue converts a YYYY-MM-DD artifact value for a DATE column.
func dateValue(s *string) any {
	if s == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return t
}

func loadDuckDB(ctx context.Context, path, dir string, format etl.Format, log *zap.Logger) (map[string]int64, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	counts := make(map[string]int64, len(etl.Tables))
	for _, def := range etl.Tables {
		file := quoteLiteral(etl.ArtifactPath(dir, def.Name, format))
		var stmt string
		if format == etl.FormatParquet {
			stmt = fmt.Sprintf("INSERT INTO %s SELECT %s FROM read_parquet(%s)", def.Name, parquetSelectList(def), file)
		} else {
			stmt = fmt.Sprintf("COPY %s FROM %s (HEADER)", def.Name, file)
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("load %s: %w", def.Name, err)
		}

		var n int64
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+def.Name).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", def.Name, err)
		}
		counts[def.Name] = n
		log.Info("table loaded", zap.String("table", def.Name), zap.Int64("rows", n))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return counts, nil
}

// parquetSelectList projects the artifact columns in table order, reading
// empty text as NULL.
func parquetSelectList(def etl.TableDef) string {
	cols := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		if c.Type == "TEXT" {
			cols[i] = fmt.Sprintf(`NULLIF("%s", '')`, c.Name)
		} else {
			cols[i] = `"` + c.Name + `"`
		}
	}
	return strings.Join(cols, ", ")
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
