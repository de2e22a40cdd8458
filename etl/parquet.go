package etl

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// parquetWriter writes one star-schema table to a zstd-compressed Parquet file.
type parquetWriter[T any] struct {
	file   *os.File
	writer *parquet.GenericWriter[T]
}

func newParquetWriter[T any](filename string) (*parquetWriter[T], error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}

	writer := parquet.NewGenericWriter[T](file,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedDefault}),
		parquet.PageBufferSize(8*1024),
		parquet.DataPageStatistics(true),
		parquet.CreatedBy("healthdash", "1.0", ""),
	)

	return &parquetWriter[T]{file: file, writer: writer}, nil
}

func (w *parquetWriter[T]) Write(rows []T) (int, error) {
	n, err := w.writer.Write(rows)
	if err != nil {
		return n, fmt.Errorf("write parquet rows: %w", err)
	}
	return n, nil
}

// Close flushes the final row group and closes the file.
func (w *parquetWriter[T]) Close() error {
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return w.file.Close()
}

func writeParquet[T any](path string, rows []T) error {
	w, err := newParquetWriter[T](path)
	if err != nil {
		return err
	}
	if _, err := w.Write(rows); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// ReadParquet reads every row of a table artifact written with the Parquet format.
func ReadParquet[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[T](f)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && n < len(rows) {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows[:n], nil
}
