// Package snapshot persists tables as immutable Parquet files.
//
// A snapshot write stages the full file next to its destination and then
// renames it into place, so readers either see the previous snapshot or
// the complete new one, never a partial file. Snapshots are not
// versioned: a successful write simply supersedes the previous file.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/tskov/fitloom/internal/errors"
)

// Options configures the Parquet encoding.
type Options struct {
	// Compression algorithm
	Compression CompressionType

	// CompressionLevel for algorithms that support it (zstd: 1-22)
	CompressionLevel int
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// DefaultOptions returns default Parquet options.
func DefaultOptions() Options {
	return Options{
		Compression:      CompressionZstd,
		CompressionLevel: 3,
	}
}

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	case "gzip":
		return CompressionGzip
	case "none":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// getCompression returns the parquet-go compression codec.
func getCompression(ct CompressionType) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &parquet.Zstd
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// Path returns the snapshot file path for a table.
func Path(dir, table string) string {
	return filepath.Join(dir, table+".parquet")
}

// Write persists rows as the snapshot for table, atomically replacing any
// previous snapshot. Failures are reported as a WriteError for the table
// and leave the previous snapshot untouched.
func Write[T any](dir, table string, rows []T, opts Options) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewWriteError(table, err)
	}

	final := Path(dir, table)
	// Staged in the destination directory so the rename cannot cross
	// filesystems.
	tmp := fmt.Sprintf("%s.tmp.%d", final, os.Getpid())

	f, err := os.Create(tmp)
	if err != nil {
		return errors.NewWriteError(table, err)
	}

	writer := parquet.NewGenericWriter[T](f,
		parquet.Compression(getCompression(opts.Compression)),
	)

	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			writer.Close()
			f.Close()
			os.Remove(tmp)
			return errors.NewWriteError(table, err)
		}
	}

	if err := writer.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.NewWriteError(table, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.NewWriteError(table, err)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return errors.NewWriteError(table, err)
	}

	return nil
}

// Read loads all rows of a table's snapshot. A missing snapshot is
// ErrSnapshotMissing; callers that tolerate absence should check for it.
func Read[T any](dir, table string) ([]T, error) {
	path := Path(dir, table)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrSnapshotMissing, "%s", table)
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[T](f)
	defer reader.Close()

	numRows := reader.NumRows()
	if numRows == 0 {
		return nil, nil
	}

	rows := make([]T, numRows)
	n, err := reader.Read(rows)
	if err != nil && n < int(numRows) {
		return nil, fmt.Errorf("read snapshot rows: %w", err)
	}

	return rows[:n], nil
}

// Exists reports whether a snapshot file is present for the table.
func Exists(dir, table string) bool {
	_, err := os.Stat(Path(dir, table))
	return err == nil
}
