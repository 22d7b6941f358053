// Package store persists tables as named CSV datasets on disk. A dataset is
// one file under the store's directory; the first line is the header.
//
// The store is an explicit resource handle and does no locking of its own:
// concurrent appends to the same dataset must be serialized by the caller.
package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"etfpulse/internal/types"
)

// Mode selects between replacing a dataset and extending it.
type Mode int

const (
	// Overwrite replaces the dataset contents with the table verbatim.
	Overwrite Mode = iota
	// Append adds the table's data rows after the existing ones. The
	// incoming header must equal the stored one; a mismatch is fatal and
	// leaves the dataset untouched.
	Append
)

func (m Mode) String() string {
	if m == Append {
		return "append"
	}
	return "overwrite"
}

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("dataset directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(dataset string) string {
	return filepath.Join(s.dir, dataset+".csv")
}

// Write persists the table to the named dataset under the given mode.
func (s *Store) Write(ctx context.Context, dataset string, t types.Table, mode Mode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if mode == Append {
		if existing, err := s.readHeader(dataset); err == nil {
			if !headersEqual(existing, t.Header) {
				return &types.SchemaMismatchError{Dataset: dataset, Want: existing, Got: t.Header}
			}
			return s.appendRows(dataset, t)
		} else if !types.IsNotFound(err) {
			return err
		}
		// First write creates the dataset with header and rows.
	}

	return s.writeAll(dataset, t)
}

// Read returns the full current contents of the dataset, or a NotFoundError
// if it has never been written.
func (s *Store) Read(ctx context.Context, dataset string) (types.Table, error) {
	if err := ctx.Err(); err != nil {
		return types.Table{}, err
	}

	f, err := os.Open(s.path(dataset))
	if err != nil {
		if os.IsNotExist(err) {
			return types.Table{}, &types.NotFoundError{Dataset: dataset}
		}
		return types.Table{}, fmt.Errorf("failed to open dataset %s: %w", dataset, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return types.Table{}, fmt.Errorf("failed to read dataset %s: %w", dataset, err)
	}
	if len(records) == 0 {
		return types.Table{}, &types.NotFoundError{Dataset: dataset}
	}

	return types.NewTable(records[0], records[1:]), nil
}

func (s *Store) writeAll(dataset string, t types.Table) error {
	f, err := os.Create(s.path(dataset))
	if err != nil {
		return fmt.Errorf("failed to create dataset %s: %w", dataset, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header for dataset %s: %w", dataset, err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write rows for dataset %s: %w", dataset, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush dataset %s: %w", dataset, err)
	}

	slog.Info("dataset written", "dataset", dataset, "mode", "overwrite", "rows", t.NumRows())
	return nil
}

func (s *Store) appendRows(dataset string, t types.Table) error {
	f, err := os.OpenFile(s.path(dataset), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open dataset %s for append: %w", dataset, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to append rows to dataset %s: %w", dataset, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush dataset %s: %w", dataset, err)
	}

	slog.Info("dataset written", "dataset", dataset, "mode", "append", "rows", t.NumRows())
	return nil
}

func (s *Store) readHeader(dataset string) ([]string, error) {
	f, err := os.Open(s.path(dataset))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &types.NotFoundError{Dataset: dataset}
		}
		return nil, fmt.Errorf("failed to open dataset %s: %w", dataset, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, &types.NotFoundError{Dataset: dataset}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of dataset %s: %w", dataset, err)
	}
	return header, nil
}

func headersEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
