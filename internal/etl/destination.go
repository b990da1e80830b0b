package etl

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"leads/internal/domain"
)

// ── Destination ────────────────────────────────────────────
// A Destination writes lead rows into one artifact per role.
// The only destination is a CSV file.

// ErrNoData is returned when there is nothing to write. No artifact is created.
var ErrNoData = errors.New("no data to save")

// Destination writes lead rows to a named target.
type Destination interface {
	Write(ctx context.Context, target string, schema *Schema, leads []domain.LeadRecord) (int, error)
}

// ── CSV Destination ────────────────────────────────────────

// CSVWriter implements Destination with one UTF-8 CSV file per target,
// created under Dir.
type CSVWriter struct {
	Dir string
}

// Path resolves the file a target is written to.
func (w *CSVWriter) Path(target string) string {
	if w.Dir == "" {
		return target
	}
	return filepath.Join(w.Dir, target)
}

func (w *CSVWriter) Write(ctx context.Context, target string, schema *Schema, leads []domain.LeadRecord) (int, error) {
	if len(leads) == 0 {
		return 0, ErrNoData
	}
	if schema == nil {
		schema = LeadSchema()
	}

	path := w.Path(target)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}

	// The target is either replaced whole or left untouched.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := writeCSV(ctx, tmp, schema, leads)
	if err == nil {
		if cerr := tmp.Chmod(0o644); cerr != nil {
			err = fmt.Errorf("chmod file: %w", cerr)
		}
	}
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close file: %w", cerr)
	}
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("rename file: %w", err)
	}
	return written, nil
}

func writeCSV(ctx context.Context, f *os.File, schema *Schema, leads []domain.LeadRecord) (int, error) {
	cw := csv.NewWriter(f)
	if err := cw.Write(schema.FieldNames()); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	written := 0
	for i, lead := range leads {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}
		if err := cw.Write(lead.Row()); err != nil {
			return written, fmt.Errorf("write row %d: %w", i, err)
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("flush csv: %w", err)
	}
	return written, nil
}

// ── Read-back ──────────────────────────────────────────────

// ReadLeadFile parses an exported lead file back into records.
// The header row must match LeadFields.
func ReadLeadFile(path string) ([]domain.LeadRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty csv file")
	}

	header := rows[0]
	if len(header) != len(domain.LeadFields) {
		return nil, fmt.Errorf("unexpected header: %v", header)
	}
	for i, name := range domain.LeadFields {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected header column %d: %q", i, header[i])
		}
	}

	leads := make([]domain.LeadRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		leads = append(leads, domain.LeadFromRow(row))
	}
	return leads, nil
}
