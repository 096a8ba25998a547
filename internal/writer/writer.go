// Package writer implements the idempotent, append-only CSV writer of
// spec.md §4.3, generalizing the teacher's createCSV/fetchAndSave pattern
// (header-on-create via file size, one row at a time, flush after every
// write) to an arbitrary entity schema.
package writer

import (
	"encoding/csv"
	"os"
	"path/filepath"
)

// Append creates path with header if it doesn't exist (or is empty), then
// appends rows, flushing after each write so a killed process never loses a
// row that was already handed to the OS (spec.md §4.2 invariant: "append
// rows, then checkpoint, in that order").
func Append(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	return nil
}

// AppendOne appends a single row, creating the file with header if absent.
func AppendOne(path string, header []string, row []string) error {
	return Append(path, header, [][]string{row})
}

// EnsureHeader creates path with header if it does not already exist, and is
// a no-op otherwise, guaranteeing that a header-only file exists.
func EnsureHeader(path string, header []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Append(path, header, nil)
}

// Rewrite atomically overwrites path with header+rows (spec.md §4.3: "A
// distinct Rewrite operation exists for post-hoc enrichment steps ... and
// overwrites the file atomically"). Used by discovery's first-video
// enrichment pass.
func Rewrite(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".rewrite-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// ReadAll reads path as a header+rows CSV into a slice of field->value maps,
// projecting unknown columns away is not needed on read (the caller reads
// whatever header the file has). Returns (nil, nil) if the file is absent.
func ReadAll(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	out := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// ReadColumn reads a single named column from an existing CSV file into a
// set, used to rehydrate checkpoint seen-sets and dedup tables. Returns an
// empty (non-nil) map if the file doesn't exist.
func ReadColumn(path, column string) (map[string]bool, error) {
	rows, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(rows))
	for _, row := range rows {
		if v := row[column]; v != "" {
			set[v] = true
		}
	}
	return set, nil
}
