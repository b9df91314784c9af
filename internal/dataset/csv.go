package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"qrguard/internal/model"
	"strconv"
	"strings"
)

// ErrSchema is returned when a dataset CSV lacks a required column.
var ErrSchema = errors.New("CSV must contain columns: payload,label")

var csvHeader = []string{"index", "payload", "label"}

// WriteCSV stores rows as index,payload,label, creating the parent directory.
func WriteCSV(path string, rows []model.DatasetRow) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		record := []string{strconv.Itoa(row.Index), row.Payload, strconv.Itoa(row.Label)}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row.Index, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV loads a dataset. The payload and label columns are required and may
// appear in any order; index is optional and defaults to the row position.
func ReadCSV(path string) ([]model.DatasetRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w (file is empty)", ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	payloadCol, labelCol, indexCol := findColumn(header, "payload"), findColumn(header, "label"), findColumn(header, "index")
	if payloadCol < 0 || labelCol < 0 {
		return nil, fmt.Errorf("%w (found %s)", ErrSchema, strings.Join(header, ","))
	}

	var rows []model.DatasetRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		row := model.DatasetRow{Index: len(rows), Payload: cell(record, payloadCol)}
		if row.Label, err = parseLabel(cell(record, labelCol)); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if indexCol >= 0 {
			if idx, err := strconv.Atoi(strings.TrimSpace(cell(record, indexCol))); err == nil {
				row.Index = idx
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CleanRows trims payloads and drops the ones left empty.
func CleanRows(rows []model.DatasetRow) []model.DatasetRow {
	out := make([]model.DatasetRow, 0, len(rows))
	for _, row := range rows {
		row.Payload = strings.TrimSpace(row.Payload)
		if row.Payload == "" {
			continue
		}
		out = append(out, row)
	}
	return out
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		// A UTF-8 BOM may precede the first header.
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == name {
			return i
		}
	}
	return -1
}

func cell(record []string, col int) string {
	if col < len(record) {
		return record[col]
	}
	return ""
}

func parseLabel(s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid label %q", s)
	}
	return int(f), nil
}
