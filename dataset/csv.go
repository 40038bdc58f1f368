package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// missingTokens are cell values read as missing, matching the usual NA
// spellings found in exported listing data.
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
}

// LoadCSV reads a delimited file from disk.
func LoadCSV(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	frame, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", path, err)
	}
	return frame, nil
}

// ReadCSV parses comma-separated records with a header row. A column whose
// non-missing cells all parse as numbers is numeric; any other column is
// categorical. Short rows are padded with missing cells.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("dataset: empty input, header row required")
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	names := headerNames(header)

	cells := make([][]string, len(names))
	rows := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read row %d: %w", rows+2, err)
		}
		if len(rec) > len(names) {
			return nil, fmt.Errorf("dataset: row %d has %d fields, header has %d", rows+2, len(rec), len(names))
		}
		for j := range names {
			v := ""
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			if _, miss := missingTokens[v]; miss {
				v = ""
			}
			cells[j] = append(cells[j], v)
		}
		rows++
	}

	frame := New(rows)
	for j, name := range names {
		col := cells[j]
		if col == nil {
			col = []string{}
		}
		if nums, ok := parseNumeric(col); ok {
			_ = frame.SetNumeric(name, nums)
		} else {
			_ = frame.SetCategorical(name, col)
		}
	}
	return frame, nil
}

// WriteCSV writes the frame with a header row.
func WriteCSV(w io.Writer, f *Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Names()); err != nil {
		return fmt.Errorf("dataset: write header: %w", err)
	}
	for i := 0; i < f.Len(); i++ {
		if err := cw.Write(f.Row(i)); err != nil {
			return fmt.Errorf("dataset: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for j, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", j)
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		names[j] = h
	}
	return names
}

func parseNumeric(col []string) ([]float64, bool) {
	nums := make([]float64, len(col))
	for i, v := range col {
		if v == "" {
			nums[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		nums[i] = f
	}
	return nums, true
}
