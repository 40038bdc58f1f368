package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"delhi-house-price/dataset"
)

// CSVWriter writes tables to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	path string
	file *os.File
	buf  *bufio.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	return &CSVWriter{path: path, file: f, buf: bufio.NewWriter(f)}, nil
}

// Path returns the file being written.
func (c *CSVWriter) Path() string {
	return c.path
}

// WriteFrame writes the header and every row of f.
func (c *CSVWriter) WriteFrame(f *dataset.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := dataset.WriteCSV(c.buf, f); err != nil {
		return fmt.Errorf("csv: write %q: %w", c.path, err)
	}
	return c.buf.Flush()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.buf.Flush(); err != nil {
		_ = c.file.Close()
		return err
	}
	return c.file.Close()
}
