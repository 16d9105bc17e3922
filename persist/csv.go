package persist

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"

	"github.com/hazyhaar/lexscrape/vocab"
)

// CSV appends records as rows of UTF-8 CSV files under a directory.
type CSV struct {
	dir  string
	crlf bool
	sync bool
}

// Option configures a CSV store.
type Option func(*CSV)

// WithCRLF selects "\r\n" (the default) or "\n" row terminators.
func WithCRLF(on bool) Option {
	return func(c *CSV) { c.crlf = on }
}

// WithSync toggles fsync after each row. Default: on.
func WithSync(on bool) Option {
	return func(c *CSV) { c.sync = on }
}

// NewCSV creates a CSV store rooted at dir ("" = working directory).
// The directory is not created until the first Append.
func NewCSV(dir string, opts ...Option) *CSV {
	c := &CSV{dir: dir, crlf: true, sync: true}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Path returns the file backing storeID.
func (c *CSV) Path(storeID string) string {
	return filepath.Join(c.dir, storeID)
}

// Append writes rec as one row [phonetic, definition, category] at the end
// of the store file, creating it if needed. The file is closed before
// Append returns, on every path.
func (c *CSV) Append(ctx context.Context, rec vocab.CleanRecord, storeID string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := c.Path(storeID)

	if c.dir != "" {
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			return &PersistenceError{Store: path, Op: "open", Err: err}
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &PersistenceError{Store: path, Op: "open", Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &PersistenceError{Store: path, Op: "close", Err: cerr}
		}
	}()

	w := csv.NewWriter(f)
	w.UseCRLF = c.crlf
	if err := w.Write(rec.Row()); err != nil {
		return &PersistenceError{Store: path, Op: "write", Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &PersistenceError{Store: path, Op: "write", Err: err}
	}

	if c.sync {
		if err := f.Sync(); err != nil {
			return &PersistenceError{Store: path, Op: "sync", Err: err}
		}
	}
	return nil
}

// Count returns the number of rows in storeID, 0 if the file does not exist.
func (c *CSV) Count(storeID string) (int, error) {
	rows, err := c.ReadAll(storeID)
	return len(rows), err
}

// ReadAll returns every row of storeID, nil if the file does not exist.
func (c *CSV) ReadAll(storeID string) ([][]string, error) {
	f, err := os.Open(c.Path(storeID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Store: c.Path(storeID), Op: "open", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &PersistenceError{Store: c.Path(storeID), Op: "read", Err: err}
	}
	return rows, nil
}
