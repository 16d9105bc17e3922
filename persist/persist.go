// Package persist appends cleaned vocabulary records to durable stores.
//
// The primary store is a header-less CSV file per source, opened in append
// mode for every record: one open/write/flush/sync/close cycle per row, so a
// crash right after Append returns never loses that row. Re-running against
// an existing file accumulates rows; nothing is deduplicated.
package persist

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hazyhaar/lexscrape/vocab"
)

// Persister appends one record to the store named storeID.
type Persister interface {
	Append(ctx context.Context, rec vocab.CleanRecord, storeID string) error
}

// StoreName returns the store identifier for a source slug and its
// advertised total: "en_ja_2431.csv".
func StoreName(slug string, total int) string {
	return slug + "_" + strconv.Itoa(total) + ".csv"
}

// PersistenceError reports a store that could not be opened or written.
type PersistenceError struct {
	Store string
	Op    string // open | write | sync | close | mirror
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist: %s %s: %v", e.Op, e.Store, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
