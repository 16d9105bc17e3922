package persist

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/lexscrape/vocab"
)

// Router appends each record to several persisters in order. Unlike a
// best-effort fan-out it stops at the first failure: the run must abort on
// the record that could not be stored everywhere.
type Router struct {
	targets []Persister
	logger  *slog.Logger
}

// NewRouter creates a Router. The first persister is the primary store.
func NewRouter(logger *slog.Logger, targets ...Persister) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{targets: targets, logger: logger}
}

// Append implements Persister.
func (r *Router) Append(ctx context.Context, rec vocab.CleanRecord, storeID string) error {
	for i, p := range r.targets {
		if err := p.Append(ctx, rec, storeID); err != nil {
			r.logger.Warn("persist: append failed", "store", storeID, "target", i, "error", err)
			return err
		}
	}
	return nil
}
