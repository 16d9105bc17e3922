// Package idgen generates identifiers for scrape runs.
//
// Run IDs are UUIDv7 so journal rows sort by start time without a separate
// index.
package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// RunPrefix marks scrape run identifiers.
const RunPrefix = "run_"

// Run is the default run ID generator: "run_<uuidv7>".
var Run Generator = Prefixed(RunPrefix, UUIDv7())

// New produces a run ID.
func New() string {
	return Run()
}

// Parse validates a run ID, with or without its prefix, and returns the
// canonical prefixed form.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(strings.TrimPrefix(s, RunPrefix))
	if err != nil {
		return "", fmt.Errorf("idgen: invalid run id %q: %w", s, err)
	}
	return RunPrefix + u.String(), nil
}
