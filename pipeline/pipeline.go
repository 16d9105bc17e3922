// Package pipeline drives one scraping run: it asks a Driver for the
// rendered listing, checks completeness once, then extracts, cleans and
// appends every entry in page order.
//
// There is no per-entry isolation. The first failure aborts the run and the
// rows already appended stay where they are.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/lexscrape/extract"
	"github.com/hazyhaar/lexscrape/normalize"
	"github.com/hazyhaar/lexscrape/persist"
	"github.com/hazyhaar/lexscrape/progress"
	"github.com/hazyhaar/lexscrape/source"
	"github.com/hazyhaar/lexscrape/vocab"
)

// Page is a rendered listing.
type Page interface {
	// QueryAll returns every node matching selector, in document order.
	QueryAll(selector string) ([]extract.EntryNode, error)
	// QueryText returns the text content of the first node matching
	// selector, or false when nothing matches.
	QueryText(selector string) (string, bool, error)
	Close() error
}

// Driver acquires rendered pages.
type Driver interface {
	Navigate(ctx context.Context, url string) (Page, error)
}

// Observer receives run events for display. Every method is called from
// the run's goroutine.
type Observer interface {
	OnState(State)
	OnSignal(progress.Signal)
	OnEntry(index, total int, rec vocab.CleanRecord)
}

// Selectors locates the entry list and the advertised total on the page.
type Selectors struct {
	Entries string `yaml:"entries"`
	Total   string `yaml:"total"`
}

// DefaultSelectors matches duome.eu vocabulary listings. Letter headers
// (li.single) are not entries.
func DefaultSelectors() Selectors {
	return Selectors{
		Entries: "div[id='words'] li:not(.single)",
		Total:   "small[class='cCCC']",
	}
}

// Config configures a Pipeline.
type Config struct {
	Driver    Driver
	Extractor *extract.Extractor
	Persister persist.Persister
	Selectors Selectors
	Observer  Observer // optional
	Logger    *slog.Logger
}

// Pipeline runs scrapes. It holds no per-run state and may be reused.
type Pipeline struct {
	cfg Config
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Extractor == nil {
		cfg.Extractor = extract.New(extract.Selectors{})
	}
	d := DefaultSelectors()
	if cfg.Selectors.Entries == "" {
		cfg.Selectors.Entries = d.Entries
	}
	if cfg.Selectors.Total == "" {
		cfg.Selectors.Total = d.Total
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{cfg: cfg}
}

// Report summarises a run.
type Report struct {
	Source  source.Pair
	StoreID string
	Signal  progress.Signal
	Written int
	State   State
}

// Run scrapes src. The returned Report is filled as far as the run got,
// including on error.
func (p *Pipeline) Run(ctx context.Context, src source.Pair) (Report, error) {
	r := &run{p: p, rep: Report{Source: src, State: Idle}}
	err := r.exec(ctx)
	if err != nil {
		r.transition(Aborted)
		p.cfg.Logger.Error("pipeline: aborted",
			"source", src.Slug(), "written", r.rep.Written, "error", err)
		return r.rep, err
	}
	r.transition(Completed)
	p.cfg.Logger.Info("pipeline: completed",
		"source", src.Slug(), "store", r.rep.StoreID, "written", r.rep.Written)
	return r.rep, nil
}

type run struct {
	p   *Pipeline
	rep Report
}

func (r *run) transition(s State) {
	r.rep.State = s
	r.p.cfg.Observer.OnState(s)
}

func (r *run) exec(ctx context.Context) error {
	cfg := r.p.cfg
	log := cfg.Logger

	page, err := cfg.Driver.Navigate(ctx, r.rep.Source.URL)
	if err != nil {
		return fmt.Errorf("pipeline: navigate: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("pipeline: close page", "error", err)
		}
	}()
	r.transition(SessionReady)

	totalText, ok, err := page.QueryText(cfg.Selectors.Total)
	if err != nil {
		return fmt.Errorf("pipeline: read total: %w", err)
	}
	if !ok {
		return &progress.MalformedTotalError{Text: "", Err: fmt.Errorf("no element matches %s", cfg.Selectors.Total)}
	}
	total, err := progress.ParseTotal(totalText)
	if err != nil {
		return err
	}

	nodes, err := page.QueryAll(cfg.Selectors.Entries)
	if err != nil {
		return fmt.Errorf("pipeline: list entries: %w", err)
	}

	r.rep.Signal = progress.Assess(len(nodes), total)
	r.rep.StoreID = persist.StoreName(r.rep.Source.Slug(), total)
	cfg.Observer.OnSignal(r.rep.Signal)
	switch r.rep.Signal.Status {
	case progress.Incomplete:
		log.Warn("pipeline: page incomplete",
			"observed", len(nodes), "advertised", total, "missing", r.rep.Signal.Missing())
	case progress.Unexpected:
		log.Warn("pipeline: more entries than advertised",
			"observed", len(nodes), "advertised", total)
	default:
		log.Info("pipeline: all entries rendered", "count", total)
	}

	r.transition(Iterating)
	for i, node := range nodes {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline: entry %d: %w", i+1, err)
		}
		raw, err := cfg.Extractor.Extract(node, i+1)
		if err != nil {
			return err
		}
		rec := normalize.Clean(raw)
		if err := cfg.Persister.Append(ctx, rec, r.rep.StoreID); err != nil {
			return fmt.Errorf("pipeline: entry %d: %w", i+1, err)
		}
		r.rep.Written++
		cfg.Observer.OnEntry(i+1, total, rec)
		log.Debug("pipeline: entry stored", "index", i+1, "phonetic", rec.PhoneticSpelling)
	}
	return nil
}

type nopObserver struct{}

func (nopObserver) OnState(State)                       {}
func (nopObserver) OnSignal(progress.Signal)            {}
func (nopObserver) OnEntry(int, int, vocab.CleanRecord) {}
