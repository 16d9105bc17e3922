// Package display renders run progress and summaries on a terminal.
package display

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hazyhaar/lexscrape/journal"
	"github.com/hazyhaar/lexscrape/pipeline"
	"github.com/hazyhaar/lexscrape/progress"
	"github.com/hazyhaar/lexscrape/vocab"
)

// Console prints the completeness line, a carriage-return counter while
// entries are written, and tables on demand. It implements
// pipeline.Observer.
type Console struct {
	w       io.Writer
	color   bool
	counter bool // a "\r" counter line is open
}

// Option configures a Console.
type Option func(*Console)

// WithColor enables ANSI colors. Default: off.
func WithColor(on bool) Option {
	return func(c *Console) { c.color = on }
}

// New creates a Console writing to w.
func New(w io.Writer, opts ...Option) *Console {
	c := &Console{w: w}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OnState closes the counter line when the run ends.
func (c *Console) OnState(s pipeline.State) {
	if s.Terminal() && c.counter {
		fmt.Fprintln(c.w)
		c.counter = false
	}
}

// OnSignal prints "Total Words Found: observed/advertised", green when
// complete, yellow when entries are missing, red when there are too many.
func (c *Console) OnSignal(sig progress.Signal) {
	line := fmt.Sprintf("Total Words Found: %d/%d", sig.Observed, sig.Advertised)
	fmt.Fprintln(c.w, c.paint(statusColor(sig.Status), line))
}

// OnEntry rewrites the counter line.
func (c *Console) OnEntry(index, total int, _ vocab.CleanRecord) {
	fmt.Fprintf(c.w, "\rScraping Words: %d/%d", index, total)
	c.counter = true
}

func statusColor(s progress.Status) text.Color {
	switch s {
	case progress.Match:
		return text.FgGreen
	case progress.Incomplete:
		return text.FgHiYellow
	}
	return text.FgRed
}

func (c *Console) paint(col text.Color, s string) string {
	if !c.color {
		return s
	}
	return col.Sprint(s)
}

func (c *Console) newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(c.w)
	return t
}

// Summary prints the outcome of one run.
func (c *Console) Summary(rep pipeline.Report, runErr error) {
	t := c.newTable()
	t.AppendHeader(table.Row{"Source", "Store", "Found", "Written", "Status", "State"})

	store, found, status := "-", "-", "-"
	if rep.StoreID != "" {
		store = rep.StoreID
		found = fmt.Sprintf("%d/%d", rep.Signal.Observed, rep.Signal.Advertised)
		status = c.paint(statusColor(rep.Signal.Status), rep.Signal.Status.String())
	}
	t.AppendRow(table.Row{rep.Source.String(), store, found, rep.Written, status, rep.State.String()})
	if runErr != nil {
		t.Style().Format.Footer = text.FormatDefault
		t.AppendFooter(table.Row{"error", runErr.Error()})
	}
	t.Render()
}

// History prints journaled runs, newest first.
func (c *Console) History(runs []journal.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(c.w, "no runs recorded")
		return
	}
	t := c.newTable()
	t.AppendHeader(table.Row{"Run", "Started", "Source", "Store", "Found", "Written", "State", "Error"})
	for _, r := range runs {
		found := "-"
		if r.Status != "" {
			found = fmt.Sprintf("%d/%d %s", r.Observed, r.Advertised, r.Status)
		}
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.UTC().Format(time.DateTime),
			r.Slug,
			r.Store,
			found,
			r.Written,
			r.State,
			r.Error,
		})
	}
	t.Render()
}

// Entries prints the rows one run wrote, in page order.
func (c *Console) Entries(runID string, recs []vocab.CleanRecord) {
	if len(recs) == 0 {
		fmt.Fprintf(c.w, "no entries for %s\n", runID)
		return
	}
	t := c.newTable()
	t.SetTitle(runID)
	t.AppendHeader(table.Row{"#", "Phonetic", "Definition", "Category"})
	for i, r := range recs {
		t.AppendRow(table.Row{i + 1, r.PhoneticSpelling, r.Definition, r.Category})
	}
	t.Render()
}
