package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/lexscrape/journal"
	"github.com/hazyhaar/lexscrape/pipeline"
	"github.com/hazyhaar/lexscrape/progress"
	"github.com/hazyhaar/lexscrape/source"
	"github.com/hazyhaar/lexscrape/vocab"
)

func TestConsole_ProgressLines(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	c.OnState(pipeline.SessionReady)
	c.OnSignal(progress.Assess(2, 3))
	c.OnState(pipeline.Iterating)
	c.OnEntry(1, 3, vocab.CleanRecord{})
	c.OnEntry(2, 3, vocab.CleanRecord{})
	c.OnState(pipeline.Completed)

	want := "Total Words Found: 2/3\n\rScraping Words: 1/3\rScraping Words: 2/3\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestConsole_NoCounterNoNewline(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	c.OnState(pipeline.Aborted)
	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing", buf.String())
	}
}

func TestConsole_Color(t *testing.T) {
	for _, s := range []progress.Status{progress.Match, progress.Incomplete, progress.Unexpected} {
		var buf bytes.Buffer
		New(&buf, WithColor(true)).OnSignal(progress.Signal{Observed: 1, Advertised: 1, Status: s})
		if !strings.Contains(buf.String(), "Total Words Found: 1/1") {
			t.Errorf("%v: output = %q", s, buf.String())
		}
	}
	if statusColor(progress.Match) == statusColor(progress.Unexpected) {
		t.Error("match and unexpected share a color")
	}
}

func TestConsole_Summary(t *testing.T) {
	src, _ := source.Parse(source.DefaultURL)

	var buf bytes.Buffer
	New(&buf).Summary(pipeline.Report{
		Source:  src,
		StoreID: "en_ja_3.csv",
		Signal:  progress.Assess(3, 3),
		Written: 3,
		State:   pipeline.Completed,
	}, nil)
	out := buf.String()
	for _, want := range []string{"en_ja_3.csv", "3/3", "match", "completed", "EN→JA"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestConsole_SummaryAbortedEarly(t *testing.T) {
	src, _ := source.Parse(source.DefaultURL)

	var buf bytes.Buffer
	New(&buf).Summary(pipeline.Report{Source: src, State: pipeline.Aborted}, errors.New("navigate: timeout"))
	out := buf.String()
	if !strings.Contains(out, "aborted") || !strings.Contains(out, "navigate: timeout") {
		t.Errorf("summary:\n%s", out)
	}
	if strings.Contains(out, "match") {
		t.Errorf("status shown before signal:\n%s", out)
	}
}

func TestConsole_History(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	c.History(nil)
	if buf.String() != "no runs recorded\n" {
		t.Errorf("empty history = %q", buf.String())
	}

	buf.Reset()
	c.History([]journal.RunRecord{{
		ID:         "run_0192",
		Slug:       "en_ja",
		Store:      "en_ja_3.csv",
		Observed:   2,
		Advertised: 3,
		Status:     "incomplete",
		Written:    2,
		State:      "completed",
		StartedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}})
	out := buf.String()
	for _, want := range []string{"run_0192", "2026-01-02 03:04:05", "2/3 incomplete", "en_ja_3.csv"} {
		if !strings.Contains(out, want) {
			t.Errorf("history missing %q:\n%s", want, out)
		}
	}
}

func TestConsole_Entries(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	c.Entries("run_x", nil)
	if buf.String() != "no entries for run_x\n" {
		t.Errorf("empty entries = %q", buf.String())
	}

	buf.Reset()
	c.Entries("run_x", []vocab.CleanRecord{
		{PhoneticSpelling: "き", Definition: "tree, wood", Category: "Noun"},
		{PhoneticSpelling: "ねこ", Definition: "cat", Category: "Noun"},
	})
	out := buf.String()
	for _, want := range []string{"run_x", "き", "tree, wood", "ねこ", "Noun"} {
		if !strings.Contains(out, want) {
			t.Errorf("entries missing %q:\n%s", want, out)
		}
	}
}
