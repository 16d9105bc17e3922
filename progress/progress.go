// Package progress compares the number of entries found on the rendered
// page with the total the page advertises. The result is informational:
// it never stops an extraction.
package progress

import (
	"fmt"
	"regexp"
	"strconv"
)

// Status classifies observed vs advertised entry counts.
type Status int

const (
	Match      Status = iota // every advertised entry rendered
	Incomplete               // fewer entries than advertised, page likely truncated
	Unexpected               // more entries than advertised, metadata and DOM disagree
)

func (s Status) String() string {
	switch s {
	case Match:
		return "match"
	case Incomplete:
		return "incomplete"
	case Unexpected:
		return "unexpected"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Signal is the completeness signal, computed once per run.
type Signal struct {
	Observed   int
	Advertised int
	Status     Status
}

// Assess classifies observed against advertised.
func Assess(observed, advertised int) Signal {
	s := Signal{Observed: observed, Advertised: advertised, Status: Match}
	switch {
	case observed < advertised:
		s.Status = Incomplete
	case observed > advertised:
		s.Status = Unexpected
	}
	return s
}

// Missing returns how many advertised entries were not rendered.
// It is zero unless the status is Incomplete.
func (s Signal) Missing() int {
	if s.Status != Incomplete {
		return 0
	}
	return s.Advertised - s.Observed
}

var totalRe = regexp.MustCompile(`\b\d+\b`)

// MalformedTotalError reports advertised-total text with no integer in it.
type MalformedTotalError struct {
	Text string
	Err  error
}

func (e *MalformedTotalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("progress: malformed total %q: %v", e.Text, e.Err)
	}
	return fmt.Sprintf("progress: malformed total %q: no integer found", e.Text)
}

func (e *MalformedTotalError) Unwrap() error { return e.Err }

// ParseTotal returns the first standalone decimal integer in text,
// e.g. "2431 words" or "(2431)".
func ParseTotal(text string) (int, error) {
	m := totalRe.FindString(text)
	if m == "" {
		return 0, &MalformedTotalError{Text: text}
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, &MalformedTotalError{Text: text, Err: err}
	}
	return n, nil
}
