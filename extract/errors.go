package extract

import "fmt"

// MissingFieldError reports a required sub-element or attribute absent from
// an entry node. Index is the node's 1-based position on the page.
type MissingFieldError struct {
	Field    string
	Selector string
	Attr     string // empty when the element itself is missing
	Index    int
}

func (e *MissingFieldError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("extract: entry %d: missing %s (attribute %q on %s)", e.Index, e.Field, e.Attr, e.Selector)
	}
	return fmt.Sprintf("extract: entry %d: missing %s (%s)", e.Index, e.Field, e.Selector)
}
