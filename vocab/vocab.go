// Package vocab holds the record shapes that flow through the scraper:
// the raw field values read off one rendered entry, and the cleaned record
// that ends up as a row in the output store.
package vocab

// RawFields are the four text values read directly from an entry node,
// before any cleanup. Every field was present on the page; absence is an
// error upstream, never an empty string here.
type RawFields struct {
	OriginalWord     string
	PhoneticSpelling string
	DefinitionRaw    string
	CategoryRaw      string
}

// CleanRecord is the persisted shape of one vocabulary entry.
type CleanRecord struct {
	PhoneticSpelling string
	Definition       string
	Category         string
}

// Row returns the record's fields in store column order.
func (r CleanRecord) Row() []string {
	return []string{r.PhoneticSpelling, r.Definition, r.Category}
}
