// Package normalize cleans the markup artifacts duome leaves in entry text.
//
// Both strippers are anchored at position 0 and remove their match at most
// once. A non-leading occurrence is never touched.
package normalize

import (
	"strings"
	"unicode"

	"github.com/hazyhaar/lexscrape/vocab"
)

// CategoryMarker is the middot duome prints before a part-of-speech label.
const CategoryMarker = "·"

// StripPrefix removes a leading "[word]" and the whitespace that follows it
// from definition. The word is matched literally.
func StripPrefix(definition, word string) string {
	return stripLeading(definition, "["+word+"]")
}

// StripCategoryMarker removes a leading middot and the whitespace that
// follows it from category.
func StripCategoryMarker(category string) string {
	return stripLeading(category, CategoryMarker)
}

// Clean applies both strippers to raw and returns the record to persist.
func Clean(raw vocab.RawFields) vocab.CleanRecord {
	return vocab.CleanRecord{
		PhoneticSpelling: raw.PhoneticSpelling,
		Definition:       StripPrefix(raw.DefinitionRaw, raw.OriginalWord),
		Category:         StripCategoryMarker(raw.CategoryRaw),
	}
}

func stripLeading(s, marker string) string {
	rest, ok := strings.CutPrefix(s, marker)
	if !ok {
		return s
	}
	return strings.TrimLeftFunc(rest, unicode.IsSpace)
}
