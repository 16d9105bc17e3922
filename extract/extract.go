// Package extract reads the four raw fields of one rendered vocabulary
// entry through a small typed node contract. It never defaults a field:
// an absent element or attribute is a MissingFieldError.
package extract

import (
	"fmt"

	"github.com/hazyhaar/lexscrape/vocab"
)

// SubElement is a located element inside an entry.
type SubElement interface {
	// Text returns the element's full text content, hidden text included.
	Text() (string, error)
	// Attribute returns the named attribute and whether it is present.
	Attribute(name string) (string, bool, error)
}

// EntryNode is one rendered listing item.
type EntryNode interface {
	// QueryOne returns the first descendant matching selector, or false
	// when nothing matches.
	QueryOne(selector string) (SubElement, bool, error)
}

// Field names reported by MissingFieldError.
const (
	FieldWord       = "original_word"
	FieldPhonetic   = "phonetic_spelling"
	FieldDefinition = "definition"
	FieldCategory   = "category"
)

// Selectors locates the entry's sub-elements.
type Selectors struct {
	Word           string `yaml:"word"`
	Phonetic       string `yaml:"phonetic"`
	Definition     string `yaml:"definition"`
	DefinitionAttr string `yaml:"definition_attr"`
	Category       string `yaml:"category"`
}

// DefaultSelectors matches duome.eu vocabulary listings.
func DefaultSelectors() Selectors {
	return Selectors{
		Word:           "span[class='hide wN']",
		Phonetic:       "span[class='speak xs voice']",
		Definition:     "span[class='wA']",
		DefinitionAttr: "title",
		Category:       "small[class='cCCC wP']",
	}
}

func (s *Selectors) applyDefaults() {
	d := DefaultSelectors()
	if s.Word == "" {
		s.Word = d.Word
	}
	if s.Phonetic == "" {
		s.Phonetic = d.Phonetic
	}
	if s.Definition == "" {
		s.Definition = d.Definition
	}
	if s.DefinitionAttr == "" {
		s.DefinitionAttr = d.DefinitionAttr
	}
	if s.Category == "" {
		s.Category = d.Category
	}
}

// Extractor reads RawFields from entry nodes.
type Extractor struct {
	sel Selectors
}

// New creates an Extractor. Empty selectors fall back to DefaultSelectors.
func New(sel Selectors) *Extractor {
	sel.applyDefaults()
	return &Extractor{sel: sel}
}

// Selectors returns the effective selectors.
func (x *Extractor) Selectors() Selectors { return x.sel }

// Extract reads the word, phonetic spelling, definition attribute and
// category of node, in that order, stopping at the first absent one.
// index is the node's 1-based position on the page.
func (x *Extractor) Extract(node EntryNode, index int) (vocab.RawFields, error) {
	var raw vocab.RawFields
	var err error

	if raw.OriginalWord, err = x.text(node, index, FieldWord, x.sel.Word); err != nil {
		return vocab.RawFields{}, err
	}
	if raw.PhoneticSpelling, err = x.text(node, index, FieldPhonetic, x.sel.Phonetic); err != nil {
		return vocab.RawFields{}, err
	}
	if raw.DefinitionRaw, err = x.attr(node, index, FieldDefinition, x.sel.Definition, x.sel.DefinitionAttr); err != nil {
		return vocab.RawFields{}, err
	}
	if raw.CategoryRaw, err = x.text(node, index, FieldCategory, x.sel.Category); err != nil {
		return vocab.RawFields{}, err
	}
	return raw, nil
}

func (x *Extractor) lookup(node EntryNode, index int, field, selector string) (SubElement, error) {
	el, ok, err := node.QueryOne(selector)
	if err != nil {
		return nil, fmt.Errorf("extract: entry %d: query %s: %w", index, field, err)
	}
	if !ok {
		return nil, &MissingFieldError{Field: field, Selector: selector, Index: index}
	}
	return el, nil
}

func (x *Extractor) text(node EntryNode, index int, field, selector string) (string, error) {
	el, err := x.lookup(node, index, field, selector)
	if err != nil {
		return "", err
	}
	s, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("extract: entry %d: read %s: %w", index, field, err)
	}
	return s, nil
}

func (x *Extractor) attr(node EntryNode, index int, field, selector, name string) (string, error) {
	el, err := x.lookup(node, index, field, selector)
	if err != nil {
		return "", err
	}
	v, ok, err := el.Attribute(name)
	if err != nil {
		return "", fmt.Errorf("extract: entry %d: read %s@%s: %w", index, field, name, err)
	}
	if !ok {
		return "", &MissingFieldError{Field: field, Selector: selector, Attr: name, Index: index}
	}
	return v, nil
}
