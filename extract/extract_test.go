package extract

import (
	"errors"
	"testing"
)

type fakeEl struct {
	text  string
	attrs map[string]string
	err   error
}

func (e fakeEl) Text() (string, error) { return e.text, e.err }

func (e fakeEl) Attribute(name string) (string, bool, error) {
	if e.err != nil {
		return "", false, e.err
	}
	v, ok := e.attrs[name]
	return v, ok, nil
}

type fakeNode struct {
	els     map[string]fakeEl
	queried []string
}

func (n *fakeNode) QueryOne(selector string) (SubElement, bool, error) {
	n.queried = append(n.queried, selector)
	el, ok := n.els[selector]
	if !ok {
		return nil, false, nil
	}
	return el, true, nil
}

func completeNode() *fakeNode {
	s := DefaultSelectors()
	return &fakeNode{els: map[string]fakeEl{
		s.Word:       {text: "ki"},
		s.Phonetic:   {text: "き"},
		s.Definition: {attrs: map[string]string{"title": "[ki] tree"}},
		s.Category:   {text: "·  Noun"},
	}}
}

func TestExtract_Complete(t *testing.T) {
	raw, err := New(Selectors{}).Extract(completeNode(), 1)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if raw.OriginalWord != "ki" || raw.PhoneticSpelling != "き" {
		t.Errorf("word fields = %q %q", raw.OriginalWord, raw.PhoneticSpelling)
	}
	// Extraction does not clean.
	if raw.DefinitionRaw != "[ki] tree" {
		t.Errorf("definition = %q", raw.DefinitionRaw)
	}
	if raw.CategoryRaw != "·  Noun" {
		t.Errorf("category = %q", raw.CategoryRaw)
	}
}

func TestExtract_MissingElement(t *testing.T) {
	n := completeNode()
	delete(n.els, DefaultSelectors().Phonetic)

	_, err := New(Selectors{}).Extract(n, 7)
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("err = %v, want MissingFieldError", err)
	}
	if mfe.Field != FieldPhonetic || mfe.Index != 7 || mfe.Attr != "" {
		t.Errorf("got %+v", mfe)
	}
	// Lookups stop at the first failure.
	if len(n.queried) != 2 {
		t.Errorf("queried %d selectors, want 2", len(n.queried))
	}
}

func TestExtract_MissingAttribute(t *testing.T) {
	n := completeNode()
	n.els[DefaultSelectors().Definition] = fakeEl{attrs: map[string]string{}}

	_, err := New(Selectors{}).Extract(n, 2)
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("err = %v, want MissingFieldError", err)
	}
	if mfe.Field != FieldDefinition || mfe.Attr != "title" || mfe.Index != 2 {
		t.Errorf("got %+v", mfe)
	}
}

func TestExtract_EmptyAttributeIsNotMissing(t *testing.T) {
	n := completeNode()
	n.els[DefaultSelectors().Definition] = fakeEl{attrs: map[string]string{"title": ""}}

	raw, err := New(Selectors{}).Extract(n, 1)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if raw.DefinitionRaw != "" {
		t.Errorf("definition = %q", raw.DefinitionRaw)
	}
}

func TestExtract_RenderError(t *testing.T) {
	boom := errors.New("cdp: target closed")
	n := completeNode()
	n.els[DefaultSelectors().Category] = fakeEl{err: boom}

	_, err := New(Selectors{}).Extract(n, 3)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	var mfe *MissingFieldError
	if errors.As(err, &mfe) {
		t.Error("render error must not be reported as a missing field")
	}
}

func TestNew_CustomSelectors(t *testing.T) {
	x := New(Selectors{Word: "b.word"})
	if x.Selectors().Word != "b.word" {
		t.Errorf("word selector = %q", x.Selectors().Word)
	}
	if x.Selectors().Category != DefaultSelectors().Category {
		t.Errorf("category selector not defaulted: %q", x.Selectors().Category)
	}
}

func TestMissingFieldError_Message(t *testing.T) {
	e := &MissingFieldError{Field: FieldDefinition, Selector: "span.wA", Attr: "title", Index: 2}
	want := `extract: entry 2: missing definition (attribute "title" on span.wA)`
	if e.Error() != want {
		t.Errorf("got %q", e.Error())
	}
}
