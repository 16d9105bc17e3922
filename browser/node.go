package browser

import (
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/lexscrape/extract"
)

// Node is one rendered entry element.
type Node struct {
	el *rod.Element
}

// QueryOne implements extract.EntryNode. Absent descendants are reported
// immediately; it never waits for them to appear.
func (n *Node) QueryOne(selector string) (extract.SubElement, bool, error) {
	els, err := n.el.Elements(selector)
	if err != nil {
		return nil, false, fmt.Errorf("browser: query %s: %w", selector, err)
	}
	if len(els) == 0 {
		return nil, false, nil
	}
	return element{el: els[0]}, true, nil
}

type element struct {
	el *rod.Element
}

// Text reads textContent rather than innerText: the original word sits in
// a hidden span and innerText of hidden elements is empty.
func (e element) Text() (string, error) {
	v, err := e.el.Property("textContent")
	if err != nil {
		return "", fmt.Errorf("browser: textContent: %w", err)
	}
	if v.Nil() {
		return "", nil
	}
	return v.Str(), nil
}

func (e element) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("browser: attribute %s: %w", name, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}
