// Package htmlpage serves an already rendered listing from static HTML.
//
// It implements the same page and node contract as the browser session, on
// top of goquery, so a saved copy of a listing can be scraped without
// launching Chrome.
package htmlpage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/hazyhaar/lexscrape/extract"
	"github.com/hazyhaar/lexscrape/pipeline"
)

// Page is a parsed HTML document.
type Page struct {
	doc *goquery.Document
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: parse: %w", err)
	}
	return &Page{doc: doc}, nil
}

// QueryAll implements pipeline.Page.
func (p *Page) QueryAll(selector string) ([]extract.EntryNode, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	sel := p.doc.FindMatcher(m)
	nodes := make([]extract.EntryNode, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &Node{sel: s})
	})
	return nodes, nil
}

// QueryText implements pipeline.Page.
func (p *Page) QueryText(selector string) (string, bool, error) {
	m, err := compile(selector)
	if err != nil {
		return "", false, err
	}
	sel := p.doc.FindMatcher(m).First()
	if sel.Length() == 0 {
		return "", false, nil
	}
	return sel.Text(), true, nil
}

// Close implements pipeline.Page.
func (p *Page) Close() error { return nil }

// Node is one entry element.
type Node struct {
	sel *goquery.Selection
}

// QueryOne implements extract.EntryNode.
func (n *Node) QueryOne(selector string) (extract.SubElement, bool, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, false, err
	}
	sel := n.sel.FindMatcher(m).First()
	if sel.Length() == 0 {
		return nil, false, nil
	}
	return element{sel: sel}, true, nil
}

type element struct {
	sel *goquery.Selection
}

// Text returns the concatenated text of the element and its descendants,
// like DOM textContent.
func (e element) Text() (string, error) { return e.sel.Text(), nil }

func (e element) Attribute(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func compile(selector string) (cascadia.Selector, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: selector %q: %w", selector, err)
	}
	return m, nil
}

// FileDriver loads the page from a saved HTML file, whatever URL is asked.
type FileDriver struct {
	Path string
}

// Navigate implements pipeline.Driver.
func (d FileDriver) Navigate(ctx context.Context, _ string) (pipeline.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: open %s: %w", d.Path, err)
	}
	defer f.Close()
	return load(f)
}

// ReaderDriver serves a page parsed from HTML held in memory. Every
// Navigate parses it afresh.
type ReaderDriver struct {
	HTML string
}

// Navigate implements pipeline.Driver.
func (d ReaderDriver) Navigate(ctx context.Context, _ string) (pipeline.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return load(strings.NewReader(d.HTML))
}

func load(r io.Reader) (pipeline.Page, error) {
	p, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return p, nil
}
