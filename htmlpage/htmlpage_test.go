package htmlpage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/lexscrape/extract"
	"github.com/hazyhaar/lexscrape/persist"
	"github.com/hazyhaar/lexscrape/pipeline"
	"github.com/hazyhaar/lexscrape/source"
)

const fixture = "testdata/vocabulary_en_ja.html"

func loadFixture(t *testing.T) *Page {
	t.Helper()
	f, err := os.Open(fixture)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	p, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestQueryAll_SkipsLetterHeaders(t *testing.T) {
	p := loadFixture(t)
	nodes, err := p.QueryAll(pipeline.DefaultSelectors().Entries)
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(nodes))
	}
}

func TestQueryText_Total(t *testing.T) {
	p := loadFixture(t)
	text, ok, err := p.QueryText(pipeline.DefaultSelectors().Total)
	if err != nil || !ok {
		t.Fatalf("QueryText: %q %v %v", text, ok, err)
	}
	if text != "3 words" {
		t.Errorf("total text = %q", text)
	}
}

func TestQueryText_Absent(t *testing.T) {
	p := loadFixture(t)
	_, ok, err := p.QueryText("table.nope")
	if err != nil || ok {
		t.Errorf("ok=%v err=%v, want absent", ok, err)
	}
}

func TestQuery_BadSelector(t *testing.T) {
	p := loadFixture(t)
	if _, err := p.QueryAll("li[["); err == nil {
		t.Error("expected selector error")
	}
}

func TestNode_HiddenTextAndAttribute(t *testing.T) {
	p := loadFixture(t)
	nodes, _ := p.QueryAll(pipeline.DefaultSelectors().Entries)
	raw, err := extract.New(extract.Selectors{}).Extract(nodes[0], 1)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if raw.OriginalWord != "ki" {
		t.Errorf("word = %q", raw.OriginalWord)
	}
	if raw.DefinitionRaw != "[ki] tree, wood" {
		t.Errorf("definition = %q", raw.DefinitionRaw)
	}
}

func TestPipeline_OverFixture(t *testing.T) {
	data, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatal(err)
	}
	src, _ := source.Parse(source.DefaultURL)
	store := persist.NewCSV(t.TempDir())

	rep, err := pipeline.New(pipeline.Config{
		Driver:    ReaderDriver{HTML: string(data)},
		Persister: store,
	}).Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.StoreID != "en_ja_3.csv" || rep.Written != 3 {
		t.Fatalf("report = %+v", rep)
	}

	rows, err := store.ReadAll(rep.StoreID)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"き", "tree, wood", "Noun"},
		{"ねこ", "cat", "Noun"},
		// Only the leading prefix goes.
		{"たべる", "to eat, [taberu] eat", "Verb"},
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i, rows[i], want[i])
		}
	}
}

func TestPipeline_MissingTitle(t *testing.T) {
	data, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatal(err)
	}
	html := strings.Replace(string(data), `title="[neko]  cat"`, ``, 1)
	src, _ := source.Parse(source.DefaultURL)
	store := persist.NewCSV(t.TempDir())

	rep, err := pipeline.New(pipeline.Config{
		Driver:    ReaderDriver{HTML: html},
		Persister: store,
	}).Run(context.Background(), src)

	var mfe *extract.MissingFieldError
	if !errors.As(err, &mfe) || mfe.Index != 2 {
		t.Fatalf("err = %v, want MissingFieldError at entry 2", err)
	}
	if n, _ := store.Count(rep.StoreID); n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestFileDriver(t *testing.T) {
	abs, err := filepath.Abs(fixture)
	if err != nil {
		t.Fatal(err)
	}
	page, err := FileDriver{Path: abs}.Navigate(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	defer page.Close()
	nodes, _ := page.QueryAll(pipeline.DefaultSelectors().Entries)
	if len(nodes) != 3 {
		t.Errorf("nodes = %d", len(nodes))
	}
}

func TestFileDriver_Missing(t *testing.T) {
	_, err := FileDriver{Path: filepath.Join(t.TempDir(), "none.html")}.Navigate(context.Background(), "")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}
