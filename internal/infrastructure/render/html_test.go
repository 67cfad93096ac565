package render

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func countNodes(t *testing.T, fragment, element string) int {
	t.Helper()

	nodes, err := html.ParseFragment(strings.NewReader(fragment), nil)
	if err != nil {
		t.Fatalf("fragment does not parse: %v", err)
	}

	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == element {
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return count
}

func TestFragmentHeaderAndBody(t *testing.T) {
	renderer := NewHTMLRenderer()

	fragment, err := renderer.Fragment([][]string{
		{"Name", "Qty"},
		{"Apples", "4"},
		{"Pears", "2"},
	})
	if err != nil {
		t.Fatalf("Fragment() error = %v", err)
	}

	if !strings.Contains(fragment, `<table class="table table-bordered">`) {
		t.Fatalf("missing table element: %s", fragment)
	}
	if got := countNodes(t, fragment, "th"); got != 2 {
		t.Fatalf("expected 2 header cells, got %d", got)
	}
	if got := countNodes(t, fragment, "td"); got != 4 {
		t.Fatalf("expected 4 body cells, got %d", got)
	}
	if got := countNodes(t, fragment, "thead"); got != 1 {
		t.Fatalf("expected a thead, got %d", got)
	}
}

func TestFragmentSingleRowHasNoHeader(t *testing.T) {
	renderer := NewHTMLRenderer()

	fragment, err := renderer.Fragment([][]string{{"only", "row"}})
	if err != nil {
		t.Fatalf("Fragment() error = %v", err)
	}
	if got := countNodes(t, fragment, "thead"); got != 0 {
		t.Fatalf("expected no thead for single-row table, got %d", got)
	}
	if got := countNodes(t, fragment, "td"); got != 2 {
		t.Fatalf("expected 2 body cells, got %d", got)
	}
}

func TestFragmentEscapesCellText(t *testing.T) {
	renderer := NewHTMLRenderer()

	fragment, err := renderer.Fragment([][]string{
		{"Name", "Note"},
		{"x", `<script>alert("x")</script>`},
	})
	if err != nil {
		t.Fatalf("Fragment() error = %v", err)
	}
	if strings.Contains(fragment, "<script>") {
		t.Fatalf("cell text was not escaped: %s", fragment)
	}
	if got := countNodes(t, fragment, "script"); got != 0 {
		t.Fatalf("expected no script elements, got %d", got)
	}
}

func TestFragmentEmptyGrid(t *testing.T) {
	renderer := NewHTMLRenderer()
	if _, err := renderer.Fragment(nil); err == nil {
		t.Fatalf("expected error for empty grid")
	}
}
