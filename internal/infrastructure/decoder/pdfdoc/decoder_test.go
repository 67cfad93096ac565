package pdfdoc

import (
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

func TestValidateRejectsNonPDF(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"wrong extension", "report.docx", []byte("%PDF-1.7 ...")},
		{"missing signature", "report.pdf", []byte("PK\x03\x04 not a pdf")},
		{"empty body", "report.pdf", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate(tc.filename, tc.data)
			if !domain.IsKind(err, domain.ErrDecodeFailed) {
				t.Fatalf("expected ErrDecodeFailed, got %v", err)
			}
		})
	}

	if err := validate("report.pdf", []byte("%PDF-1.4\n...")); err != nil {
		t.Fatalf("expected valid upload to pass, got %v", err)
	}
	if err := validate("upload", []byte("%PDF-1.4\n...")); err != nil {
		t.Fatalf("expected extensionless filename to pass on signature alone, got %v", err)
	}
}

func run(s string, x, y, w, size float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: w, FontSize: size}
}

func TestMergeRunsJoinsGlyphsIntoWords(t *testing.T) {
	// "Total" as per-glyph runs followed by a separate amount on the same
	// baseline.
	texts := []pdf.Text{
		run("T", 100, 700, 6, 10),
		run("o", 106, 700, 5, 10),
		run("t", 111, 700, 4, 10),
		run("a", 115, 700, 5, 10),
		run("l", 120, 700, 3, 10),
		run("42.50", 200, 700, 25, 10),
	}

	words := mergeRuns(texts, 792)
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d: %v", len(words), words)
	}
	if words[0].Text != "Total" {
		t.Fatalf("expected merged word \"Total\", got %q", words[0].Text)
	}
	if words[0].X != 100 || words[0].EndX != 123 {
		t.Fatalf("unexpected word extent: X=%v EndX=%v", words[0].X, words[0].EndX)
	}
	// Y is flipped to top-down using the page height.
	if words[0].Y != 92 {
		t.Fatalf("expected top-down Y 92, got %v", words[0].Y)
	}
	if words[1].Text != "42.50" {
		t.Fatalf("expected second word \"42.50\", got %q", words[1].Text)
	}
}

func TestMergeRunsSplitsOnBaselineChange(t *testing.T) {
	texts := []pdf.Text{
		run("Header", 100, 700, 30, 10),
		run("Body", 100, 680, 22, 10),
	}

	words := mergeRuns(texts, 792)
	if len(words) != 2 {
		t.Fatalf("expected baseline change to split words, got %d", len(words))
	}
}

func TestMergeRunsSplitsOnWhitespaceRun(t *testing.T) {
	texts := []pdf.Text{
		run("Unit", 100, 700, 20, 10),
		run(" ", 120, 700, 3, 10),
		run("price", 123, 700, 24, 10),
	}

	words := mergeRuns(texts, 792)
	if len(words) != 2 {
		t.Fatalf("expected whitespace run to split words, got %d: %v", len(words), words)
	}
}

func TestContainsBinaryGarbage(t *testing.T) {
	clean := []domain.Word{{Text: "Revenue"}, {Text: "1,204.00"}}
	if containsBinaryGarbage(clean) {
		t.Fatalf("expected clean words to pass")
	}

	garbage := []domain.Word{{Text: "Revenue"}, {Text: "\x01\x02\x7f"}}
	if !containsBinaryGarbage(garbage) {
		t.Fatalf("expected control characters to be flagged")
	}

	replacement := []domain.Word{{Text: "��"}}
	if !containsBinaryGarbage(replacement) {
		t.Fatalf("expected replacement runes to be flagged")
	}
}
