// Package pdfdoc decodes uploaded PDF bytes into the page sequence the
// extraction engine works on. The text layer comes from the PDF content
// streams; pages without a usable text layer are rasterized so the OCR
// strategy has an image to work with. Everything runs in memory, no scratch
// files.
package pdfdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

const defaultPageHeight = 792 // US Letter, points

type Decoder struct {
	maxPages int
	minWords int
	logger   *slog.Logger
}

func NewDecoder(maxPages, minWords int, logger *slog.Logger) *Decoder {
	if maxPages <= 0 {
		maxPages = 10
	}
	if minWords <= 0 {
		minWords = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{
		maxPages: maxPages,
		minWords: minWords,
		logger:   logger,
	}
}

// Decode validates and decodes one uploaded document. Any failure here is a
// document-level decode error; per-page text extraction problems degrade to
// an image-only page instead.
func (d *Decoder) Decode(ctx context.Context, filename string, data []byte) (*domain.Document, error) {
	if err := validate(filename, data); err != nil {
		return nil, err
	}

	reader, err := openReader(data)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDecodeFailed, "open pdf", err)
	}

	total := reader.NumPage()
	if total <= 0 {
		return nil, domain.WrapError(domain.ErrDecodeFailed, "open pdf", errors.New("document has no pages"))
	}
	if total > d.maxPages {
		d.logger.Warn("page_cap_applied", "filename", filename, "pages", total, "cap", d.maxPages)
		total = d.maxPages
	}

	doc := &domain.Document{
		Filename: filename,
		Pages:    make([]domain.Page, 0, total),
	}

	var raster *fitz.Document
	defer func() {
		if raster != nil {
			raster.Close()
		}
	}()

	for num := 1; num <= total; num++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.WrapError(domain.ErrDecodeFailed, "decode pages", err)
		}

		page := domain.Page{Number: num}

		words, err := extractWords(reader, num)
		if err != nil {
			d.logger.Warn("page_text_layer_failed", "filename", filename, "page", num, "error", err)
		}
		if containsBinaryGarbage(words) {
			d.logger.Warn("page_text_layer_garbage", "filename", filename, "page", num)
			words = nil
		}
		page.Words = words

		if len(words) < d.minWords {
			if raster == nil {
				raster, err = fitz.NewFromMemory(data)
				if err != nil {
					d.logger.Warn("rasterizer_unavailable", "filename", filename, "error", err)
					raster = nil
				}
			}
			if raster != nil {
				img, err := raster.Image(num - 1)
				if err != nil {
					d.logger.Warn("page_rasterize_failed", "filename", filename, "page", num, "error", err)
				} else {
					page.Image = img
				}
			}
		}

		doc.Pages = append(doc.Pages, page)
	}

	return doc, nil
}

func validate(filename string, data []byte) error {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && ext != ".pdf" {
		return domain.WrapError(domain.ErrDecodeFailed, "validate upload",
			fmt.Errorf("unsupported file type %q, only PDF is supported", ext))
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return domain.WrapError(domain.ErrDecodeFailed, "validate upload",
			errors.New("missing PDF signature"))
	}
	return nil
}

// openReader isolates the ledongthuc/pdf parser, which panics on some
// malformed cross-reference tables.
func openReader(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// extractWords merges the page's raw text runs into positioned words with
// top-down Y coordinates.
func extractWords(reader *pdf.Reader, num int) (words []domain.Word, err error) {
	defer func() {
		if r := recover(); r != nil {
			words = nil
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return nil, nil
	}

	height := pageHeight(page)
	texts := page.Content().Text
	return mergeRuns(texts, height), nil
}

func pageHeight(page pdf.Page) float64 {
	mediaBox := page.V.Key("MediaBox")
	if mediaBox.IsNull() || mediaBox.Len() < 4 {
		return defaultPageHeight
	}
	height := mediaBox.Index(3).Float64() - mediaBox.Index(1).Float64()
	if height <= 0 {
		return defaultPageHeight
	}
	return height
}

// mergeRuns joins adjacent text runs on the same baseline into words. Runs
// are frequently single glyphs; a run starts a new word when it sits on a
// different baseline or beyond a font-size-relative gap.
func mergeRuns(texts []pdf.Text, height float64) []domain.Word {
	var words []domain.Word

	var sb strings.Builder
	var x0, x1, y, size float64

	flush := func() {
		text := strings.TrimSpace(sb.String())
		if text != "" {
			words = append(words, domain.Word{Text: text, X: x0, EndX: x1, Y: height - y})
		}
		sb.Reset()
	}

	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			flush()
			continue
		}
		if sb.Len() > 0 {
			maxGap := 0.25 * size
			if maxGap < 1 {
				maxGap = 1
			}
			gap := t.X - x1
			if math.Abs(t.Y-y) <= 0.5 && gap >= -2 && gap <= maxGap {
				sb.WriteString(t.S)
				if end := t.X + t.W; end > x1 {
					x1 = end
				}
				continue
			}
			flush()
		}
		sb.WriteString(t.S)
		x0 = t.X
		x1 = t.X + t.W
		y = t.Y
		size = t.FontSize
	}
	flush()

	return words
}

func containsBinaryGarbage(words []domain.Word) bool {
	for _, w := range words {
		for _, r := range w.Text {
			if r == '\n' || r == '\t' || r == '\r' {
				continue
			}
			if r < 0x20 || (r >= 0x7f && r <= 0x9f) || r == 0xfffd {
				return true
			}
		}
	}
	return false
}
