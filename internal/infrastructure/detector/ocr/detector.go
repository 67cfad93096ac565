package ocr

import (
	"context"
	"log/slog"

	"github.com/rcoppens/tableminer/internal/core/domain"
	"github.com/rcoppens/tableminer/internal/infrastructure/detector/layout"
	"github.com/rcoppens/tableminer/internal/infrastructure/resilience"
)

// Page renders come out of the rasterizer at 300 dpi; together with the
// preprocessing upscale this converts recognized pixel boxes back into PDF
// points so the layout analyzer sees the same coordinate space as the
// text-layer strategy.
const renderDPI = 300

// Recognizer is the slice of the Tesseract client the detector needs.
type Recognizer interface {
	WordBoxes(png []byte) ([]Box, error)
}

type Detector struct {
	recognizer Recognizer
	executor   *resilience.Executor
	analyzer   *layout.Analyzer
	minWords   int
	onFallback func()
	logger     *slog.Logger
}

type Option func(*Detector)

// WithFallbackHook registers a callback invoked once per page this strategy
// recognizes.
func WithFallbackHook(fn func()) Option {
	return func(d *Detector) { d.onFallback = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

func NewDetector(recognizer Recognizer, executor *resilience.Executor, minWords int, opts ...Option) *Detector {
	if minWords <= 0 {
		minWords = 10
	}
	d := &Detector{
		recognizer: recognizer,
		executor:   executor,
		analyzer:   layout.NewAnalyzer(layout.DefaultConfig()),
		minWords:   minWords,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Detector) Name() string {
	return "ocr"
}

// Applies reports whether the page lacks a text layer but has a render to
// recognize.
func (d *Detector) Applies(page domain.Page) bool {
	return !page.HasTextLayer(d.minWords) && page.Image != nil
}

func (d *Detector) Detect(ctx context.Context, page domain.Page) ([]domain.RawTable, error) {
	if d.onFallback != nil {
		d.onFallback()
	}

	png, err := preprocess(page.Image)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPageDetection, "preprocess page render", err)
	}

	var boxes []Box
	err = d.executor.Execute(ctx, "ocr.recognize", func(context.Context) error {
		var rerr error
		boxes, rerr = d.recognizer.WordBoxes(png)
		return rerr
	}, classifyOCRError)
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			return nil, domain.WrapError(domain.ErrTemporary, "recognize page", err)
		}
		return nil, domain.WrapError(domain.ErrPageDetection, "recognize page", err)
	}

	d.logger.Debug("ocr_page_recognized", "page", page.Number, "boxes", len(boxes))
	return d.analyzer.Tables(toWords(boxes), page.Number), nil
}

func toWords(boxes []Box) []domain.Word {
	pointsPerPixel := 72.0 / (renderDPI * float64(upscaleFactor))

	words := make([]domain.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, domain.Word{
			Text: b.Text,
			X:    float64(b.X0) * pointsPerPixel,
			EndX: float64(b.X1) * pointsPerPixel,
			Y:    float64(b.Y0) * pointsPerPixel,
		})
	}
	return words
}

// classifyOCRError treats recognition failures as retryable. The engine
// occasionally fails transiently under memory pressure and succeeds on the
// next attempt.
func classifyOCRError(error) resilience.Classification {
	return resilience.Classification{Retryable: true, RecordFailure: true}
}
