package layout

import (
	"context"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

// Detector is the vector-layout strategy: it runs the geometric analyzer on
// the page's extracted text layer.
type Detector struct {
	analyzer *Analyzer
	minWords int
}

func NewDetector(cfg Config, minWords int) *Detector {
	if minWords <= 0 {
		minWords = 10
	}
	return &Detector{
		analyzer: NewAnalyzer(cfg),
		minWords: minWords,
	}
}

func (d *Detector) Name() string {
	return "layout"
}

// Applies reports whether the page carries a usable text layer.
func (d *Detector) Applies(page domain.Page) bool {
	return page.HasTextLayer(d.minWords)
}

func (d *Detector) Detect(_ context.Context, page domain.Page) ([]domain.RawTable, error) {
	return d.analyzer.Tables(page.Words, page.Number), nil
}
