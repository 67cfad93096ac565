package ports

import (
	"context"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

// TableExtractor is the inbound contract for running one extraction call.
// Extract is synchronous: it returns the complete ordered result, or an
// error when the document could not be decoded at all.
type TableExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (*domain.ExtractionResult, error)
}

// TableReader is the inbound read model over the current extraction result.
type TableReader interface {
	Get(index int) (domain.ExtractedTable, error)
	Current() *domain.ExtractionResult
}
