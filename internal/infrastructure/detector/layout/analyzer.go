// Package layout detects tabular regions from the geometry of positioned
// words: words are grouped into lines, lines into cells, and cell origins
// are binned into columns. Coordinates are PDF points; the OCR strategy
// normalizes its pixel boxes into point space before calling in here.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

type Config struct {
	// Minimum dimensions for a region to count as a table.
	MinRows int
	MinCols int

	// Words within this vertical distance belong to the same line.
	LineTolerance float64

	// Horizontal gap between words above which a new cell starts.
	CellGap float64

	// Cell origins within this distance collapse into one column bin.
	ColumnTolerance float64

	// Vertical gap between lines above which a new region starts.
	RegionGap float64
}

// DefaultConfig returns tolerances in PDF points, tuned for text-layer
// coordinates.
func DefaultConfig() Config {
	return Config{
		MinRows:         2,
		MinCols:         2,
		LineTolerance:   5,
		CellGap:         12,
		ColumnTolerance: 6,
		RegionGap:       50,
	}
}

type cell struct {
	text string
	x0   float64
	x1   float64
}

type line struct {
	y     float64
	cells []cell
}

type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.MinRows < 1 {
		cfg.MinRows = 1
	}
	if cfg.MinCols < 1 {
		cfg.MinCols = 1
	}
	return &Analyzer{cfg: cfg}
}

// Tables finds tabular regions among the page's words. Deterministic for
// identical input; returns nil when the page has no table-shaped regions.
func (a *Analyzer) Tables(words []domain.Word, pageNumber int) []domain.RawTable {
	if len(words) == 0 {
		return nil
	}

	lines := a.groupLines(words)

	var tables []domain.RawTable
	var region []line

	flush := func() {
		if len(region) >= a.cfg.MinRows {
			if grid := a.buildGrid(region); grid != nil {
				tables = append(tables, domain.RawTable{Page: pageNumber, Cells: grid})
			}
		}
		region = nil
	}

	for _, ln := range lines {
		tabular := len(ln.cells) >= a.cfg.MinCols
		contiguous := len(region) == 0 || ln.y-region[len(region)-1].y <= a.cfg.RegionGap

		if !tabular || !contiguous {
			flush()
		}
		if tabular {
			region = append(region, ln)
		}
	}
	flush()

	return tables
}

// groupLines clusters words by vertical proximity, top of the page first,
// then splits each line into cells on horizontal gaps.
func (a *Analyzer) groupLines(words []domain.Word) []line {
	sorted := make([]domain.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y < sorted[j].Y
	})

	var groups [][]domain.Word
	current := []domain.Word{sorted[0]}
	anchorY := sorted[0].Y

	for _, w := range sorted[1:] {
		if math.Abs(w.Y-anchorY) <= a.cfg.LineTolerance {
			current = append(current, w)
			continue
		}
		groups = append(groups, current)
		current = []domain.Word{w}
		anchorY = w.Y
	}
	groups = append(groups, current)

	lines := make([]line, 0, len(groups))
	for _, group := range groups {
		lines = append(lines, line{y: group[0].Y, cells: a.splitCells(group)})
	}
	return lines
}

func (a *Analyzer) splitCells(group []domain.Word) []cell {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].X < group[j].X
	})

	cells := []cell{{text: group[0].Text, x0: group[0].X, x1: group[0].EndX}}
	for _, w := range group[1:] {
		last := &cells[len(cells)-1]
		if w.X-last.x1 <= a.cfg.CellGap {
			last.text += " " + w.Text
			if w.EndX > last.x1 {
				last.x1 = w.EndX
			}
			continue
		}
		cells = append(cells, cell{text: w.Text, x0: w.X, x1: w.EndX})
	}
	return cells
}

// buildGrid bins cell origins into columns and lays the region's cells out
// as a rectangular string matrix. Returns nil when the region does not
// resolve to enough columns.
func (a *Analyzer) buildGrid(region []line) [][]string {
	var origins []float64
	for _, ln := range region {
		for _, c := range ln.cells {
			origins = append(origins, c.x0)
		}
	}

	bins := clusterValues(origins, a.cfg.ColumnTolerance)
	if len(bins) < a.cfg.MinCols {
		return nil
	}

	grid := make([][]string, len(region))
	for i, ln := range region {
		grid[i] = make([]string, len(bins))
		for _, c := range ln.cells {
			col := nearestBin(bins, c.x0)
			if grid[i][col] == "" {
				grid[i][col] = strings.TrimSpace(c.text)
			} else {
				grid[i][col] += " " + strings.TrimSpace(c.text)
			}
		}
	}
	return grid
}

// clusterValues groups sorted values whose neighbors are within tolerance
// and returns the mean of each group.
func clusterValues(values []float64, tolerance float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var bins []float64
	groupStart := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i]-sorted[i-1] <= tolerance {
			continue
		}
		sum := 0.0
		for _, v := range sorted[groupStart:i] {
			sum += v
		}
		bins = append(bins, sum/float64(i-groupStart))
		groupStart = i
	}
	return bins
}

func nearestBin(bins []float64, value float64) int {
	best := 0
	bestDist := math.Abs(bins[0] - value)
	for i, b := range bins[1:] {
		if d := math.Abs(b - value); d < bestDist {
			best = i + 1
			bestDist = d
		}
	}
	return best
}
