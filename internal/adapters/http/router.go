package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rcoppens/tableminer/internal/config"
	"github.com/rcoppens/tableminer/internal/core/domain"
	"github.com/rcoppens/tableminer/internal/core/ports"
	"github.com/rcoppens/tableminer/internal/observability/metrics"
)

const serviceName = "tableminer-api"

type Router struct {
	extractor ports.TableExtractor
	reader    ports.TableReader
	progress  ports.ProgressBroadcaster
	sheets    ports.SpreadsheetRenderer
	metrics   *metrics.Service
	cfg       config.Config
	logger    *slog.Logger
}

func NewRouter(
	extractor ports.TableExtractor,
	reader ports.TableReader,
	progress ports.ProgressBroadcaster,
	sheets ports.SpreadsheetRenderer,
	metricsService *metrics.Service,
	cfg config.Config,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		extractor: extractor,
		reader:    reader,
		progress:  progress,
		sheets:    sheets,
		metrics:   metricsService,
		cfg:       cfg,
		logger:    logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", rt.index)
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/extractions", rt.createExtraction)
	mux.HandleFunc("/v1/extractions/current", rt.currentExtraction)
	mux.HandleFunc("/v1/tables/", rt.exportTable)
	mux.HandleFunc("/v1/progress", rt.streamProgress)

	handler := rt.metrics.Middleware(serviceName, mux)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createExtraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	file, fileHeader, err := r.FormFile("document")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload exceeds size limit"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'document' is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload exceeds size limit"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read upload"})
		return
	}

	start := time.Now()
	result, err := rt.extractor.Extract(r.Context(), fileHeader.Filename, data)
	if err != nil {
		rt.metrics.RecordExtraction(serviceName, time.Since(start), 0, 0, err)
		rt.logger.Error("extraction_failed",
			"request_id", requestIDFromContext(r.Context()),
			"filename", fileHeader.Filename,
			"error", err,
		)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	rt.metrics.RecordExtraction(serviceName, time.Since(start), result.Pages, len(result.Tables), nil)

	writeJSON(w, http.StatusOK, extractionViewOf(result))
}

func (rt *Router) currentExtraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	result := rt.reader.Current()
	if result == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no extraction result available"})
		return
	}
	writeJSON(w, http.StatusOK, extractionViewOf(result))
}

type tableView struct {
	domain.ExtractedTable
	ExportURL string `json:"export_url"`
}

type extractionView struct {
	*domain.ExtractionResult
	Count  int         `json:"count"`
	Tables []tableView `json:"tables"`
}

func extractionViewOf(result *domain.ExtractionResult) extractionView {
	tables := make([]tableView, 0, len(result.Tables))
	for _, table := range result.Tables {
		tables = append(tables, tableView{ExtractedTable: table, ExportURL: exportURL(table.Index)})
	}
	return extractionView{ExtractionResult: result, Count: len(tables), Tables: tables}
}

func exportURL(index int) string {
	return fmt.Sprintf("/v1/tables/%d/export", index)
}

// exportTable serves GET /v1/tables/{index}/export.
func (rt *Router) exportTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/tables/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "export" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	index, err := strconv.Atoi(parts[0])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table index must be an integer"})
		return
	}

	table, err := rt.reader.Get(index)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	data, err := rt.sheets.Spreadsheet(table)
	if err != nil {
		rt.logger.Error("table_export_failed",
			"request_id", requestIDFromContext(r.Context()),
			"index", index,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not build spreadsheet"})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("table_%d.xlsx", index)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
