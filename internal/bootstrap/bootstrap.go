// Package bootstrap wires the extraction service together: decoder,
// detection strategies, progress hub, session store, renderers, and the
// HTTP surface.
package bootstrap

import (
	"context"
	"log/slog"
	"net/http"

	httpadapter "github.com/rcoppens/tableminer/internal/adapters/http"
	"github.com/rcoppens/tableminer/internal/config"
	"github.com/rcoppens/tableminer/internal/core/ports"
	"github.com/rcoppens/tableminer/internal/core/usecase"
	"github.com/rcoppens/tableminer/internal/infrastructure/broadcast"
	"github.com/rcoppens/tableminer/internal/infrastructure/broadcast/natsrelay"
	"github.com/rcoppens/tableminer/internal/infrastructure/decoder/pdfdoc"
	"github.com/rcoppens/tableminer/internal/infrastructure/detector/layout"
	"github.com/rcoppens/tableminer/internal/infrastructure/detector/ocr"
	"github.com/rcoppens/tableminer/internal/infrastructure/render"
	"github.com/rcoppens/tableminer/internal/infrastructure/resilience"
	"github.com/rcoppens/tableminer/internal/infrastructure/session"
	"github.com/rcoppens/tableminer/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Handler http.Handler

	ExtractUC ports.TableExtractor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	metricsService := metrics.New("tableminer-api")
	hub := broadcast.NewHub(cfg.BroadcastBuffer, broadcast.WithDropCounter(metricsService.RecordDroppedEvent))
	store := session.NewStore()
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	decoder := pdfdoc.NewDecoder(cfg.MaxPages, cfg.TextLayerMinWords, logger)

	layoutCfg := layout.DefaultConfig()
	layoutCfg.MinRows = cfg.MinTableRows
	layoutCfg.MinCols = cfg.MinTableCols
	detectors := []ports.TableDetector{
		layout.NewDetector(layoutCfg, cfg.TextLayerMinWords),
	}

	var tesseract *ocr.TesseractClient
	if cfg.OCREnabled {
		client, err := ocr.NewTesseractClient(cfg.OCRLanguage)
		if err != nil {
			logger.Warn("ocr_unavailable", "language", cfg.OCRLanguage, "error", err)
		} else {
			tesseract = client
			detectors = append(detectors, ocr.NewDetector(
				client,
				executor,
				cfg.TextLayerMinWords,
				ocr.WithFallbackHook(metricsService.RecordOCRFallback),
				ocr.WithLogger(logger),
			))
		}
	}

	extractUC := usecase.NewExtractTablesUseCase(
		decoder,
		detectors,
		hub,
		store,
		render.NewHTMLRenderer(),
		logger,
	)

	var relay *natsrelay.Relay
	if cfg.NATSURL != "" {
		r, err := natsrelay.New(cfg.NATSURL, cfg.NATSSubject, natsrelay.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			logger.Warn("nats_relay_disabled", "url", cfg.NATSURL, "error", err)
		} else {
			relay = r
			go relay.Run(ctx, hub)
		}
	}

	router := httpadapter.NewRouter(
		extractUC,
		store,
		hub,
		render.NewXLSXRenderer(),
		metricsService,
		cfg,
		logger,
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Handler:   router.Handler(),
		ExtractUC: extractUC,

		closeFn: func() {
			if relay != nil {
				relay.Close()
			}
			if tesseract != nil {
				_ = tesseract.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
