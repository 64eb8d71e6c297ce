package container

import (
	"context"
	"fmt"
	"net/http"

	"go-imaging-assistant/internal/config"
	"go-imaging-assistant/internal/factory"
	"go-imaging-assistant/internal/imageio"
	"go-imaging-assistant/internal/logger"
	"go-imaging-assistant/internal/observer"
	"go-imaging-assistant/internal/service"
	"go-imaging-assistant/internal/storage"
	"go-imaging-assistant/internal/transport"
	"go-imaging-assistant/pkg/validation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serverName = "imaging-assistant"

// Container holds all application dependencies
type Container struct {
	config        *config.Config
	registry      *prometheus.Registry
	archive       storage.Archive
	events        *observer.EventPublisher
	reportService service.ReportService
	handler       http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := observer.NewMetricsObserver(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	// Build dependency graph
	components := factory.NewComponentFactory(cfg)
	archive, err := components.ArchiveFactory.CreateArchive(ctx, factory.ArchiveType(cfg.Archive.Backend))
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	reportService, err := service.NewReportService(service.Dependencies{
		Validator: validation.NewUploadValidatorWithExtensions(cfg.AllowedExtensions),
		Decoder:   imageio.NewDecoderWithLimit(cfg.MaxImagePixels),
		Pipeline:  components.PipelineFactory.CreatePipeline(),
		Archive:   archive,
		Events:    events,
	}, service.Options{
		PreviewEnabled:  cfg.PreviewEnabled,
		PreviewMaxChars: cfg.PreviewMaxChars,
		CacheSize:       cfg.ReportCacheSize,
	})
	if err != nil {
		return nil, err
	}

	engine := transport.NewHandler(reportService, cfg, registry)

	logger.WithField("archive", archive.Name()).Info("Container initialised")

	return &Container{
		config:        cfg,
		registry:      registry,
		archive:       archive,
		events:        events,
		reportService: reportService,
		handler:       otelhttp.NewHandler(engine, serverName),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Registry returns the prometheus registry backing /metrics
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}
