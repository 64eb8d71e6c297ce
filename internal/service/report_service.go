package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go-imaging-assistant/internal/analyzer"
	apperrors "go-imaging-assistant/internal/errors"
	"go-imaging-assistant/internal/imageio"
	"go-imaging-assistant/internal/logger"
	"go-imaging-assistant/internal/observer"
	"go-imaging-assistant/internal/report"
	"go-imaging-assistant/internal/storage"
	"go-imaging-assistant/internal/telemetry"
	"go-imaging-assistant/pkg/models"
	"go-imaging-assistant/pkg/validation"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const archiveTimeout = 10 * time.Second

// Upload is one file received from a client
type Upload struct {
	RequestID string
	Filename  string
	Data      []byte
}

// ReportService turns uploads into reports
type ReportService interface {
	GenerateReport(ctx context.Context, upload Upload) (*models.UploadResponse, error)
}

// Options tunes the optional parts of the service
type Options struct {
	PreviewEnabled  bool
	PreviewMaxChars int
	CacheSize       int
}

// Dependencies are the collaborators of the report service
type Dependencies struct {
	Validator *validation.UploadValidator
	Decoder   imageio.Decoder
	Pipeline  *report.Pipeline
	Archive   storage.Archive
	Events    observer.Subject
}

type reportService struct {
	validator *validation.UploadValidator
	decoder   imageio.Decoder
	pipeline  *report.Pipeline
	archive   storage.Archive
	events    observer.Subject
	cache     *lru.Cache[string, models.UploadResponse]
	opts      Options
	tracer    trace.Tracer
	now       func() time.Time
}

// NewReportService creates a report service. Missing dependencies get
// defaults: the standard validator, decoder and pipeline, no archive and an
// event publisher without observers.
func NewReportService(deps Dependencies, opts Options) (ReportService, error) {
	s := &reportService{
		validator: deps.Validator,
		decoder:   deps.Decoder,
		pipeline:  deps.Pipeline,
		archive:   deps.Archive,
		events:    deps.Events,
		opts:      opts,
		tracer:    telemetry.Tracer(),
		now:       time.Now,
	}
	if s.validator == nil {
		s.validator = validation.NewUploadValidator()
	}
	if s.decoder == nil {
		s.decoder = imageio.NewDecoder()
	}
	if s.pipeline == nil {
		s.pipeline = report.NewPipeline()
	}
	if s.archive == nil {
		s.archive = storage.NewNoopArchive()
	}
	if s.events == nil {
		s.events = observer.NewEventPublisher()
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[string, models.UploadResponse](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create report cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// GenerateReport validates, decodes and analyses one upload. Identical uploads
// are served from the cache. Archiving is best effort and never fails the
// request.
func (s *reportService) GenerateReport(ctx context.Context, upload Upload) (*models.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ReportService.GenerateReport", trace.WithAttributes(
		attribute.String("upload.filename", upload.Filename),
		attribute.Int("upload.size_bytes", len(upload.Data)),
	))
	defer span.End()

	start := s.now()
	base := observer.ReportEvent{RequestID: upload.RequestID, Filename: upload.Filename}

	if err := s.validator.ValidateUpload(upload.Filename, upload.Data); err != nil {
		return nil, s.fail(ctx, span, observer.ImageRejected, base, start, err)
	}

	s.publish(ctx, observer.ReportStarted, base, start, nil)

	key := cacheKey(upload)
	if cached, ok := s.lookup(key); ok {
		span.SetAttributes(attribute.Bool("report.cache_hit", true))
		s.publish(ctx, observer.ReportCacheHit, base, start, nil)
		return cached, nil
	}

	decoded, err := s.decoder.Decode(ctx, upload.Data)
	if err != nil {
		return nil, s.fail(ctx, span, observer.ImageRejected, base, start, err)
	}
	s.publish(ctx, observer.ImageDecoded, base, start, map[string]interface{}{
		observer.MetaResolution: fmt.Sprintf("%dx%d", decoded.Width, decoded.Height),
		observer.MetaColorMode:  decoded.Mode.Label,
		observer.MetaFormat:     s.decoder.Format(upload.Data),
	})

	result, err := s.runPipeline(ctx, decoded, upload.Filename)
	if err != nil {
		return nil, s.fail(ctx, span, observer.ReportFailed, base, start, err)
	}

	response := models.UploadResponse{
		Success:  true,
		Filename: upload.Filename,
		Report:   result.Report,
	}
	if s.opts.PreviewEnabled {
		preview, err := imageio.Preview(decoded.Raster, s.opts.PreviewMaxChars)
		if err != nil {
			logger.WithError(err).WithField("filename", upload.Filename).Warn("Failed to render preview")
		} else {
			response.ImagePreview = preview
		}
	}

	if s.cache != nil {
		s.cache.Add(key, cloneResponse(response))
	}

	s.archiveUpload(ctx, upload, result.Report, start, base)

	span.SetAttributes(
		attribute.String("report.assessment", string(result.Quality.Assessment)),
		attribute.Float64("report.mean_brightness", result.Brightness.Mean),
	)
	s.publish(ctx, observer.ReportCompleted, base, start, map[string]interface{}{
		observer.MetaAssessment:     string(result.Quality.Assessment),
		observer.MetaMeanBrightness: result.Brightness.Mean,
		observer.MetaResolution:     result.Quality.Resolution,
	})

	return &response, nil
}

// runPipeline converts a panic inside the analysis into a processing error
func (s *reportService) runPipeline(ctx context.Context, img analyzer.DecodedImage, filename string) (result report.Result, err error) {
	_, span := s.tracer.Start(ctx, "report.Pipeline.Run")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewProcessingError("image analysis failed", fmt.Errorf("panic: %v", r))
		}
	}()

	result, err = s.pipeline.Run(img, filename)
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.NewProcessingError("image analysis failed", err)
		}
	}
	return result, err
}

func (s *reportService) lookup(key string) (*models.UploadResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	response := cloneResponse(cached)
	return &response, true
}

func (s *reportService) archiveUpload(ctx context.Context, upload Upload, rep models.Report, start time.Time, base observer.ReportEvent) {
	if s.archive.Name() == "none" {
		return
	}

	reportJSON, err := json.Marshal(rep)
	if err != nil {
		s.publish(ctx, observer.ArchiveFailed, base, start, map[string]interface{}{"error": err.Error()})
		return
	}

	entry := storage.NewArchivedUpload(upload.RequestID, upload.Filename, upload.Data, reportJSON, s.now())

	// The client may already be gone; the copy should still land
	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := s.archive.Store(archiveCtx, entry); err != nil {
		event := base
		event.ErrorMessage = err.Error()
		s.publish(ctx, observer.ArchiveFailed, event, start, map[string]interface{}{
			observer.MetaArchiveKey: entry.UploadKey(),
		})
		return
	}
	s.publish(ctx, observer.UploadArchived, base, start, map[string]interface{}{
		observer.MetaArchiveKey: entry.UploadKey(),
	})
}

// fail normalises err to an AppError, records it and publishes eventType
func (s *reportService) fail(ctx context.Context, span trace.Span, eventType observer.EventType, base observer.ReportEvent, start time.Time, err error) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewProcessingError("image analysis failed", err)
	}

	span.RecordError(appErr)
	span.SetStatus(codes.Error, appErr.Message)

	event := base
	event.ErrorMessage = appErr.Error()
	s.publish(ctx, eventType, event, start, map[string]interface{}{
		observer.MetaErrorType: string(appErr.Type),
	})
	return appErr
}

func (s *reportService) publish(ctx context.Context, eventType observer.EventType, event observer.ReportEvent, start time.Time, metadata map[string]interface{}) {
	event.EventType = eventType
	event.Timestamp = s.now().UTC()
	event.ProcessingTime = s.now().Sub(start)
	event.Success = event.ErrorMessage == "" && eventType != observer.ImageRejected && eventType != observer.ReportFailed
	event.Metadata = metadata
	s.events.NotifyObservers(ctx, event)
}

// cacheKey identifies an upload by content and name; the name is part of the
// report so it must be part of the key
func cacheKey(upload Upload) string {
	h := sha256.New()
	h.Write(upload.Data)
	h.Write([]byte{0})
	h.Write([]byte(upload.Filename))
	return hex.EncodeToString(h.Sum(nil))
}

func cloneResponse(in models.UploadResponse) models.UploadResponse {
	out := in
	out.Report.ImageQuality.Details = cloneStrings(in.Report.ImageQuality.Details)
	out.Report.Observations.Findings = cloneStrings(in.Report.Observations.Findings)
	out.Report.Interpretations.Interpretations = cloneStrings(in.Report.Interpretations.Interpretations)
	out.Report.Recommendations.Recommendations = cloneStrings(in.Report.Recommendations.Recommendations)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
