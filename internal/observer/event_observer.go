package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ReportEvent represents one step in handling an upload
type ReportEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id,omitempty"`
	Filename       string                 `json:"filename"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of report event
type EventType string

const (
	// ReportStarted when a validated upload enters the service
	ReportStarted EventType = "report_started"
	// ImageDecoded when the upload decoded into a raster
	ImageDecoded EventType = "image_decoded"
	// ImageRejected when the upload is not an analysable image
	ImageRejected EventType = "image_rejected"
	// ReportCompleted when a report was produced
	ReportCompleted EventType = "report_completed"
	// ReportFailed when the pipeline failed
	ReportFailed EventType = "report_failed"
	// ReportCacheHit when a cached report was served
	ReportCacheHit EventType = "report_cache_hit"
	// UploadArchived when the upload was copied to the archive
	UploadArchived EventType = "upload_archived"
	// ArchiveFailed when archiving failed; the request still succeeds
	ArchiveFailed EventType = "archive_failed"
)

// Metadata keys understood by the built-in observers
const (
	MetaAssessment     = "assessment"
	MetaMeanBrightness = "mean_brightness"
	MetaResolution     = "resolution"
	MetaColorMode      = "color_mode"
	MetaFormat         = "format"
	MetaErrorType      = "error_type"
	MetaArchiveKey     = "archive_key"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event ReportEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event ReportEvent)
}

// LoggingObserver logs report events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles report events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ReportEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"filename":        event.Filename,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case ReportStarted:
		entry.Info("Report generation started")
	case ReportCompleted:
		entry.Info("Report generation completed")
	case ReportCacheHit:
		entry.Info("Report served from cache")
	case ReportFailed:
		entry.Error("Report generation failed")
	case ImageDecoded:
		entry.Debug("Image decoded successfully")
	case ImageRejected:
		entry.Warn("Image rejected")
	case UploadArchived:
		entry.Debug("Upload archived")
	case ArchiveFailed:
		entry.Warn("Upload archiving failed")
	default:
		entry.Info("Report event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to all observers concurrently and returns
// once every observer has handled it. A panicking observer is logged and
// does not affect the others.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event ReportEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	var wg sync.WaitGroup
	for _, observer := range observers {
		wg.Add(1)
		go func(obs Observer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
	wg.Wait()
}
