package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Report outcomes used as the "outcome" label
const (
	OutcomeSuccess = "success"
	OutcomeCached  = "cached"
	OutcomeError   = "error"
)

// MetricsObserver turns report events into Prometheus metrics
type MetricsObserver struct {
	reportsTotal       *prometheus.CounterVec
	reportDuration     prometheus.Histogram
	meanBrightness     prometheus.Histogram
	qualityAssessments *prometheus.CounterVec
	archiveTotal       *prometheus.CounterVec
}

// NewMetricsObserver creates the collectors and registers them with reg
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	o := &MetricsObserver{
		reportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imaging_reports_total",
				Help: "Total number of report requests by outcome.",
			},
			[]string{"outcome"},
		),
		reportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "imaging_report_duration_seconds",
				Help:    "Time spent decoding and analysing an upload.",
				Buckets: prometheus.DefBuckets,
			},
		),
		meanBrightness: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "imaging_mean_brightness",
				Help:    "Mean 8-bit intensity of analysed images.",
				Buckets: prometheus.LinearBuckets(25, 25, 10),
			},
		),
		qualityAssessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imaging_quality_assessments_total",
				Help: "Quality assessments by tag.",
			},
			[]string{"assessment"},
		),
		archiveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imaging_archive_uploads_total",
				Help: "Archive attempts by result.",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{
		o.reportsTotal,
		o.reportDuration,
		o.meanBrightness,
		o.qualityAssessments,
		o.archiveTotal,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// OnEvent handles report events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event ReportEvent) {
	switch event.EventType {
	case ReportCompleted:
		o.reportsTotal.WithLabelValues(OutcomeSuccess).Inc()
		o.reportDuration.Observe(event.ProcessingTime.Seconds())
		if assessment, ok := event.Metadata[MetaAssessment].(string); ok {
			o.qualityAssessments.WithLabelValues(assessment).Inc()
		}
		if mean, ok := event.Metadata[MetaMeanBrightness].(float64); ok {
			o.meanBrightness.Observe(mean)
		}
	case ReportCacheHit:
		o.reportsTotal.WithLabelValues(OutcomeCached).Inc()
	case ReportFailed, ImageRejected:
		outcome := OutcomeError
		if errorType, ok := event.Metadata[MetaErrorType].(string); ok && errorType != "" {
			outcome = errorType
		}
		o.reportsTotal.WithLabelValues(outcome).Inc()
		o.reportDuration.Observe(event.ProcessingTime.Seconds())
	case UploadArchived:
		o.archiveTotal.WithLabelValues("stored").Inc()
	case ArchiveFailed:
		o.archiveTotal.WithLabelValues("failed").Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}
