package transport

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go-imaging-assistant/internal/config"
	apperrors "go-imaging-assistant/internal/errors"
	"go-imaging-assistant/internal/logger"
	"go-imaging-assistant/internal/report"
	"go-imaging-assistant/internal/service"
	"go-imaging-assistant/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// UploadField is the multipart field carrying the image
const UploadField = "image"

const serviceMessage = "Medical Imaging Assistant API"

// NewHandler builds the gin engine with all routes and middleware
func NewHandler(svc service.ReportService, cfg *config.Config, gatherer prometheus.Gatherer) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		recovery(),
		requestID(),
		requestLogger(),
		cors(cfg.CORSAllowedOrigins),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		requestTimeout(cfg.RequestTimeout),
		errorHandler(),
	)

	// Configure routes
	r.GET("/", serviceInfo(cfg.ServiceVersion))
	r.GET("/health", healthCheck(cfg.ServiceVersion))
	r.POST("/upload", uploadImage(svc))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.NoRoute(func(c *gin.Context) {
		respondError(c, apperrors.NewNotFoundError("Endpoint not found", nil))
	})

	return r
}

func serviceInfo(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.ServiceInfo{
			Message:    serviceMessage,
			Version:    version,
			Disclaimer: report.Disclaimer,
			Endpoints: map[string]string{
				"health":  "GET /health",
				"upload":  "POST /upload",
				"metrics": "GET /metrics",
			},
		})
	}
}

func healthCheck(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Version: version,
			Time:    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func uploadImage(svc service.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString(RequestIDKey)

		header, err := c.FormFile(UploadField)
		if err != nil {
			respondError(c, formFileError(err))
			return
		}
		if header.Filename == "" {
			respondError(c, apperrors.NewValidationError("No file selected", nil))
			return
		}

		data, err := readUpload(header)
		if err != nil {
			respondError(c, formFileError(err))
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"filename":   header.Filename,
			"size_bytes": len(data),
		}).Debug("Upload received")

		resp, err := svc.GenerateReport(c.Request.Context(), service.Upload{
			RequestID: requestID,
			Filename:  header.Filename,
			Data:      data,
		})
		if err != nil {
			respondError(c, contextError(c.Request.Context(), err))
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// formFileError maps multipart parsing failures to client errors
func formFileError(err error) error {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr), strings.Contains(err.Error(), "request body too large"):
		return apperrors.NewPayloadTooLargeError("File too large", err)
	case errors.Is(err, http.ErrMissingFile):
		return apperrors.NewValidationError("No image file provided", err)
	default:
		return apperrors.NewValidationError("Invalid multipart upload", err)
	}
}

// contextError reports an expired request deadline as a timeout, whatever
// the failing layer returned
func contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		return apperrors.NewTimeoutError("Request timed out", err)
	}
	return err
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error payload. The disclaimer is always included;
// causes of server-side failures are logged but not returned.
func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)

	message := ""
	errorText := http.StatusText(code)
	if appErr, ok := apperrors.As(err); ok {
		errorText = appErr.Message
		message = appErr.Details
	}
	if code >= http.StatusInternalServerError {
		message = "An internal error occurred while processing the image"
	}

	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"request_id":  c.GetString(RequestIDKey),
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Success:    false,
		Error:      errorText,
		Message:    message,
		Disclaimer: report.Disclaimer,
	})
}
