package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"go-imaging-assistant/internal/analyzer"
	apperrors "go-imaging-assistant/internal/errors"
	"go-imaging-assistant/internal/imageio"
	"go-imaging-assistant/internal/observer"
	"go-imaging-assistant/internal/report"
	"go-imaging-assistant/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeGrayPNG(t *testing.T, width, height int, value uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = value
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeRGBPNG(t *testing.T, width, height int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type recordingObserver struct {
	mu     sync.Mutex
	events []observer.ReportEvent
}

func (r *recordingObserver) OnEvent(ctx context.Context, event observer.ReportEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) GetObserverName() string { return "recorder" }

func (r *recordingObserver) Types() []observer.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]observer.EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType)
	}
	return types
}

func (r *recordingObserver) Last() observer.ReportEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type fakeArchive struct {
	mu     sync.Mutex
	stored []storage.ArchivedUpload
	err    error
}

func (f *fakeArchive) Store(ctx context.Context, upload storage.ArchivedUpload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, upload)
	return nil
}

func (f *fakeArchive) Name() string { return "fake" }

type countingDecoder struct {
	inner imageio.Decoder
	mu    sync.Mutex
	calls int
}

func (c *countingDecoder) Decode(ctx context.Context, data []byte) (analyzer.DecodedImage, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Decode(ctx, data)
}

func (c *countingDecoder) Format(data []byte) string { return c.inner.Format(data) }

func newTestService(t *testing.T, deps Dependencies, opts Options) (ReportService, *recordingObserver) {
	t.Helper()
	rec := &recordingObserver{}
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(rec)
	deps.Events = publisher

	svc, err := NewReportService(deps, opts)
	require.NoError(t, err)
	return svc, rec
}

func TestGenerateReport_GrayScenario(t *testing.T) {
	svc, rec := newTestService(t, Dependencies{}, Options{})

	resp, err := svc.GenerateReport(context.Background(), Upload{
		RequestID: "req-1",
		Filename:  "xray.png",
		Data:      encodeGrayPNG(t, 512, 512, 128),
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "xray.png", resp.Filename)
	assert.Equal(t, "512x512", resp.Report.ImageInfo.Resolution)
	assert.Equal(t, "Adequate", resp.Report.ImageQuality.Assessment)
	assert.Equal(t, analyzer.NoteGrayscale, resp.Report.ImageQuality.Details[1])
	assert.Equal(t, analyzer.ObservationModerate, resp.Report.Observations.Findings[0])
	assert.Equal(t, report.Disclaimer, resp.Report.Disclaimer)
	assert.Empty(t, resp.ImagePreview)

	assert.Equal(t, []observer.EventType{
		observer.ReportStarted,
		observer.ImageDecoded,
		observer.ReportCompleted,
	}, rec.Types())

	completed := rec.Last()
	assert.True(t, completed.Success)
	assert.Equal(t, "req-1", completed.RequestID)
	assert.Equal(t, "Adequate", completed.Metadata[observer.MetaAssessment])
	assert.Equal(t, 128.0, completed.Metadata[observer.MetaMeanBrightness])
}

func TestGenerateReport_BlackColorScenario(t *testing.T) {
	svc, _ := newTestService(t, Dependencies{}, Options{})

	resp, err := svc.GenerateReport(context.Background(), Upload{
		Filename: "tall.png",
		Data:     encodeRGBPNG(t, 256, 1024, color.RGBA{0, 0, 0, 255}),
	})
	require.NoError(t, err)

	assert.Equal(t, "Limited", resp.Report.ImageQuality.Assessment)
	assert.Equal(t, []string{
		analyzer.NoteLowResolution,
		analyzer.NoteColor,
		analyzer.NoteNonStandardAspect,
	}, resp.Report.ImageQuality.Details)
	assert.Equal(t, analyzer.ObservationDark, resp.Report.Observations.Findings[0])
}

func TestGenerateReport_ValidationErrors(t *testing.T) {
	svc, rec := newTestService(t, Dependencies{}, Options{})

	tests := []struct {
		name   string
		upload Upload
	}{
		{"no filename", Upload{Filename: "", Data: []byte{1}}},
		{"bad extension", Upload{Filename: "notes.pdf", Data: []byte{1}}},
		{"empty data", Upload{Filename: "scan.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GenerateReport(context.Background(), tt.upload)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
			assert.Equal(t, observer.ImageRejected, rec.Last().EventType)
		})
	}
}

func TestGenerateReport_UndecodableImage(t *testing.T) {
	svc, rec := newTestService(t, Dependencies{}, Options{})

	_, err := svc.GenerateReport(context.Background(), Upload{Filename: "fake.png", Data: []byte("not a png")})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidImage))
	assert.Equal(t, 400, apperrors.GetStatusCode(err))

	last := rec.Last()
	assert.Equal(t, observer.ImageRejected, last.EventType)
	assert.False(t, last.Success)
	assert.Equal(t, "invalid_image", last.Metadata[observer.MetaErrorType])
}

type panickingAssessor struct{}

func (panickingAssessor) Assess(analyzer.DecodedImage) (analyzer.QualityResult, error) {
	panic("index out of range")
}

func TestGenerateReport_PanicBecomesProcessingError(t *testing.T) {
	pipeline := report.NewPipelineWith(panickingAssessor{}, analyzer.NewPatternObserver(), report.NewComposer())
	svc, rec := newTestService(t, Dependencies{Pipeline: pipeline}, Options{})

	_, err := svc.GenerateReport(context.Background(), Upload{Filename: "a.png", Data: encodeGrayPNG(t, 4, 4, 0)})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProcessing))
	assert.Equal(t, 500, apperrors.GetStatusCode(err))
	assert.Equal(t, observer.ReportFailed, rec.Last().EventType)
}

type plainErrorAssessor struct{}

func (plainErrorAssessor) Assess(analyzer.DecodedImage) (analyzer.QualityResult, error) {
	return analyzer.QualityResult{}, errors.New("unexpected")
}

func TestGenerateReport_PlainErrorBecomesProcessingError(t *testing.T) {
	pipeline := report.NewPipelineWith(plainErrorAssessor{}, analyzer.NewPatternObserver(), report.NewComposer())
	svc, _ := newTestService(t, Dependencies{Pipeline: pipeline}, Options{})

	_, err := svc.GenerateReport(context.Background(), Upload{Filename: "a.png", Data: encodeGrayPNG(t, 4, 4, 0)})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProcessing))
}

func TestGenerateReport_CacheHit(t *testing.T) {
	decoder := &countingDecoder{inner: defaultDecoder()}
	svc, rec := newTestService(t, Dependencies{Decoder: decoder}, Options{CacheSize: 4})
	data := encodeGrayPNG(t, 32, 32, 10)

	first, err := svc.GenerateReport(context.Background(), Upload{Filename: "a.png", Data: data})
	require.NoError(t, err)

	// Mutating a returned response must not leak into the cache
	first.Report.Observations.Findings[0] = "changed"

	second, err := svc.GenerateReport(context.Background(), Upload{Filename: "a.png", Data: data})
	require.NoError(t, err)

	assert.Equal(t, 1, decoder.calls)
	assert.Equal(t, analyzer.ObservationDark, second.Report.Observations.Findings[0])
	assert.Equal(t, observer.ReportCacheHit, rec.Last().EventType)

	// Same bytes under another name is a different report
	third, err := svc.GenerateReport(context.Background(), Upload{Filename: "b.png", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "b.png", third.Report.ImageInfo.Filename)
	assert.Equal(t, 2, decoder.calls)
}

func TestGenerateReport_CacheDisabled(t *testing.T) {
	decoder := &countingDecoder{inner: defaultDecoder()}
	svc, _ := newTestService(t, Dependencies{Decoder: decoder}, Options{CacheSize: 0})
	data := encodeGrayPNG(t, 8, 8, 10)

	for i := 0; i < 3; i++ {
		_, err := svc.GenerateReport(context.Background(), Upload{Filename: "a.png", Data: data})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, decoder.calls)
}

func TestGenerateReport_Preview(t *testing.T) {
	svc, _ := newTestService(t, Dependencies{}, Options{PreviewEnabled: true, PreviewMaxChars: 100})

	resp, err := svc.GenerateReport(context.Background(), Upload{Filename: "a.png", Data: encodeGrayPNG(t, 300, 300, 200)})
	require.NoError(t, err)
	assert.Len(t, resp.ImagePreview, 103)
	assert.True(t, strings.HasSuffix(resp.ImagePreview, "..."))
}

func TestGenerateReport_Archive(t *testing.T) {
	archive := &fakeArchive{}
	svc, rec := newTestService(t, Dependencies{Archive: archive}, Options{})
	data := encodeGrayPNG(t, 16, 16, 50)

	_, err := svc.GenerateReport(context.Background(), Upload{RequestID: "req-9", Filename: "a.png", Data: data})
	require.NoError(t, err)

	require.Len(t, archive.stored, 1)
	stored := archive.stored[0]
	assert.Equal(t, "req-9", stored.RequestID)
	assert.Equal(t, data, stored.Data)
	assert.Contains(t, string(stored.Report), `"section_1_image_quality"`)
	assert.Contains(t, rec.Types(), observer.UploadArchived)
}

func TestGenerateReport_ArchiveFailureDoesNotFailRequest(t *testing.T) {
	archive := &fakeArchive{err: apperrors.NewStorageError("failed to archive upload", errors.New("down"))}
	svc, rec := newTestService(t, Dependencies{Archive: archive}, Options{})

	resp, err := svc.GenerateReport(context.Background(), Upload{Filename: "a.png", Data: encodeGrayPNG(t, 16, 16, 50)})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, rec.Types(), observer.ArchiveFailed)
	assert.Equal(t, observer.ReportCompleted, rec.Last().EventType)
}

func TestCacheKey(t *testing.T) {
	a := cacheKey(Upload{Filename: "a.png", Data: []byte{1, 2}})
	b := cacheKey(Upload{Filename: "a.png", Data: []byte{1, 2}})
	c := cacheKey(Upload{Filename: "b.png", Data: []byte{1, 2}})
	d := cacheKey(Upload{Filename: "a.png", Data: []byte{1, 3}})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Len(t, a, 64)
}

func defaultDecoder() imageio.Decoder {
	return imageio.NewDecoder()
}
