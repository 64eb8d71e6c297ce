package factory

import (
	"context"
	"fmt"

	"go-imaging-assistant/internal/analyzer"
	"go-imaging-assistant/internal/config"
	"go-imaging-assistant/internal/report"
	"go-imaging-assistant/internal/storage"
)

// ArchiveType represents different archive backends
type ArchiveType string

const (
	// NoArchive keeps nothing
	NoArchive ArchiveType = config.ArchiveNone
	// AzureArchive for Azure blob storage
	AzureArchive ArchiveType = config.ArchiveAzure
	// MinIOArchive for S3-compatible object storage
	MinIOArchive ArchiveType = config.ArchiveMinIO
)

// ArchiveFactory creates archive implementations
type ArchiveFactory interface {
	CreateArchive(ctx context.Context, archiveType ArchiveType) (storage.Archive, error)
}

// PipelineFactory creates report pipelines
type PipelineFactory interface {
	CreatePipeline() *report.Pipeline
}

// archiveFactory implements ArchiveFactory
type archiveFactory struct {
	cfg config.ArchiveConfig
}

// NewArchiveFactory creates a new archive factory
func NewArchiveFactory(cfg config.ArchiveConfig) ArchiveFactory {
	return &archiveFactory{cfg: cfg}
}

// CreateArchive creates an archive based on the specified type
func (f *archiveFactory) CreateArchive(ctx context.Context, archiveType ArchiveType) (storage.Archive, error) {
	switch archiveType {
	case NoArchive, "":
		return storage.NewNoopArchive(), nil
	case AzureArchive:
		azure := f.cfg.Azure
		return storage.NewAzureArchive(ctx, azure.AccountName, azure.AccountKey, azure.Container)
	case MinIOArchive:
		m := f.cfg.MinIO
		return storage.NewMinIOArchive(ctx, m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL)
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", archiveType)
	}
}

// pipelineFactory implements PipelineFactory
type pipelineFactory struct {
	thresholds analyzer.Thresholds
}

// NewPipelineFactory creates a pipeline factory using the given thresholds
func NewPipelineFactory(thresholds analyzer.Thresholds) PipelineFactory {
	return &pipelineFactory{thresholds: thresholds}
}

// CreatePipeline creates a pipeline whose components share the thresholds
func (f *pipelineFactory) CreatePipeline() *report.Pipeline {
	return report.NewPipelineWithThresholds(f.thresholds)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	ArchiveFactory  ArchiveFactory
	PipelineFactory PipelineFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		ArchiveFactory:  NewArchiveFactory(cfg.Archive),
		PipelineFactory: NewPipelineFactory(analyzer.DefaultThresholds()),
	}
}
