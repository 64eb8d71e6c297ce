package storage

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	reportObjectName   = "report.json"
	reportContentType  = "application/json"
	archiveDateLayout  = "2006-01-02"
	fallbackObjectName = "upload"
)

// ArchivedUpload is an accepted upload together with the report produced for it
type ArchivedUpload struct {
	ID          string
	RequestID   string
	Filename    string
	ContentType string
	Data        []byte
	Report      []byte
	ReceivedAt  time.Time
}

// Archive keeps a copy of uploads and their reports. Implementations must be
// safe for concurrent use.
type Archive interface {
	Store(ctx context.Context, upload ArchivedUpload) error
	Name() string
}

// NewArchivedUpload assigns an ID and sniffs the content type
func NewArchivedUpload(requestID, filename string, data, report []byte, receivedAt time.Time) ArchivedUpload {
	return ArchivedUpload{
		ID:          uuid.NewString(),
		RequestID:   requestID,
		Filename:    filename,
		ContentType: http.DetectContentType(data),
		Data:        data,
		Report:      report,
		ReceivedAt:  receivedAt.UTC(),
	}
}

// Prefix is "<date>/<id>", shared by the upload and report objects
func (u ArchivedUpload) Prefix() string {
	return path.Join(u.ReceivedAt.UTC().Format(archiveDateLayout), u.ID)
}

// UploadKey is "<date>/<id>/<filename>"
func (u ArchivedUpload) UploadKey() string {
	return path.Join(u.Prefix(), sanitizeObjectName(u.Filename))
}

// ReportKey is "<date>/<id>/report.json"
func (u ArchivedUpload) ReportKey() string {
	return path.Join(u.Prefix(), reportObjectName)
}

func (u ArchivedUpload) validate() error {
	if u.ID == "" {
		return fmt.Errorf("archived upload has no id")
	}
	if len(u.Data) == 0 {
		return fmt.Errorf("archived upload %s has no data", u.ID)
	}
	return nil
}

// metadata is attached to both stored objects
func (u ArchivedUpload) metadata() map[string]string {
	meta := map[string]string{
		"upload_id":         u.ID,
		"original_filename": u.Filename,
	}
	if u.RequestID != "" {
		meta["request_id"] = u.RequestID
	}
	return meta
}

// sanitizeObjectName keeps only the base name and drops characters object
// stores treat specially
func sanitizeObjectName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, r == '?', r == '#', r == '%':
			return '_'
		default:
			return r
		}
	}, name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return fallbackObjectName
	}
	return name
}

type noopArchive struct{}

// NewNoopArchive returns an archive that discards everything
func NewNoopArchive() Archive {
	return noopArchive{}
}

func (noopArchive) Store(context.Context, ArchivedUpload) error { return nil }

func (noopArchive) Name() string { return "none" }
