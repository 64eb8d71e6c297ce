package validation

import (
	"path/filepath"
	"strings"

	apperrors "go-imaging-assistant/internal/errors"
)

// DefaultAllowedExtensions are the image types accepted when none are configured
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tiff"}

// UploadValidator handles upload validation logic
type UploadValidator struct {
	allowedExtensions []string
}

// NewUploadValidator creates a new upload validator with default settings
func NewUploadValidator() *UploadValidator {
	return NewUploadValidatorWithExtensions(DefaultAllowedExtensions)
}

// NewUploadValidatorWithExtensions creates a validator with a custom whitelist.
// Extensions are compared case-insensitively and may be given with or without
// a leading dot.
func NewUploadValidatorWithExtensions(extensions []string) *UploadValidator {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			normalized = append(normalized, ext)
		}
	}
	return &UploadValidator{allowedExtensions: normalized}
}

// AllowedExtensions returns a copy of the whitelist
func (v *UploadValidator) AllowedExtensions() []string {
	out := make([]string, len(v.allowedExtensions))
	copy(out, v.allowedExtensions)
	return out
}

// ValidateFilename checks that a filename is present and carries an allowed
// extension
func (v *UploadValidator) ValidateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return apperrors.NewValidationError("No file selected", nil)
	}

	ext := Extension(filename)
	if ext == "" || !v.isExtensionAllowed(ext) {
		return apperrors.NewValidationError("Invalid file type", nil).
			WithDetails("Allowed types: " + strings.Join(v.allowedExtensions, ", "))
	}
	return nil
}

// ValidateUpload checks the filename and that the file has content
func (v *UploadValidator) ValidateUpload(filename string, data []byte) error {
	if err := v.ValidateFilename(filename); err != nil {
		return err
	}
	if len(data) == 0 {
		return apperrors.NewValidationError("Uploaded file is empty", nil)
	}
	return nil
}

// Extension returns the lower-cased text after the last dot of the base name,
// or "" when there is none
func Extension(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	idx := strings.LastIndex(base, ".")
	if idx < 0 || idx == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[idx+1:])
}

// isExtensionAllowed checks if the extension is in the allowed list
func (v *UploadValidator) isExtensionAllowed(ext string) bool {
	for _, allowed := range v.allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
