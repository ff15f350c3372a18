package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/qachat/qa-backend/internal/config"
	"github.com/qachat/qa-backend/internal/entity"
)

var allowedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// Validator checks uploaded dataset files against configured limits before
// any parsing happens.
type Validator struct {
	cfg config.FileUploadConfig
}

func NewFileValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateUpload validates a single dataset file upload.
func (v *Validator) ValidateUpload(fh *multipart.FileHeader) error {
	if fh == nil {
		return fmt.Errorf("%w: file", entity.ErrMissingField)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %s (allowed: csv, xlsx)", entity.ErrInvalidExtension, ext)
	}

	if fh.Size > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, fh.Filename, fh.Size, v.cfg.MaxFileSize)
	}

	return nil
}

// SanitizeFilename strips path components and shell-hostile characters from
// an uploaded filename before it is stored.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
	)
	return replacer.Replace(filename)
}
