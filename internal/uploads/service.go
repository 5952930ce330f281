package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/mitraponics/storefront-backend/pkg/config"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// Service stores product images on local disk. Files are renamed to a UUID
// so uploaded names never reach the filesystem.
type Service interface {
	SaveImage(ctx context.Context, content io.Reader) (*Result, error)
}

// Result describes a stored upload.
type Result struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type service struct {
	dir        string
	publicBase string
	maxBytes   int64
}

// NewService builds an uploads service from configuration.
func NewService(cfg config.UploadsConfig) (Service, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("uploads directory required")
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &service{
		dir:        cfg.Dir,
		publicBase: cfg.PublicBase,
		maxBytes:   int64(cfg.MaxUploadMB) << 20,
	}, nil
}

// SaveImage sniffs the content type from the bytes themselves, rejecting
// anything that is not a known image regardless of the declared type.
func (s *service) SaveImage(_ context.Context, content io.Reader) (*Result, error) {
	if content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}

	// read one byte past the cap to distinguish at-limit from over-limit
	data, err := io.ReadAll(io.LimitReader(content, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds upload size limit")
	}

	detected := mimetype.Detect(data)
	if _, ok := allowedImageTypes[detected.String()]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported file type").
			WithDetails(map[string]string{"detected": detected.String()})
	}

	name := uuid.NewString() + detected.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store upload")
	}

	return &Result{
		URL:         path.Join(s.publicBase, name),
		ContentType: detected.String(),
		SizeBytes:   int64(len(data)),
	}, nil
}
