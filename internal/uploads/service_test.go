package uploads

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitraponics/storefront-backend/pkg/config"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
)

// minimal valid PNG header plus IHDR chunk
var pngBytes = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00,
}

func testService(t *testing.T, maxMB int) Service {
	t.Helper()
	svc, err := NewService(config.UploadsConfig{
		Dir:         t.TempDir(),
		PublicBase:  "/uploads",
		MaxUploadMB: maxMB,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSaveImageAcceptsPNG(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, err := NewService(config.UploadsConfig{Dir: dir, PublicBase: "/uploads", MaxUploadMB: 1})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.SaveImage(context.Background(), bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("save image: %v", err)
	}
	if result.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %q", result.ContentType)
	}
	if !strings.HasPrefix(result.URL, "/uploads/") || !strings.HasSuffix(result.URL, ".png") {
		t.Fatalf("unexpected url %q", result.URL)
	}

	stored, err := os.ReadFile(filepath.Join(dir, filepath.Base(result.URL)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(stored, pngBytes) {
		t.Fatal("stored bytes differ from upload")
	}
}

func TestSaveImageRejectsNonImage(t *testing.T) {
	t.Parallel()

	svc := testService(t, 1)
	_, err := svc.SaveImage(context.Background(), strings.NewReader("#!/bin/sh\nrm -rf /\n"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveImageRejectsOversize(t *testing.T) {
	t.Parallel()

	svc := testService(t, 1)
	big := append(append([]byte{}, pngBytes...), make([]byte, 2<<20)...)
	_, err := svc.SaveImage(context.Background(), bytes.NewReader(big))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveImageRejectsEmpty(t *testing.T) {
	t.Parallel()

	svc := testService(t, 1)
	_, err := svc.SaveImage(context.Background(), strings.NewReader(""))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
