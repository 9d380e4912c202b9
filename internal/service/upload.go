package service

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/geocoder89/printhub/internal/apperr"
)

type ObjectStore interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) (string, error)
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var (
	imageTypes = map[string]bool{
		"image/png":  true,
		"image/jpeg": true,
		"image/webp": true,
	}
	modelExts = map[string]bool{
		".stl":  true,
		".obj":  true,
		".3mf":  true,
		".glb":  true,
		".gltf": true,
	}
)

func checkImage(u Upload, maxBytes int64) error {
	if err := checkSize(u, maxBytes); err != nil {
		return err
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(u.ContentType, ";")[0]))
	if !imageTypes[ct] {
		return apperr.Validation("Images must be PNG, JPEG or WebP.", map[string]string{"file": "unsupported_type"})
	}
	return nil
}

func checkModel(u Upload, maxBytes int64) error {
	if err := checkSize(u, maxBytes); err != nil {
		return err
	}
	if !modelExts[strings.ToLower(path.Ext(u.Filename))] {
		return apperr.Validation("Models must be STL, OBJ, 3MF, GLB or GLTF files.", map[string]string{"file": "unsupported_type"})
	}
	return nil
}

func checkSize(u Upload, maxBytes int64) error {
	if u.Body == nil || u.Size <= 0 {
		return apperr.Validation("File is empty.", map[string]string{"file": "required"})
	}
	if maxBytes > 0 && u.Size > maxBytes {
		return apperr.Validation("File is too large.", map[string]string{"file": "too_large"})
	}
	return nil
}

func contentTypeOr(u Upload, fallback string) string {
	if u.ContentType == "" {
		return fallback
	}
	return u.ContentType
}
