// Package upload validates and persists bootcamp photo uploads. Validation
// order is fixed: a file must be present, its declared type must be an image,
// and its size must not exceed the configured maximum. Files are renamed
// deterministically to photo_<recordID><ext> so re-uploads overwrite rather
// than accumulate.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// Photo is the validated descriptor of an accepted upload.
type Photo struct {
	Filename string
	header   *multipart.FileHeader
}

// ValidatePhoto checks the uploaded file against the image/size rules and
// returns the deterministic target filename for recordID. The returned error
// is a plain description; callers wrap it with the proper HTTP status.
func ValidatePhoto(header *multipart.FileHeader, recordID string, maxSize int64) (*Photo, error) {
	if header == nil {
		return nil, fmt.Errorf("please upload a file")
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image") {
		return nil, fmt.Errorf("please upload an image file")
	}
	if header.Size > maxSize {
		return nil, fmt.Errorf("please upload an image less than %d bytes", maxSize)
	}
	return &Photo{
		Filename: fmt.Sprintf("photo_%s%s", recordID, strings.ToLower(filepath.Ext(header.Filename))),
		header:   header,
	}, nil
}

// Save writes the photo into dir under its deterministic name. Any failure
// leaves no partial state the caller needs to clean up beyond the temp file
// itself.
func (p *Photo) Save(dir string) error {
	src, err := p.header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(dir, p.Filename))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
