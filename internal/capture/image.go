// Package capture turns uploaded files and camera frames into validated
// user images for a try-on submission.
package capture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
)

// DefaultMaxBytes is the upload ceiling when none is configured.
const DefaultMaxBytes int64 = 10 << 20

// decodable lists sniffed types whose header must parse. Other image/*
// types are accepted on the sniffed type alone.
var decodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
}

// Validate sniffs data and returns it as an ImageFile when it is a
// non-empty image no larger than maxBytes.
func Validate(name string, data []byte, maxBytes int64) (*domain.ImageFile, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(data) == 0 {
		return nil, &domain.ValidationError{Field: "userImage", Reason: "file is empty"}
	}
	if int64(len(data)) > maxBytes {
		return nil, &domain.ValidationError{
			Field:  "userImage",
			Reason: fmt.Sprintf("file exceeds %d MB", maxBytes>>20),
		}
	}
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, &domain.ValidationError{Field: "userImage", Reason: "please select an image file"}
	}
	if decodable[mime] {
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, &domain.ValidationError{Field: "userImage", Reason: "image is corrupt or truncated"}
		}
	}
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		name = "upload" + extensionFor(mime)
	}
	return &domain.ImageFile{Name: name, MIME: mime, Data: data}, nil
}

// FromMultipart reads an uploaded form file and validates it.
func FromMultipart(fh *multipart.FileHeader, maxBytes int64) (*domain.ImageFile, error) {
	if fh == nil {
		return nil, &domain.ValidationError{Field: "userImage", Reason: "image is required"}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if fh.Size > maxBytes {
		return nil, &domain.ValidationError{
			Field:  "userImage",
			Reason: fmt.Sprintf("file exceeds %d MB", maxBytes>>20),
		}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("capture: open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("capture: read upload: %w", err)
	}
	return Validate(fh.Filename, data, maxBytes)
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ""
	}
}
