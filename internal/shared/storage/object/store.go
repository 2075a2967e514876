package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// Key prefixes for the two document areas.
const (
	UploadsPrefix   = "uploads/"
	ConvertedPrefix = "converted/"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ModTime     time.Time
	ContentType string
}

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Stat(ctx context.Context, storageKey string) (ObjectInfo, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, storageKey string) error
}

// UploadKey is the key of an uploaded original.
func UploadKey(fileName string) string {
	return UploadsPrefix + fileName
}

// ConvertedKey is the key of a converted DOCX.
func ConvertedKey(fileName string) string {
	return ConvertedPrefix + fileName
}

// CleanKey normalizes a slash-separated key and rejects keys that escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(strings.TrimSpace(key), "\\", "/")
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
