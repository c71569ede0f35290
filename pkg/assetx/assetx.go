// Package assetx stores generated binary assets (QR provisioning images)
// and hands back a public URL plus an opaque id for later deletion.
package assetx

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrInvalidConfig = errors.New("assetx: invalid config")
	ErrInvalidKey    = errors.New("assetx: invalid object key")
	ErrNotFound      = errors.New("assetx: object not found")
	ErrAccessDenied  = errors.New("assetx: access denied")
)

// Object is a stored asset.
type Object struct {
	// ID identifies the object for Delete.
	ID string
	// URL is where the object can be fetched from.
	URL string
}

// Storage is an asset backend.
type Storage interface {
	Upload(ctx context.Context, folder, name string, data []byte, contentType string) (Object, error)
	Delete(ctx context.Context, id string) error
}

// objectKey joins folder and name into a clean relative key and rejects
// anything that would escape the storage root.
func objectKey(folder, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: name %q", ErrInvalidKey, name)
	}
	key := path.Clean(path.Join("/", folder, name))[1:]
	if key == "" || strings.HasPrefix(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key, nil
}

func validID(id string) error {
	if id == "" || strings.HasPrefix(id, "/") || path.Clean(id) != id || strings.HasPrefix(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, id)
	}
	return nil
}
