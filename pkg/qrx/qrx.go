// Package qrx renders QR codes as PNG images.
package qrx

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content string is empty or only whitespace.
	ErrEmptyContent = errors.New("qrx: content cannot be empty")
	// ErrRender wraps encoder failures, usually content too long for a QR code.
	ErrRender = errors.New("qrx: failed to render QR code")
)

// DefaultSize is the image edge in pixels used when no size is specified.
const DefaultSize = 256

// Renderer turns text into PNG encoded QR codes. The zero value is usable.
type Renderer struct {
	// Size is the image edge in pixels.
	Size int
}

// Render returns the QR code for content as PNG bytes.
func (r Renderer) Render(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	size := r.Size
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrRender, err)
	}
	return png, nil
}

// DataURL encodes PNG bytes as a data: URL suitable for an <img src>.
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
