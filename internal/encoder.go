package internal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ImageRef is an opaque local image reference: a filesystem path,
// a file:// URI, or a data: URI
type ImageRef string

// IsDataURI reports whether the reference carries its bytes inline
func (r ImageRef) IsDataURI() bool {
	return strings.HasPrefix(string(r), "data:")
}

// Path resolves file:// URIs to a filesystem path
func (r ImageRef) Path() string {
	s := string(r)
	if strings.HasPrefix(s, "file://") {
		if u, err := url.Parse(s); err == nil {
			return u.Path
		}
		return strings.TrimPrefix(s, "file://")
	}
	return s
}

// Label returns a short form for logs and errors
func (r ImageRef) Label() string {
	if r.IsDataURI() {
		if i := strings.IndexByte(string(r), ','); i > 0 {
			return string(r)[:i]
		}
		return "data:"
	}
	return r.Path()
}

// EncodedImage is a transport-safe payload: base64 without any media-type prefix
type EncodedImage struct {
	Payload   string
	MediaType string
	Size      int
}

// StripDataURIPrefix removes everything up to and including the first comma
// of a data: URI. Other strings are returned unchanged.
func StripDataURIPrefix(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// EncodeImage reads the referenced image and returns its base64 payload
func EncodeImage(ref ImageRef) (EncodedImage, error) {
	if strings.TrimSpace(string(ref)) == "" {
		return EncodedImage{}, &EncodingError{Ref: "", Err: errors.New("empty image reference")}
	}

	if ref.IsDataURI() {
		return encodeDataURI(ref)
	}

	path := ref.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		return EncodedImage{}, &EncodingError{Ref: path, Err: fmt.Errorf("failed to read image: %w", err)}
	}
	if len(data) == 0 {
		return EncodedImage{}, &EncodingError{Ref: path, Err: errors.New("image is empty")}
	}

	LogDebug("Encoded %s (%d bytes)", path, len(data))
	return EncodedImage{
		Payload:   base64.StdEncoding.EncodeToString(data),
		MediaType: mimetype.Detect(data).String(),
		Size:      len(data),
	}, nil
}

func encodeDataURI(ref ImageRef) (EncodedImage, error) {
	payload := strings.TrimSpace(StripDataURIPrefix(string(ref)))
	if payload == "" {
		return EncodedImage{}, &EncodingError{Ref: ref.Label(), Err: errors.New("data URI has no payload")}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return EncodedImage{}, &EncodingError{Ref: ref.Label(), Err: fmt.Errorf("invalid base64 payload: %w", err)}
	}
	if len(data) == 0 {
		return EncodedImage{}, &EncodingError{Ref: ref.Label(), Err: errors.New("image is empty")}
	}

	return EncodedImage{
		Payload:   payload,
		MediaType: mimetype.Detect(data).String(),
		Size:      len(data),
	}, nil
}
