// Package signature turns uploaded signature images and data URIs into one
// canonical form: data:image/<subtype>;base64,<payload>.
package signature

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// MaxBytes bounds both the raw image and its base64 encoding.
const MaxBytes = 5 << 20

var (
	ErrInvalidType   = errors.New("signature must be an image")
	ErrInvalidFormat = errors.New("signature must be a base64 image data URI")
	ErrTooLarge      = errors.New("signature exceeds 5 MiB")
)

var dataURIHeader = regexp.MustCompile(`^data:image/[a-zA-Z0-9.+-]+;base64,`)

// Input carries at most one signature source. File wins over DataURI when
// both are set.
type Input struct {
	FileContentType string
	File            []byte
	DataURI         string
}

// Empty reports whether no signature was supplied.
func (in Input) Empty() bool {
	return len(in.File) == 0 && strings.TrimSpace(in.DataURI) == ""
}

// Normalize returns the canonical data URI for in, or "" when no signature
// was supplied.
func Normalize(in Input) (string, error) {
	switch {
	case in.Empty():
		return "", nil
	case len(in.File) > 0:
		return FromFile(in.FileContentType, in.File)
	default:
		return FromDataURI(strings.TrimSpace(in.DataURI))
	}
}

// FromFile encodes an uploaded image. A missing or generic declared type is
// replaced by the sniffed one.
func FromFile(contentType string, data []byte) (string, error) {
	if len(data) > MaxBytes {
		return "", ErrTooLarge
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = strings.TrimSpace(ct[:i])
		}
	}
	if !strings.HasPrefix(ct, "image/") || len(ct) == len("image/") {
		return "", fmt.Errorf("%w: got %q", ErrInvalidType, ct)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	if len(encoded) > MaxBytes {
		return "", ErrTooLarge
	}
	return "data:" + ct + ";base64," + encoded, nil
}

// FromDataURI validates s and returns it unchanged.
func FromDataURI(s string) (string, error) {
	loc := dataURIHeader.FindStringIndex(s)
	if loc == nil {
		return "", ErrInvalidFormat
	}
	payload := s[loc[1]:]
	if payload == "" {
		return "", ErrInvalidFormat
	}
	if len(payload) > MaxBytes {
		return "", ErrTooLarge
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrInvalidFormat
	}
	if len(decoded) > MaxBytes {
		return "", ErrTooLarge
	}
	return s, nil
}

// IsDataURI reports whether s is a well-formed image data URI. It is the
// gate the renderer uses before emitting an <img> tag.
func IsDataURI(s string) bool {
	_, err := FromDataURI(s)
	return err == nil
}

// Decode splits a data URI into its media type and raw bytes.
func Decode(s string) (string, []byte, error) {
	if _, err := FromDataURI(s); err != nil {
		return "", nil, err
	}
	header, payload, _ := strings.Cut(s, ",")
	mediaType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrInvalidFormat
	}
	return mediaType, data, nil
}
