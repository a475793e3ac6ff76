// Package extract reads the text layer of generated PDFs back out. The
// operator CLI uses it to inspect files and tests use it to check output.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"contract-backend/internal/shared/storage/object"
)

// ErrNotPDF is returned when the payload lacks the PDF header.
var ErrNotPDF = errors.New("not a pdf document")

// Info is the summary printed by the inspect command.
type Info struct {
	Key   string
	Pages int
	Size  int64
	Text  string
}

// Inspect opens a stored PDF and extracts its text.
func Inspect(ctx context.Context, store object.ObjectStore, key string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	body, err := store.Open(ctx, key)
	if err != nil {
		return Info{}, fmt.Errorf("inspect key=%s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Info{}, fmt.Errorf("inspect key=%s: read: %w", key, err)
	}
	pages, text, err := read(raw)
	if err != nil {
		return Info{}, fmt.Errorf("inspect key=%s: %w", key, err)
	}
	return Info{Key: key, Pages: pages, Size: int64(len(raw)), Text: text}, nil
}

// PDFText extracts the plain text of an in-memory PDF.
func PDFText(data []byte) (string, error) {
	_, text, err := read(data)
	return text, err
}

func read(data []byte) (int, string, error) {
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return 0, "", ErrNotPDF
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return 0, "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return 0, "", err
	}
	return r.NumPage(), strings.TrimSpace(buf.String()), nil
}
