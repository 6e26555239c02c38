// Package pdftext validates uploaded PDF files and extracts their plain text.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	// MaxFileSize is the upload ceiling. A file of exactly this size is accepted.
	MaxFileSize = 10 << 20

	// MinTextLength is the least amount of trimmed text worth sending to a model
	MinTextLength = 50

	pdfMediaType = "application/pdf"
)

var (
	ErrNoFile           = errors.New("no file provided")
	ErrNotPDF           = errors.New("file must be a PDF")
	ErrTooLarge         = errors.New("file size exceeds 10MB limit")
	ErrInsufficientText = errors.New("insufficient text content")
)

// DecodeFunc turns raw PDF bytes into text
type DecodeFunc func(data []byte) (string, error)

// Extractor validates and decodes PDF uploads
type Extractor struct {
	maxSize int64
	minText int
	decode  DecodeFunc
}

// Option configures an Extractor
type Option func(*Extractor)

// WithMaxSize overrides MaxFileSize
func WithMaxSize(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxSize = n
		}
	}
}

// WithMinTextLength overrides MinTextLength
func WithMinTextLength(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.minText = n
		}
	}
}

// WithDecoder replaces the PDF decoder
func WithDecoder(fn DecodeFunc) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.decode = fn
		}
	}
}

// New creates an Extractor backed by ledongthuc/pdf
func New(opts ...Option) *Extractor {
	e := &Extractor{
		maxSize: MaxFileSize,
		minText: MinTextLength,
		decode:  decodePDF,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxSize returns the configured size ceiling
func (e *Extractor) MaxSize() int64 {
	return e.maxSize
}

// Validate checks the declared media type first, then the size, then sniffs
// the content so a renamed non-PDF is rejected too.
func (e *Extractor) Validate(contentType string, size int64, data []byte) error {
	if size == 0 && len(data) == 0 {
		return ErrNoFile
	}
	if !strings.Contains(strings.ToLower(contentType), pdfMediaType) {
		return ErrNotPDF
	}
	if size > e.maxSize || int64(len(data)) > e.maxSize {
		return ErrTooLarge
	}
	if !mimetype.Detect(data).Is(pdfMediaType) {
		return ErrNotPDF
	}
	return nil
}

// Extract decodes the PDF. Decode failures and too-short text are both
// reported as ErrInsufficientText.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := e.decode(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInsufficientText, err)
	}

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < e.minText {
		return "", fmt.Errorf("%w: %d characters extracted", ErrInsufficientText, utf8.RuneCountInString(text))
	}
	return text, nil
}

func decodePDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to decode pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return string(raw), nil
}
