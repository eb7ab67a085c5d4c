// Package docparse turns document files into the plain text the analyzer reads.
//
// Supported formats:
//   - .pdf                      page text, via github.com/ledongthuc/pdf
//   - .docx                     word/document.xml inside the zip container
//   - .html, .htm               visible text, via goquery
//   - .txt .md .csv .log .eml   passthrough
//
// Every extractor's output is converted to NFC and uses "\n" line endings, so
// the same document always yields byte-identical text.
package docparse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"filegroups/internal/logging"
)

// FileType identifies the extractor used for a document.
type FileType string

const (
	TypePDF  FileType = "pdf"
	TypeDOCX FileType = "docx"
	TypeHTML FileType = "html"
	TypeText FileType = "text"
)

// ParseErrorType represents the kind of extraction failure.
type ParseErrorType string

const (
	UnsupportedFormat ParseErrorType = "UNSUPPORTED_FORMAT"
	FileTooLarge      ParseErrorType = "FILE_TOO_LARGE"
	ReadFailed        ParseErrorType = "READ_FAILED"
)

// ParseError reports a document that could not be turned into text.
type ParseError struct {
	Type ParseErrorType
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return string(e.Type) + ": " + e.Path
	}
	return string(e.Type) + ": " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DefaultMaxFileSize is the largest document read when Config leaves it unset.
const DefaultMaxFileSize int64 = 50 << 20

var extensionTypes = map[string]FileType{
	".pdf":      TypePDF,
	".docx":     TypeDOCX,
	".html":     TypeHTML,
	".htm":      TypeHTML,
	".txt":      TypeText,
	".text":     TypeText,
	".md":       TypeText,
	".markdown": TypeText,
	".csv":      TypeText,
	".log":      TypeText,
	".eml":      TypeText,
}

// SupportedExtensions returns the document extensions Extract accepts, with
// their leading dots.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".html", ".htm", ".txt", ".text", ".md", ".markdown", ".csv", ".log", ".eml"}
}

// Detect returns the file type implied by path's extension.
func Detect(path string) (FileType, error) {
	ft, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", &ParseError{Type: UnsupportedFormat, Path: path}
	}
	return ft, nil
}

// Document is an extracted document.
type Document struct {
	Path     string
	FileType FileType
	Size     int64
	Text     string
}

// Config configures a Parser.
type Config struct {
	MaxFileSize int64 // bytes; zero means DefaultMaxFileSize
	Logger      *slog.Logger
}

// Parser extracts text from documents on disk.
type Parser struct {
	maxFileSize int64
	logger      *slog.Logger
}

// New creates a Parser.
func New(cfg Config) *Parser {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	return &Parser{
		maxFileSize: cfg.MaxFileSize,
		logger:      logging.OrNop(cfg.Logger),
	}
}

// Extract reads the document at path and returns its text.
func (p *Parser) Extract(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ft, err := Detect(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &ParseError{Type: ReadFailed, Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &ParseError{Type: ReadFailed, Path: path, Err: errors.New("is a directory")}
	}
	if info.Size() > p.maxFileSize {
		return nil, &ParseError{
			Type: FileTooLarge,
			Path: path,
			Err:  fmt.Errorf("%d bytes exceeds limit of %d", info.Size(), p.maxFileSize),
		}
	}

	p.logger.Debug("extracting document", slog.String("path", path), slog.String("format", string(ft)))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Type: ReadFailed, Path: path, Err: err}
	}

	text, err := ExtractBytes(ft, data)
	if err != nil {
		return nil, &ParseError{Type: ReadFailed, Path: path, Err: err}
	}

	return &Document{
		Path:     path,
		FileType: ft,
		Size:     info.Size(),
		Text:     text,
	}, nil
}

// ExtractText extracts the text of an in-memory document of the given type.
func ExtractText(ft FileType, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return ExtractBytes(ft, data)
}

// ExtractBytes extracts the text of a document held in data.
func ExtractBytes(ft FileType, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch ft {
	case TypePDF:
		text, err = extractPDF(bytes.NewReader(data), int64(len(data)))
	case TypeDOCX:
		text, err = extractDOCX(bytes.NewReader(data), int64(len(data)))
	case TypeHTML:
		text, err = extractHTML(bytes.NewReader(data))
	case TypeText:
		text = string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	default:
		return "", fmt.Errorf("no extractor for %q", ft)
	}
	if err != nil {
		return "", err
	}

	return NormalizeText(text), nil
}

// NormalizeText converts text to NFC and rewrites CRLF and lone CR line endings to LF.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFC.String(text)
}
