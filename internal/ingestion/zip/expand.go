package zip

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pharmstock/inventory-service/internal/storage"
	"github.com/pharmstock/inventory-service/internal/types"
	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// ExpandOptions contains options for ZIP expansion
type ExpandOptions struct {
	// MaxFileSize is the maximum size for a single file in bytes (0 = unlimited)
	MaxFileSize int64
	// MaxTotalSize is the maximum total size for all extracted files (0 = unlimited)
	MaxTotalSize int64
	// MaxFiles is the maximum number of files to extract (0 = unlimited)
	MaxFiles int
	// AllowedExtensions filters which file extensions to extract (empty = all)
	AllowedExtensions []string
	// SkipPatterns contains patterns to skip (e.g., "__MACOSX")
	SkipPatterns []string
}

// DefaultExpandOptions returns defaults sized for inventory uploads. Only
// CSV and XLSX entries are worth extracting; everything else in a vendor
// archive is noise.
func DefaultExpandOptions() ExpandOptions {
	return ExpandOptions{
		MaxFileSize:  50 * 1024 * 1024,  // 50MB per file
		MaxTotalSize: 256 * 1024 * 1024, // 256MB total
		MaxFiles:     100,
		AllowedExtensions: []string{
			".csv", ".CSV",
			".xlsx", ".XLSX",
		},
		SkipPatterns: []string{
			"__MACOSX",
			".DS_Store",
			"Thumbs.db",
			"desktop.ini",
		},
	}
}

// ExpandedFile represents a file extracted from a ZIP archive
type ExpandedFile struct {
	InnerFilename string
	Type          types.FileType
	Content       []byte
	Hash          string
	Size          int64
}

// Expander handles ZIP file expansion
type Expander struct {
	storage storage.Storage
	options ExpandOptions
}

// NewExpander creates a new ZIP expander
func NewExpander(store storage.Storage, options ExpandOptions) *Expander {
	return &Expander{
		storage: store,
		options: options,
	}
}

// Expand expands a ZIP file in memory and returns the extracted files.
// Nothing is written to storage.
func (e *Expander) Expand(ctx context.Context, content []byte, parentFilename string) ([]ExpandedFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open ZIP: %w", err)
	}

	var expanded []ExpandedFile
	var totalSize int64
	fileCount := 0

	for _, file := range reader.File {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if file.FileInfo().IsDir() {
			continue
		}

		// Zip-slip prevention: flatten and reject traversal attempts.
		safeName, err := sanitizeFilename(file.Name)
		if err != nil {
			continue
		}

		if e.shouldSkip(safeName) {
			continue
		}

		if !e.isAllowedExtension(safeName) {
			continue
		}

		fileCount++
		if e.options.MaxFiles > 0 && fileCount > e.options.MaxFiles {
			return nil, fmt.Errorf("too many files in archive (limit: %d)", e.options.MaxFiles)
		}

		// Declared size check; the real limit is enforced while reading.
		if e.options.MaxFileSize > 0 && int64(file.UncompressedSize64) > e.options.MaxFileSize {
			return nil, fmt.Errorf("file %s exceeds maximum size (%d > %d)",
				safeName, file.UncompressedSize64, e.options.MaxFileSize)
		}

		data, err := e.readFileWithLimit(ctx, file, safeName)
		if err != nil {
			return nil, err
		}

		totalSize += int64(len(data))
		if e.options.MaxTotalSize > 0 && totalSize > e.options.MaxTotalSize {
			return nil, fmt.Errorf("total extracted size exceeds maximum (%d > %d)",
				totalSize, e.options.MaxTotalSize)
		}

		hash := sha256.Sum256(data)

		expanded = append(expanded, ExpandedFile{
			InnerFilename: safeName,
			Type:          detectFileType(safeName),
			Content:       data,
			Hash:          hex.EncodeToString(hash[:]),
			Size:          int64(len(data)),
		})
	}

	return expanded, nil
}

// readFileWithLimit reads a file from ZIP with size limit enforcement
func (e *Expander) readFileWithLimit(ctx context.Context, file *zip.File, safeName string) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s in ZIP: %w", safeName, err)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			log.Warn().Str("entry", safeName).Err(closeErr).Msg("Failed to close ZIP entry")
		}
	}()

	// LimitReader with one extra byte so an over-limit file is detectable
	// regardless of what the entry header claims.
	var reader io.Reader = rc
	if e.options.MaxFileSize > 0 {
		reader = io.LimitReader(rc, e.options.MaxFileSize+1)
	}

	var buf bytes.Buffer
	done := make(chan error, 1)

	go func() {
		_, err := io.Copy(&buf, reader)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s from ZIP: %w", safeName, err)
		}
	}

	data := buf.Bytes()
	if e.options.MaxFileSize > 0 && int64(len(data)) > e.options.MaxFileSize {
		return nil, fmt.Errorf("file %s exceeds maximum size (actual data > %d bytes)", safeName, e.options.MaxFileSize)
	}

	return data, nil
}

// sanitizeFilename validates a filename from a ZIP entry and flattens it
// to its base name. Absolute paths, drive letters and .. components are
// rejected.
func sanitizeFilename(filename string) (string, error) {
	if path.IsAbs(filename) || filepath.IsAbs(filename) {
		return "", fmt.Errorf("absolute path not allowed: %s", filename)
	}

	if len(filename) >= 2 && filename[1] == ':' {
		return "", fmt.Errorf("Windows drive letter not allowed: %s", filename)
	}

	if strings.Contains(filename, "\\") {
		filename = strings.ReplaceAll(filename, "\\", "/")
	}

	cleaned := path.Clean(filename)
	if strings.HasPrefix(cleaned, "..") || strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("path traversal not allowed: %s", filename)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return "", fmt.Errorf("path traversal not allowed: %s", filename)
		}
	}

	baseName := path.Base(cleaned)
	if baseName == "." || baseName == "/" || baseName == "" {
		return "", fmt.Errorf("invalid filename: %s", filename)
	}

	return baseName, nil
}

// ExpandAndStore expands a ZIP file and archives the extracted files under
// the run's expanded/ prefix.
func (e *Expander) ExpandAndStore(
	ctx context.Context,
	content []byte,
	runID string,
	date time.Time,
	parentFilename string,
) ([]ExpandedFile, error) {
	expanded, err := e.Expand(ctx, content, parentFilename)
	if err != nil {
		return nil, err
	}

	for _, file := range expanded {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		key := storage.BuildExpandedKey(runID, date, parentFilename, file.InnerFilename)

		metadata := &storage.Metadata{
			ContentType:  detectContentType(file.InnerFilename),
			OriginalName: file.InnerFilename,
			RunID:        runID,
			UploadedAt:   time.Now(),
			Custom: map[string]string{
				"parentZip": parentFilename,
			},
		}

		if err := e.storage.Put(ctx, key, file.Content, metadata); err != nil {
			return nil, fmt.Errorf("failed to store expanded file %s: %w", file.InnerFilename, err)
		}
	}

	return expanded, nil
}

// shouldSkip checks if a file should be skipped based on patterns
func (e *Expander) shouldSkip(filename string) bool {
	for _, pattern := range e.options.SkipPatterns {
		if strings.Contains(filename, pattern) {
			return true
		}
	}
	return false
}

// isAllowedExtension checks if a file has an allowed extension
func (e *Expander) isAllowedExtension(filename string) bool {
	if len(e.options.AllowedExtensions) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range e.options.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// detectFileType detects file type from filename
func detectFileType(filename string) types.FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return types.FileTypeXLSX
	case ".zip":
		return types.FileTypeZIP
	default:
		return types.FileTypeCSV
	}
}

// detectContentType returns MIME type for a filename
func detectContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// ExpandInMemory is a convenience function for in-memory ZIP expansion
func ExpandInMemory(content []byte, parentFilename string) ([]ExpandedFile, error) {
	expander := &Expander{
		storage: nil,
		options: DefaultExpandOptions(),
	}
	return expander.Expand(context.Background(), content, parentFilename)
}
