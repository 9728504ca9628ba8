package browse

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/starford/raido/internal/apperr"
)

// MarkdownFile is the full content of one Markdown file.
type MarkdownFile struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// ReadFile returns the UTF-8 content of a guarded Markdown file. The size
// ceiling is enforced from metadata before the body is read, so a hostile
// or huge file never reaches memory.
func (s *Service) ReadFile(_ context.Context, raw string) (*MarkdownFile, error) {
	abs, err := s.guard.ResolveSafe(raw)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("browse: stat %s: %w", abs, apperr.ErrNotFound)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("browse: not a regular file %s: %w", abs, apperr.ErrInvalidInput)
	}
	if !strings.EqualFold(filepath.Ext(abs), ".md") {
		return nil, fmt.Errorf("browse: not a markdown file %s: %w", abs, apperr.ErrInvalidInput)
	}
	if info.Size() > MaxMarkdownSize {
		return nil, fmt.Errorf("browse: %s is %d bytes: %w", abs, info.Size(), apperr.ErrTooLarge)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("browse: read %s: %w", abs, apperr.ErrAccessDenied)
		}
		return nil, fmt.Errorf("browse: read %s: %w", abs, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("browse: %s is not valid UTF-8: %w", abs, apperr.ErrInvalidInput)
	}

	sum := sha256.Sum256(data)
	return &MarkdownFile{
		Path:     abs,
		Name:     filepath.Base(abs),
		Content:  string(data),
		Size:     int64(len(data)),
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}
