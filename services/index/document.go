package index

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/meghashyamc/docquery/db/filestore"
	"golang.org/x/sync/errgroup"
)

type Document struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
	IsText  bool
	// Content is the extracted text; binary files contribute only their name.
	Content string
}

// loadDocuments reads every stored file concurrently, preserving the input order.
func (s *Service) loadDocuments(ctx context.Context, files []filestore.FileInfo) ([]*Document, error) {
	documents := make([]*Document, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.loaderConcurrency)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := s.extractContent(file)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", file.Name, err)
			}
			documents[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return documents, nil
}

func (s *Service) extractContent(file filestore.FileInfo) (*Document, error) {
	doc := &Document{
		Name:    file.Name,
		Path:    file.Path,
		Size:    file.Size,
		ModTime: file.ModTime,
	}

	content, truncated, err := s.store.Read(file.Name)
	if err != nil {
		return nil, err
	}
	if truncated {
		content = trimPartialRune(content)
		s.logger.Warn("document exceeds the read limit, indexing only its beginning",
			"name", file.Name, "size", file.Size, "indexed_bytes", len(content))
	}

	doc.IsText = isTextFile(file.Name, content)
	if doc.IsText {
		doc.Content = string(content)
	} else {
		doc.Content = file.Name
	}

	return doc, nil
}

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".rst": true, ".go": true,
	".js": true, ".ts": true, ".py": true, ".java": true, ".cpp": true,
	".c": true, ".h": true, ".cs": true, ".rb": true, ".rs": true,
	".html": true, ".htm": true, ".css": true, ".json": true, ".xml": true,
	".yaml": true, ".yml": true, ".toml": true, ".ini": true, ".conf": true,
	".csv": true, ".tsv": true, ".sql": true, ".log": true, ".tex": true,
}

var binaryExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".zip": true, ".gz": true, ".tar": true, ".exe": true,
}

// Content sniffing looks at this many leading bytes.
const sniffBytes = 8 << 10

// isTextFile decides by extension first and falls back to sniffing the content.
func isTextFile(name string, content []byte) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if textExtensions[ext] {
		return true
	}
	if binaryExtensions[ext] {
		return false
	}
	if strings.HasPrefix(mime.TypeByExtension(ext), "text/") {
		return true
	}
	prefix := trimPartialRune(content[:min(len(content), sniffBytes)])
	return utf8.Valid(prefix) && !bytes.ContainsRune(prefix, 0)
}

// trimPartialRune drops an incomplete UTF-8 sequence left at the end of b by a byte cut.
func trimPartialRune(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		start := len(b) - i
		if !utf8.RuneStart(b[start]) {
			continue
		}
		if utf8.FullRune(b[start:]) {
			return b
		}
		return b[:start]
	}
	return b
}
