package filestore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/meghashyamc/docquery/config"
	"github.com/meghashyamc/docquery/logger"
)

const tempFilePattern = ".upload-*"

var ErrInvalidName = errors.New("invalid file name")

type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

type SavedFile struct {
	FileInfo
	SHA256 string
}

// Store is a flat directory of uploaded documents keyed by file name.
type Store struct {
	dir          string
	maxReadBytes int64
	logger       logger.Logger
}

func New(logger logger.Logger, cfg *config.Config) (*Store, error) {
	dir := cfg.GetDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create data directory", "err", err.Error(), "path", dir)
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir, maxReadBytes: cfg.GetMaxReadBytes(), logger: logger}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes the content to a hidden temp file and renames it over <dir>/<name>, so
// readers never observe a partially written document.
func (s *Store) Save(name string, r io.Reader) (*SavedFile, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, tempFilePattern)
	if err != nil {
		s.logger.Error("failed to create temp file", "err", err.Error())
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hash), r)
	if err != nil {
		tmp.Close()
		s.logger.Error("failed to write file", "name", name, "err", err.Error())
		return nil, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return nil, fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmpPath, path); err != nil {
		s.logger.Error("failed to move file into place", "name", name, "err", err.Error())
		return nil, fmt.Errorf("failed to store %s: %w", name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}

	return &SavedFile{
		FileInfo: FileInfo{Name: name, Path: path, Size: size, ModTime: info.ModTime()},
		SHA256:   hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// List returns the regular, non-hidden files directly under the directory, sorted by name.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("could not read data directory", "path", s.dir, "err", err.Error())
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(s.dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Read returns the file content up to the configured read limit and reports whether
// anything past the limit was left out.
func (s *Store) Read(name string) ([]byte, bool, error) {
	if err := checkName(name); err != nil {
		return nil, false, err
	}

	file, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, false, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxReadBytes+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > s.maxReadBytes {
		return data[:s.maxReadBytes], true, nil
	}
	return data, false, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
