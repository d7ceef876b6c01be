package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("stored file not found")

// FileStorage is append-only: Put always creates a new, uniquely named object.
type FileStorage interface {
	// Put stores data under a generated name derived from suggestedName ("dir/name.ext")
	// and returns the location handle to persist.
	Put(ctx context.Context, data []byte, suggestedName string) (string, error)
	Get(ctx context.Context, location string) ([]byte, error)
	Exists(location string) bool
}

type fileStorage struct {
	basePath string
}

func NewFileStorage(basePath string) FileStorage {
	return &fileStorage{basePath: basePath}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func cleanSegment(s string) string {
	s = unsafeChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-.")
}

// objectName keeps at most one directory level from the suggestion and prefixes a UUID.
func objectName(suggested string) string {
	dir, base := filepath.Split(filepath.ToSlash(suggested))
	dir = cleanSegment(strings.Trim(dir, "/"))
	base = cleanSegment(base)
	if base == "" {
		base = "file"
	}
	name := uuid.NewString() + "_" + base
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func (s *fileStorage) resolve(location string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(location))
	if clean == string(filepath.Separator) || location == "" {
		return "", fmt.Errorf("invalid location %q", location)
	}
	full := filepath.Join(s.basePath, clean)
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid location %q", location)
	}
	return full, nil
}

func (s *fileStorage) Put(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	location := objectName(suggestedName)
	fullPath, err := s.resolve(location)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("create storage directory: %w", err)
	}

	// write to a temp file first so readers never see a partial object
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("finalize stored file: %w", err)
	}
	return location, nil
}

func (s *fileStorage) Get(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(location)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *fileStorage) Exists(location string) bool {
	fullPath, err := s.resolve(location)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}
