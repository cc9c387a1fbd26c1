package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
)

// LocalStore maps keys to files under a data root.
type LocalStore struct {
	log  *logger.Logger
	root string
	// mu serialises writes so PutIfMatch can compare-and-swap within this process.
	mu sync.Mutex
}

func NewLocalStore(log *logger.Logger, root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("local store: data root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("local store: resolve %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("local store: create %s: %w", abs, err)
	}
	return &LocalStore{log: log.With("service", "LocalStore"), root: abs}, nil
}

func (s *LocalStore) Name() string { return "local" }

func (s *LocalStore) Root() string { return s.root }

// EnsureDirs creates directories (relative keys) under the root.
func (s *LocalStore) EnsureDirs(dirs ...string) error {
	for _, d := range dirs {
		p, err := s.path(d)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("local store: mkdir %s: %w", d, err)
		}
	}
	return nil
}

func (s *LocalStore) path(key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(p, data)
}

func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("local store: read %s: %w", key, err)
	}
	return data, nil
}

func (s *LocalStore) GetVersioned(ctx context.Context, key string) ([]byte, Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, NoGeneration, err
	}
	return data, checksum(data), nil
}

func (s *LocalStore) PutIfMatch(ctx context.Context, key string, data []byte, _ string, match Generation) (Generation, error) {
	p, err := s.path(key)
	if err != nil {
		return NoGeneration, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := NoGeneration
	existing, err := s.Get(ctx, key)
	switch {
	case err == nil:
		current = checksum(existing)
	case !errors.Is(err, ErrNotFound):
		return NoGeneration, err
	}
	if current != match {
		return current, ErrConflict
	}
	if err := s.write(p, data); err != nil {
		return NoGeneration, err
	}
	return checksum(data), nil
}

// write creates parent directories and replaces the file via rename so
// readers never observe a half-written document.
func (s *LocalStore) write(p string, data []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("local store: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("local store: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("local store: write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("local store: close %s: %w", p, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("local store: rename %s: %w", p, err)
	}
	return nil
}

// checksum doubles as the generation token; the progress document only
// grows, so a digest never repeats for a key.
func checksum(data []byte) Generation {
	sum := sha256.Sum256(data)
	return Generation(hex.EncodeToString(sum[:16]))
}
