package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type localStore struct {
	root      string
	urlPrefix string
	now       func() time.Time
	create    func(name string) (io.WriteCloser, error)
}

func createFile(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

func NewLocal(root, urlPrefix string) (Store, error) {
	if !filepath.IsAbs(root) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("storage/local: getwd: %w", err)
		}
		root = filepath.Join(cwd, root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage/local: mkdir: %w", err)
	}
	return &localStore{
		root:      root,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		now:       time.Now,
		create:    createFile,
	}, nil
}

func (s *localStore) Save(ctx context.Context, originalName, _ string, r io.Reader) (string, error) {
	name := ObjectName(s.now(), originalName)
	full := filepath.Join(s.root, name)

	f, err := s.create(full)
	if err != nil {
		return "", fmt.Errorf("storage/local: create %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("storage/local: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("storage/local: close %s: %w", name, err)
	}

	return s.urlPrefix + "/" + name, nil
}

// Delete removes a file previously returned by Save. Unknown or already
// removed references are not an error.
func (s *localStore) Delete(ctx context.Context, ref string) error {
	name, ok := strings.CutPrefix(ref, s.urlPrefix+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.root, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage/local: remove %s: %w", name, err)
	}
	return nil
}
