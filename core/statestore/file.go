package statestore

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/targetkit/targetkit/pkg/logger"
	"github.com/targetkit/targetkit/pkg/sanitize"
)

// FileStore keeps one state file per broker under a directory, named
// cookies-<safe-url>.state. Files carry 0600 permissions since cookies
// are login-equivalent credentials.
type FileStore struct {
	dir string
	log *slog.Logger
}

// NewFileStore creates a file-backed state store rooted at dir. The
// directory is created lazily on first save.
func NewFileStore(dir string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{dir: dir, log: log.With(logger.Component("statestore"))}
}

func (s *FileStore) path(brokerURL string) string {
	return filepath.Join(s.dir, "cookies-"+sanitize.FileName(brokerURL)+".state")
}

// Load reads the state blob for brokerURL. Missing files and corrupt
// blobs yield (nil, nil); a corrupt file is removed so it cannot shadow
// a later save.
func (s *FileStore) Load(ctx context.Context, brokerURL string) (map[string]string, error) {
	name := s.path(brokerURL)
	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Debug("no state file", logger.URL(brokerURL))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cookies := decodeBlob(data)
	if cookies == nil {
		s.log.Warn("removing corrupt state file", slog.String("path", name))
		_ = os.Remove(name)
		return nil, nil
	}
	return cookies, nil
}

// Save writes the state blob for brokerURL, or deletes it when cookies
// is empty.
func (s *FileStore) Save(ctx context.Context, brokerURL string, cookies map[string]string) error {
	if len(cookies) == 0 {
		return s.Delete(ctx, brokerURL)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return errors.Join(ErrSaveState, err)
	}
	data, err := encodeBlob(cookies)
	if err != nil {
		return errors.Join(ErrSaveState, err)
	}
	if err := os.WriteFile(s.path(brokerURL), data, 0o600); err != nil {
		return errors.Join(ErrSaveState, err)
	}
	return nil
}

// Delete removes the state blob for brokerURL, ignoring absence.
func (s *FileStore) Delete(ctx context.Context, brokerURL string) error {
	err := os.Remove(s.path(brokerURL))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(ErrDeleteState, err)
	}
	return nil
}
