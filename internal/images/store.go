// Package images stores uploaded and downloaded artwork on disk and
// resolves it back into streams for the HTTP layer.
package images

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Image describes a stored image file.
type Image struct {
	ID        string `json:"id"`
	MediaType string `json:"media_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// Store is a disk-backed image store. Files are named by their id plus
// the original extension, so resolution needs no database.
type Store struct {
	fs  afero.Fs
	dir string
	log logger.Logger
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(fs afero.Fs, dir string, log logger.Logger) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("cannot create image directory %s: %w", dir, err)
	}
	return &Store{fs: fs, dir: dir, log: log}, nil
}

// Save persists an uploaded image and returns its metadata.
func (s *Store) Save(data io.Reader, originalName string) (*Image, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	mediaType := mime.TypeByExtension(ext)
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("unsupported image type %q", ext)
	}

	id := uuid.NewString()
	path := filepath.Join(s.dir, id+ext)

	file, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("cannot create image file: %w", err)
	}

	size, err := io.Copy(file, data)
	if err != nil {
		file.Close()
		_ = s.fs.Remove(path)
		return nil, fmt.Errorf("cannot write image file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, err
	}

	s.log.Debug("Image stored", "id", id, "media_type", mediaType, "size", size)
	return &Image{ID: id, MediaType: mediaType, SizeBytes: size}, nil
}

// Open resolves an image id to its metadata and a readable stream.
func (s *Store) Open(id string) (*Image, afero.File, error) {
	path, err := s.resolve(id)
	if err != nil {
		return nil, nil, err
	}

	stat, err := s.fs.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot stat image: %w", err)
	}
	file, err := s.fs.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open image: %w", err)
	}

	return &Image{
		ID:        id,
		MediaType: mime.TypeByExtension(filepath.Ext(path)),
		SizeBytes: stat.Size(),
	}, file, nil
}

// Delete removes a stored image.
func (s *Store) Delete(id string) error {
	path, err := s.resolve(id)
	if err != nil {
		return err
	}
	return s.fs.Remove(path)
}

func (s *Store) resolve(id string) (string, error) {
	// The id is a UUID we generated; reject anything else before it
	// touches the filesystem.
	if _, err := uuid.Parse(id); err != nil {
		return "", gverrors.NewNotFound(fmt.Sprintf("image %s not found", id))
	}

	matches, err := afero.Glob(s.fs, filepath.Join(s.dir, id+".*"))
	if err != nil {
		return "", fmt.Errorf("cannot resolve image %s: %w", id, err)
	}
	if len(matches) == 0 {
		return "", gverrors.NewNotFound(fmt.Sprintf("image %s not found", id))
	}
	return matches[0], nil
}
