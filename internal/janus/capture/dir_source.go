package capture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DirFrameSource reads the newest PNG or JPEG snapshot from a directory that
// an external camera process keeps writing to.
type DirFrameSource struct {
	dir string

	mu       sync.Mutex
	lastName string
	lastMod  time.Time
}

func NewDirFrameSource(dir string) *DirFrameSource {
	return &DirFrameSource{dir: dir}
}

// Open checks the directory is there and readable.
func (s *DirFrameSource) Open() error {
	fi, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	if _, err := os.ReadDir(s.dir); err != nil {
		return err
	}
	return nil
}

// Frame decodes the newest snapshot.  It returns ErrNoFrame when no image
// is present or the newest one was already returned.
func (s *DirFrameSource) Frame() (image.Image, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}

	var (
		newest  string
		newestT time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !isFrameFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest, newestT = e.Name(), info.ModTime()
		}
	}
	if newest == "" {
		return nil, ErrNoFrame
	}

	s.mu.Lock()
	seen := newest == s.lastName && newestT.Equal(s.lastMod)
	s.mu.Unlock()
	if seen {
		return nil, ErrNoFrame
	}

	f, err := os.Open(filepath.Join(s.dir, newest))
	if err != nil {
		// Writers rotate files underneath us; try again next tick.
		return nil, ErrNoFrame
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		// Partially written snapshot.
		return nil, ErrNoFrame
	}

	s.mu.Lock()
	s.lastName, s.lastMod = newest, newestT
	s.mu.Unlock()
	return img, nil
}

func (s *DirFrameSource) Close() error { return nil }

func isFrameFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
