package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MediaManager owns the on-disk layout for rendered videos and generated
// study sheets. It hands out validated paths; retention and cleanup of stale
// render output is out of scope here.
type MediaManager struct {
	mediaDir  string
	sheetsDir string
}

func NewMediaManager(mediaDir, dataDir string) (*MediaManager, error) {
	m := &MediaManager{
		mediaDir:  mediaDir,
		sheetsDir: filepath.Join(dataDir, "sheets"),
	}

	for _, dir := range []string{m.mediaDir, m.sheetsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create media directory %s: %w", dir, err)
		}
	}

	return m, nil
}

// VideoPath resolves a served filename inside the media directory. Names
// that would escape the directory are rejected.
func (m *MediaManager) VideoPath(filename string) (string, error) {
	cleaned := filepath.Base(filepath.Clean(filename))
	if cleaned != filename || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid video filename %q", filename)
	}
	return filepath.Join(m.mediaDir, cleaned), nil
}

func (m *MediaManager) SheetPath(videoID string) string {
	return filepath.Join(m.sheetsDir, videoID+".pdf")
}
