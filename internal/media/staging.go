package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// StageFile copies an uploaded stream into the staging directory and returns
// the staged path. The caller owns the file and must remove it once the relay
// finishes, whether it succeeded or not.
func StageFile(dir string, src io.Reader, originalName string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	pattern := "upload-*"
	if ext := sanitizeExt(filepath.Ext(originalName)); ext != "" {
		pattern += ext
	}

	staged, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	if _, err := io.Copy(staged, src); err != nil {
		staged.Close()
		os.Remove(staged.Name())
		return "", fmt.Errorf("write staged file: %w", err)
	}

	if err := staged.Close(); err != nil {
		os.Remove(staged.Name())
		return "", fmt.Errorf("close staged file: %w", err)
	}

	return staged.Name(), nil
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	for _, r := range ext[min(len(ext), 1):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
