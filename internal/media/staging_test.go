package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStageFileCopiesUpload(t *testing.T) {
	dir := t.TempDir()

	staged, err := StageFile(dir, strings.NewReader("video-bytes"), "clip.mp4")
	if err != nil {
		t.Fatalf("stage file: %v", err)
	}
	defer os.Remove(staged)

	if filepath.Dir(staged) != dir {
		t.Fatalf("expected staged file in %s, got %s", dir, staged)
	}
	if filepath.Ext(staged) != ".mp4" {
		t.Fatalf("expected extension to be preserved, got %s", staged)
	}

	contents, err := os.ReadFile(staged)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if string(contents) != "video-bytes" {
		t.Fatalf("unexpected staged contents: %q", contents)
	}
}

func TestStageFileDropsSuspiciousExtensions(t *testing.T) {
	dir := t.TempDir()

	staged, err := StageFile(dir, strings.NewReader("payload"), "weird.mp4;rm -rf")
	if err != nil {
		t.Fatalf("stage file: %v", err)
	}
	defer os.Remove(staged)

	if ext := filepath.Ext(staged); ext != "" {
		t.Fatalf("expected suspicious extension to be dropped, got %q", ext)
	}
}
