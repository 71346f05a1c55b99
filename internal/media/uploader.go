package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/storage"
)

// Uploader relays staged local files to the object store. Video uploads also
// derive the media duration via the configured prober.
type Uploader struct {
	Store storage.ObjectStore
	Probe *FFProbe
}

// NewUploader constructs an upload relay over the provided object store.
func NewUploader(store storage.ObjectStore, probe *FFProbe) *Uploader {
	return &Uploader{Store: store, Probe: probe}
}

// UploadImage relays a staged image file and returns its public location.
func (u *Uploader) UploadImage(ctx context.Context, localPath, keyPrefix string) (string, error) {
	return u.relay(ctx, localPath, keyPrefix)
}

// UploadVideo relays a staged video file and returns its public location and
// duration in seconds.
func (u *Uploader) UploadVideo(ctx context.Context, localPath, keyPrefix string) (string, float64, error) {
	if u == nil || u.Probe == nil {
		return "", 0, ErrProbeUnavailable
	}

	duration, err := u.Probe.Duration(ctx, localPath)
	if err != nil {
		return "", 0, err
	}

	location, err := u.relay(ctx, localPath, keyPrefix)
	if err != nil {
		return "", 0, err
	}

	return location, duration, nil
}

func (u *Uploader) relay(ctx context.Context, localPath, keyPrefix string) (string, error) {
	if u == nil || u.Store == nil {
		return "", fmt.Errorf("media uploader: object store unavailable")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	key := path.Join(keyPrefix, uuid.NewString()+sanitizeExt(filepath.Ext(localPath)))

	location, err := u.Store.Save(ctx, key, f)
	if err != nil {
		return "", fmt.Errorf("relay %s: %w", localPath, err)
	}

	return location, nil
}
