package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
)

// maxUploadBytes bounds multipart form memory and upload size.
const maxUploadBytes = 256 << 20

// storeUpload spools a multipart file to a temporary file and streams it to
// the object store under a generated key. The temporary file is removed
// whether or not the upload succeeds.
func storeUpload(ctx context.Context, files FileStore, file multipart.File, header *multipart.FileHeader, prefix string) (string, error) {
	tmp, err := os.CreateTemp("", "clipstream-upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if cerr := tmp.Close(); cerr != nil {
			logging.FromContext(ctx).Warn("close temp upload", "path", tmp.Name(), "error", cerr)
		}
		if rerr := os.Remove(tmp.Name()); rerr != nil {
			logging.FromContext(ctx).Warn("remove temp upload", "path", tmp.Name(), "error", rerr)
		}
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	key := prefix + "/" + uuid.NewString() + filepath.Ext(header.Filename)

	location, err := files.Upload(ctx, key, tmp)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return location, nil
}

// discardObjects queues stored objects for background deletion. Failures are
// logged; they never fail the request that replaced the object.
func discardObjects(ctx context.Context, cleanup CleanupQueue, locations ...string) {
	if cleanup == nil {
		return
	}
	for _, location := range locations {
		if location == "" {
			continue
		}
		if err := cleanup.Enqueue(ctx, location); err != nil {
			logging.FromContext(ctx).Warn("failed to queue object cleanup", "location", location, "error", err)
		}
	}
}

// formFile pulls a named file out of an already parsed multipart form.
// Returns ok=false when the field is absent.
func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, bool, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	return file, header, true, nil
}
