package storefront

import (
	"context"
	"fmt"
	"log/slog"
)

// images applies the attach/replace/release policy shared by products and posts.
type images struct {
	store    MediaStore
	observer Observer
	logger   *slog.Logger
}

// upload stores a new image and returns its secure URL. The caller must not
// write its record when an error is returned.
func (im images) upload(ctx context.Context, op string, upload *ImageUpload) (string, error) {
	if im.store == nil {
		im.observer.ImageUploadFailed(op)
		return "", &MediaError{Op: "upload", Err: fmt.Errorf("%w: no media store configured", ErrImageUploadFailed)}
	}
	obj, err := im.store.Upload(ctx, upload.Reader, UploadParams{
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
	})
	if err != nil {
		im.observer.ImageUploadFailed(op)
		im.logger.Error("Image upload failed", "op", op, "filename", upload.Filename, "err", err)
		return "", &MediaError{Op: "upload", Err: fmt.Errorf("%w: %w", ErrImageUploadFailed, err)}
	}
	return obj.SecureURL, nil
}

// release deletes the image behind imageURL. Failures are logged and swallowed.
func (im images) release(ctx context.Context, op, ownerID, imageURL string) {
	identifier := ImageIdentifier(imageURL)
	if identifier == "" || im.store == nil {
		return
	}
	if err := im.store.Delete(ctx, identifier); err != nil {
		im.observer.ImageDeleteFailed(op)
		im.logger.Warn("Best-effort image delete failed",
			"op", op, "id", ownerID, "image", identifier,
			"err", &MediaError{Identifier: identifier, Op: "delete", Err: fmt.Errorf("%w: %w", ErrImageDeleteFailed, err)})
	}
}

// replace runs the image part of an update: when a new file is supplied the
// old image is released first, then the new one uploaded. It returns the URL
// the record should carry afterwards.
func (im images) replace(ctx context.Context, op, ownerID, currentURL string, upload *ImageUpload) (string, error) {
	if !upload.Present() {
		return currentURL, nil
	}
	if currentURL != "" {
		im.release(ctx, op, ownerID, currentURL)
	}
	return im.upload(ctx, op, upload)
}
