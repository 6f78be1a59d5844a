package notion

import (
	"context"
	"fmt"

	"github.com/example/voice-notifier/internal/asset"
)

// Uploader rehosts assets through Notion file uploads.
type Uploader struct {
	client *Client
}

// NewUploader creates an uploader backed by Notion file uploads.
func NewUploader(client *Client) *Uploader {
	return &Uploader{client: client}
}

// Open creates a file upload and returns its send target.
func (u *Uploader) Open(ctx context.Context, filename, contentType string) (asset.Slot, error) {
	upload, err := u.client.CreateFileUpload(ctx, filename, contentType)
	if err != nil {
		return asset.Slot{}, err
	}
	return asset.Slot{
		Handle:      upload.ID,
		Target:      upload.UploadURL,
		Headers:     u.client.headers(),
		Filename:    filename,
		ContentType: contentType,
	}, nil
}

// Transfer sends the bytes to the slot opened by Open.
func (u *Uploader) Transfer(ctx context.Context, slot asset.Slot, data []byte) error {
	return u.client.SendFileUpload(ctx, slot.Target, slot.Headers, slot.Filename, slot.ContentType, data)
}

// Finalize completes the upload.
func (u *Uploader) Finalize(ctx context.Context, handle string) error {
	return u.client.CompleteFileUpload(ctx, handle)
}

// Retrieve checks that the upload reached the uploaded state. Notion
// addresses uploads by id, so the hosted URL is left empty.
func (u *Uploader) Retrieve(ctx context.Context, handle string) (asset.Hosted, error) {
	upload, err := u.client.RetrieveFileUpload(ctx, handle)
	if err != nil {
		return asset.Hosted{}, err
	}
	if upload.Status != UploadStatusUploaded {
		return asset.Hosted{}, fmt.Errorf("file upload %s is %q, want %q", handle, upload.Status, UploadStatusUploaded)
	}
	return asset.Hosted{ID: upload.ID}, nil
}

var _ asset.Uploader = (*Uploader)(nil)
