package asset

import (
	"context"
	"net/http"
)

// Slot is an open upload returned by the first step of the rehosting protocol.
type Slot struct {
	Handle      string
	Target      string
	Headers     http.Header
	Filename    string
	ContentType string
}

// Hosted identifies a finalized upload in the sink's storage.
// URL is empty when the sink addresses uploads by ID only.
type Hosted struct {
	ID  string
	URL string
}

// Uploader is the sink's rehosting protocol: open a slot, transfer the bytes
// in one part, finalize, then read back the hosted asset.
type Uploader interface {
	Open(ctx context.Context, filename, contentType string) (Slot, error)
	Transfer(ctx context.Context, slot Slot, data []byte) error
	Finalize(ctx context.Context, handle string) error
	Retrieve(ctx context.Context, handle string) (Hosted, error)
}

// Ref is the result of materializing an avatar. It always carries the source
// URL; UploadID is set only when rehosting succeeded.
type Ref struct {
	SourceURL string
	UploadID  string
	HostedURL string
}

// Hosted reports whether the asset lives in the sink's own storage.
func (r Ref) Hosted() bool {
	return r.UploadID != ""
}

// URL returns the link to use for display: the hosted one when the sink
// exposes it, the source URL otherwise.
func (r Ref) URL() string {
	if r.HostedURL != "" {
		return r.HostedURL
	}
	return r.SourceURL
}
