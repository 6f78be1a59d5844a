package notion

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

const (
	UploadStatusPending  = "pending"
	UploadStatusUploaded = "uploaded"
)

// FileUpload is a Notion file upload object.
type FileUpload struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	UploadURL   string `json:"upload_url"`
}

type createFileUploadRequest struct {
	Mode        string `json:"mode"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// CreateFileUpload opens a single-part upload slot.
func (c *Client) CreateFileUpload(ctx context.Context, filename, contentType string) (*FileUpload, error) {
	var upload FileUpload
	req := createFileUploadRequest{Mode: "single_part", Filename: filename, ContentType: contentType}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/file_uploads", req, &upload); err != nil {
		return nil, fmt.Errorf("create file upload: %w", err)
	}
	if upload.ID == "" || upload.UploadURL == "" {
		return nil, fmt.Errorf("create file upload: response missing id or upload_url")
	}
	return &upload, nil
}

// SendFileUpload writes the file contents to uploadURL as a single part.
func (c *Client) SendFileUpload(ctx context.Context, uploadURL string, header http.Header, filename, contentType string, data []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	partHeader.Set("Content-Type", contentType)
	part, err := mw.CreatePart(partHeader)
	if err != nil {
		return fmt.Errorf("send file upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("send file upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("send file upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return fmt.Errorf("send file upload: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("send file upload: %w", err)
	}
	return nil
}

// CompleteFileUpload marks an upload as finished.
func (c *Client) CompleteFileUpload(ctx context.Context, id string) error {
	path := "/v1/file_uploads/" + url.PathEscape(id) + "/complete"
	if err := c.doJSON(ctx, http.MethodPost, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("complete file upload: %w", err)
	}
	return nil
}

// RetrieveFileUpload fetches the current state of an upload.
func (c *Client) RetrieveFileUpload(ctx context.Context, id string) (*FileUpload, error) {
	var upload FileUpload
	if err := c.doJSON(ctx, http.MethodGet, "/v1/file_uploads/"+url.PathEscape(id), nil, &upload); err != nil {
		return nil, fmt.Errorf("retrieve file upload: %w", err)
	}
	return &upload, nil
}
