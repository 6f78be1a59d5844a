package notion

import (
	"context"
	"fmt"
	"net/http"
)

type Text struct {
	Content string `json:"content"`
}

type RichText struct {
	Type string `json:"type"`
	Text Text   `json:"text"`
}

// PlainText builds a single-segment rich text array.
func PlainText(content string) []RichText {
	return []RichText{{Type: "text", Text: Text{Content: content}}}
}

type SelectOption struct {
	Name string `json:"name"`
}

type DateValue struct {
	Start string `json:"start"`
}

// Property is a page property value. Exactly one field should be set.
type Property struct {
	Title    []RichText    `json:"title,omitempty"`
	RichText []RichText    `json:"rich_text,omitempty"`
	Select   *SelectOption `json:"select,omitempty"`
	Date     *DateValue    `json:"date,omitempty"`
}

type ExternalFile struct {
	URL string `json:"url"`
}

type FileUploadRef struct {
	ID string `json:"id"`
}

// Icon is a page icon backed by either an external link or an uploaded file.
type Icon struct {
	Type       string         `json:"type"`
	External   *ExternalFile  `json:"external,omitempty"`
	FileUpload *FileUploadRef `json:"file_upload,omitempty"`
}

func ExternalIcon(url string) *Icon {
	return &Icon{Type: "external", External: &ExternalFile{URL: url}}
}

func UploadedIcon(uploadID string) *Icon {
	return &Icon{Type: "file_upload", FileUpload: &FileUploadRef{ID: uploadID}}
}

type Parent struct {
	DatabaseID string `json:"database_id"`
}

type CreatePageRequest struct {
	Parent     Parent              `json:"parent"`
	Properties map[string]Property `json:"properties"`
	Icon       *Icon               `json:"icon,omitempty"`
}

type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreatePage adds a row to a database.
func (c *Client) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
	var page Page
	if err := c.doJSON(ctx, http.MethodPost, "/v1/pages", req, &page); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &page, nil
}
