package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/example/voice-notifier/internal/asset"
	"github.com/example/voice-notifier/internal/recording"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotion emulates the subset of the Notion API the client uses.
type fakeNotion struct {
	mu           sync.Mutex
	pages        []map[string]any
	uploaded     []byte
	uploadName   string
	completed    bool
	failPath     string
	uploadStatus string
	srv          *httptest.Server
}

func newFakeNotion(t *testing.T) *fakeNotion {
	t.Helper()
	f := &fakeNotion{uploadStatus: UploadStatusUploaded}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/pages", f.guard(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.pages = append(f.pages, body)
		writeJSON(w, http.StatusOK, map[string]any{"object": "page", "id": "page-1"})
	}))
	mux.HandleFunc("POST /v1/file_uploads", f.guard(func(w http.ResponseWriter, r *http.Request) {
		var body createFileUploadRequest
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, FileUpload{
			ID:          "upload-1",
			Status:      UploadStatusPending,
			Filename:    body.Filename,
			ContentType: body.ContentType,
			UploadURL:   f.srv.URL + "/v1/file_uploads/upload-1/send",
		})
	}))
	mux.HandleFunc("POST /v1/file_uploads/upload-1/send", f.guard(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, APIError{Status: 400, Code: "validation_error", Message: err.Error()})
			return
		}
		defer file.Close()
		f.uploaded, _ = io.ReadAll(file)
		f.uploadName = header.Filename
		writeJSON(w, http.StatusOK, FileUpload{ID: "upload-1", Status: UploadStatusUploaded})
	}))
	mux.HandleFunc("POST /v1/file_uploads/upload-1/complete", f.guard(func(w http.ResponseWriter, r *http.Request) {
		f.completed = true
		writeJSON(w, http.StatusOK, FileUpload{ID: "upload-1", Status: UploadStatusUploaded})
	}))
	mux.HandleFunc("GET /v1/file_uploads/upload-1", f.guard(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, FileUpload{ID: "upload-1", Status: f.uploadStatus})
	}))
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeNotion) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer secret" || r.Header.Get("Notion-Version") == "" {
			writeJSON(w, http.StatusUnauthorized, APIError{Status: 401, Code: "unauthorized", Message: "API token is invalid."})
			return
		}
		if r.URL.Path == f.failPath {
			writeJSON(w, http.StatusBadRequest, APIError{Status: 400, Code: "validation_error", Message: "bad request"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestClient(f *fakeNotion, token string) *Client {
	return NewClient(Config{Token: token, BaseURL: f.srv.URL})
}

// ============================================
// Pages
// ============================================

func TestDatabaseSink_CreateRecord(t *testing.T) {
	f := newFakeNotion(t)
	sink := NewDatabaseSink(newTestClient(f, "secret"), "db-123")

	id, err := sink.CreateRecord(context.Background(), recording.Record{
		Title:       "aliceがGeneralに入室",
		UserName:    "alice",
		ChannelName: "General",
		GuildName:   "Study Room",
		KindLabel:   "入室",
		Timestamp:   "2025-04-01T21:00:00+09:00",
		Icon:        asset.Ref{SourceURL: "https://cdn.example.com/a.png"},
	})

	require.NoError(t, err)
	assert.Equal(t, "page-1", id)
	require.Len(t, f.pages, 1)

	page := f.pages[0]
	assert.Equal(t, "db-123", page["parent"].(map[string]any)["database_id"])
	props := page["properties"].(map[string]any)
	title := props[PropTitle].(map[string]any)["title"].([]any)[0].(map[string]any)
	assert.Equal(t, "aliceがGeneralに入室", title["text"].(map[string]any)["content"])
	assert.Equal(t, "入室", props[PropEventType].(map[string]any)["select"].(map[string]any)["name"])
	assert.Equal(t, "2025-04-01T21:00:00+09:00", props[PropTimestamp].(map[string]any)["date"].(map[string]any)["start"])
	icon := page["icon"].(map[string]any)
	assert.Equal(t, "external", icon["type"])
	assert.Equal(t, "https://cdn.example.com/a.png", icon["external"].(map[string]any)["url"])
}

func TestBuildPageRequest_Icons(t *testing.T) {
	hosted := buildPageRequest("db", recording.Record{Icon: asset.Ref{SourceURL: "https://a", UploadID: "upload-1"}})
	require.NotNil(t, hosted.Icon)
	assert.Equal(t, "file_upload", hosted.Icon.Type)
	assert.Equal(t, "upload-1", hosted.Icon.FileUpload.ID)

	none := buildPageRequest("db", recording.Record{})
	assert.Nil(t, none.Icon)
}

func TestClient_APIError(t *testing.T) {
	f := newFakeNotion(t)
	client := newTestClient(f, "wrong")

	_, err := client.CreatePage(context.Background(), CreatePageRequest{Parent: Parent{DatabaseID: "db"}})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "unauthorized", apiErr.Code)
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(Config{})

	_, err := client.CreatePage(context.Background(), CreatePageRequest{})

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, client.Configured())
}

// ============================================
// File uploads
// ============================================

func TestUploader_FullProtocol(t *testing.T) {
	f := newFakeNotion(t)
	uploader := NewUploader(newTestClient(f, "secret"))
	ctx := context.Background()

	slot, err := uploader.Open(ctx, "avatar.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "upload-1", slot.Handle)

	require.NoError(t, uploader.Transfer(ctx, slot, []byte("png-bytes")))
	require.NoError(t, uploader.Finalize(ctx, slot.Handle))
	hosted, err := uploader.Retrieve(ctx, slot.Handle)

	require.NoError(t, err)
	assert.Equal(t, "upload-1", hosted.ID)
	assert.Equal(t, []byte("png-bytes"), f.uploaded)
	assert.Equal(t, "avatar.png", f.uploadName)
	assert.True(t, f.completed)
}

func TestUploader_TransferRejected(t *testing.T) {
	f := newFakeNotion(t)
	f.failPath = "/v1/file_uploads/upload-1/send"
	uploader := NewUploader(newTestClient(f, "secret"))
	ctx := context.Background()

	slot, err := uploader.Open(ctx, "avatar.png", "image/png")
	require.NoError(t, err)

	err = uploader.Transfer(ctx, slot, []byte("png-bytes"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestUploader_RetrieveNotUploaded(t *testing.T) {
	f := newFakeNotion(t)
	f.uploadStatus = UploadStatusPending
	uploader := NewUploader(newTestClient(f, "secret"))

	_, err := uploader.Retrieve(context.Background(), "upload-1")

	assert.Error(t, err)
}
