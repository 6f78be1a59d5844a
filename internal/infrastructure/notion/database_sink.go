package notion

import (
	"context"

	"github.com/example/voice-notifier/internal/recording"
)

// Property names of the voice history database.
const (
	PropTitle     = "名前"
	PropUserName  = "ユーザー名"
	PropChannel   = "チャンネル名"
	PropGuild     = "サーバー名"
	PropEventType = "イベントタイプ"
	PropTimestamp = "日時"
)

// DatabaseSink writes history records as pages of one database.
type DatabaseSink struct {
	client     *Client
	databaseID string
}

// NewDatabaseSink creates a sink writing into the given database.
func NewDatabaseSink(client *Client, databaseID string) *DatabaseSink {
	return &DatabaseSink{client: client, databaseID: databaseID}
}

// CreateRecord adds the record as a page and returns its id.
func (s *DatabaseSink) CreateRecord(ctx context.Context, r recording.Record) (string, error) {
	page, err := s.client.CreatePage(ctx, buildPageRequest(s.databaseID, r))
	if err != nil {
		return "", err
	}
	return page.ID, nil
}

func buildPageRequest(databaseID string, r recording.Record) CreatePageRequest {
	req := CreatePageRequest{
		Parent: Parent{DatabaseID: databaseID},
		Properties: map[string]Property{
			PropTitle:     {Title: PlainText(r.Title)},
			PropUserName:  {RichText: PlainText(r.UserName)},
			PropChannel:   {RichText: PlainText(r.ChannelName)},
			PropGuild:     {RichText: PlainText(r.GuildName)},
			PropEventType: {Select: &SelectOption{Name: r.KindLabel}},
			PropTimestamp: {Date: &DateValue{Start: r.Timestamp}},
		},
	}
	switch {
	case r.Icon.Hosted():
		req.Icon = UploadedIcon(r.Icon.UploadID)
	case r.Icon.SourceURL != "":
		req.Icon = ExternalIcon(r.Icon.SourceURL)
	}
	return req
}

var _ recording.Sink = (*DatabaseSink)(nil)
