// ABOUTME: Media send dispatch, one table mapping MediaKind to Bot API method.
// ABOUTME: Adding a new media kind means adding one row here and one constant in store.

package telegram

import (
	"context"
	"fmt"

	"github.com/2389/club-relay/internal/store"
)

// mediaMethod names the Bot API method and payload field for one media kind.
type mediaMethod struct {
	method string
	field  string
	// video notes cannot carry captions per the Bot API
	supportsCaption bool
}

var mediaMethods = map[store.MediaKind]mediaMethod{
	store.MediaPhoto:     {method: "sendPhoto", field: "photo", supportsCaption: true},
	store.MediaAudio:     {method: "sendAudio", field: "audio", supportsCaption: true},
	store.MediaVoice:     {method: "sendVoice", field: "voice", supportsCaption: true},
	store.MediaVideo:     {method: "sendVideo", field: "video", supportsCaption: true},
	store.MediaDocument:  {method: "sendDocument", field: "document", supportsCaption: true},
	store.MediaVideoNote: {method: "sendVideoNote", field: "video_note", supportsCaption: false},
}

// SendMediaParams are the fields shared by all media send methods.
type SendMediaParams struct {
	ChatID           int64
	Kind             store.MediaKind
	FileID           string
	Caption          string
	ParseMode        string
	MessageThreadID  int64
	ReplyToMessageID int64
	ReplyMarkup      *InlineKeyboardMarkup
}

// SendMedia re-sends an already-uploaded file by file id and returns the
// new message id. The method is chosen from the dispatch table above.
func (c *Client) SendMedia(ctx context.Context, p SendMediaParams) (int64, error) {
	mm, ok := mediaMethods[p.Kind]
	if !ok {
		return 0, fmt.Errorf("unsupported media kind %q", p.Kind)
	}

	payload := map[string]any{
		"chat_id": p.ChatID,
		mm.field:  p.FileID,
	}
	if p.Caption != "" && mm.supportsCaption {
		payload["caption"] = p.Caption
		if p.ParseMode != "" {
			payload["parse_mode"] = p.ParseMode
		}
	}
	if p.MessageThreadID != 0 {
		payload["message_thread_id"] = p.MessageThreadID
	}
	if p.ReplyToMessageID != 0 {
		payload["reply_to_message_id"] = p.ReplyToMessageID
	}
	if p.ReplyMarkup != nil {
		payload["reply_markup"] = p.ReplyMarkup
	}

	var result Message
	if err := c.call(ctx, mm.method, payload, &result); err != nil {
		return 0, err
	}
	return result.MessageID, nil
}
