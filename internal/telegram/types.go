// ABOUTME: Bot API wire types for incoming updates and their payloads.
// ABOUTME: Covers the subset of the Telegram schema club-relay consumes.

package telegram

import (
	"strings"

	"github.com/2389/club-relay/internal/store"
)

// Update is one inbound event delivered by the Bot API webhook.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	EditedMessage *Message       `json:"edited_message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is the subset of the Bot API message schema we consume.
type Message struct {
	MessageID       int64    `json:"message_id"`
	Date            int64    `json:"date,omitempty"`
	Chat            *Chat    `json:"chat,omitempty"`
	From            *User    `json:"from,omitempty"`
	MessageThreadID int64    `json:"message_thread_id,omitempty"`
	ReplyTo         *Message `json:"reply_to_message,omitempty"`
	Text            string   `json:"text,omitempty"`
	Caption         string   `json:"caption,omitempty"`

	// Attachments. At most one is set per message; Photo carries all
	// available resolutions of a single photo.
	Photo     []PhotoSize `json:"photo,omitempty"`
	Audio     *Audio      `json:"audio,omitempty"`
	Voice     *Voice      `json:"voice,omitempty"`
	Video     *Video      `json:"video,omitempty"`
	Document  *Document   `json:"document,omitempty"`
	VideoNote *VideoNote  `json:"video_note,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"` // private|group|supergroup|channel
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// CallbackQuery is an inline keyboard button press.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

type PhotoSize struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type Audio struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type Voice struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size,omitempty"`
}

type Video struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type VideoNote struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size,omitempty"`
}

// FileOf extracts the single attached file from a message, if any.
// For photos the largest available resolution is chosen; the Bot API
// sorts sizes ascending but we scan to be safe.
func FileOf(msg *Message) (store.FileRef, bool) {
	switch {
	case len(msg.Photo) > 0:
		best := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if p.Width*p.Height > best.Width*best.Height {
				best = p
			}
		}
		return store.FileRef{FileID: best.FileID, FileName: "photo.jpg", FileSize: best.FileSize, Kind: store.MediaPhoto}, true
	case msg.Audio != nil:
		return store.FileRef{FileID: msg.Audio.FileID, FileName: orDefault(msg.Audio.FileName, "audio"), FileSize: msg.Audio.FileSize, Kind: store.MediaAudio}, true
	case msg.Voice != nil:
		return store.FileRef{FileID: msg.Voice.FileID, FileName: "voice message", FileSize: msg.Voice.FileSize, Kind: store.MediaVoice}, true
	case msg.Video != nil:
		return store.FileRef{FileID: msg.Video.FileID, FileName: orDefault(msg.Video.FileName, "video"), FileSize: msg.Video.FileSize, Kind: store.MediaVideo}, true
	case msg.Document != nil:
		return store.FileRef{FileID: msg.Document.FileID, FileName: orDefault(msg.Document.FileName, "document"), FileSize: msg.Document.FileSize, Kind: store.MediaDocument}, true
	case msg.VideoNote != nil:
		return store.FileRef{FileID: msg.VideoNote.FileID, FileName: "video note", FileSize: msg.VideoNote.FileSize, Kind: store.MediaVideoNote}, true
	}
	return store.FileRef{}, false
}

// TextOf returns the text content of a message, preferring Text over Caption.
func TextOf(msg *Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// DisplayName builds a human-readable name for a user.
func DisplayName(u *User) string {
	if u == nil {
		return ""
	}
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	username := strings.TrimSpace(u.Username)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	case username != "":
		return "@" + username
	default:
		return ""
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
