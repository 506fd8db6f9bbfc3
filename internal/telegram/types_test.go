// ABOUTME: Tests for update payload helpers
// ABOUTME: File extraction across media kinds, display names, HTML formatting

package telegram

import (
	"testing"

	"github.com/2389/club-relay/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileOf_PicksLargestPhoto(t *testing.T) {
	msg := &Message{Photo: []PhotoSize{
		{FileID: "small", Width: 90, Height: 90, FileSize: 1000},
		{FileID: "large", Width: 1280, Height: 960, FileSize: 90000},
		{FileID: "medium", Width: 320, Height: 240, FileSize: 9000},
	}}

	ref, ok := FileOf(msg)
	require.True(t, ok)
	assert.Equal(t, "large", ref.FileID)
	assert.Equal(t, store.MediaPhoto, ref.Kind)
}

func TestFileOf_Document(t *testing.T) {
	msg := &Message{Document: &Document{FileID: "d1", FileName: "cv.pdf", FileSize: 2048}}

	ref, ok := FileOf(msg)
	require.True(t, ok)
	assert.Equal(t, store.MediaDocument, ref.Kind)
	assert.Equal(t, "cv.pdf", ref.FileName)
	assert.Equal(t, int64(2048), ref.FileSize)
}

func TestFileOf_VoiceHasPlaceholderName(t *testing.T) {
	msg := &Message{Voice: &Voice{FileID: "v1", FileSize: 512}}

	ref, ok := FileOf(msg)
	require.True(t, ok)
	assert.Equal(t, store.MediaVoice, ref.Kind)
	assert.NotEmpty(t, ref.FileName)
}

func TestFileOf_TextOnly(t *testing.T) {
	_, ok := FileOf(&Message{Text: "just text"})
	assert.False(t, ok)
}

func TestTextOf(t *testing.T) {
	assert.Equal(t, "hi", TextOf(&Message{Text: "hi"}))
	assert.Equal(t, "cap", TextOf(&Message{Caption: "cap"}))
	assert.Equal(t, "", TextOf(&Message{}))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Alice Smith", DisplayName(&User{FirstName: "Alice", LastName: "Smith"}))
	assert.Equal(t, "Alice", DisplayName(&User{FirstName: "Alice"}))
	assert.Equal(t, "@alice", DisplayName(&User{Username: "alice"}))
	assert.Equal(t, "", DisplayName(nil))
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; c", EscapeHTML("a <b> & c"))
}

func TestUserMention(t *testing.T) {
	got := UserMention(42, "Alice <3")
	assert.Equal(t, `<a href="tg://user?id=42">Alice &lt;3</a>`, got)

	anon := UserMention(42, "")
	assert.Contains(t, anon, "user 42")
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "2.0 KB", FormatFileSize(2048))
	assert.Equal(t, "1.50 MB", FormatFileSize(1572864))
}
