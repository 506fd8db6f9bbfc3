// ABOUTME: Applicant-facing lifecycle notifications delivered over the relay.
// ABOUTME: Satisfies the registry's Notifier without importing it.

package relay

import (
	"context"

	"github.com/2389/club-relay/internal/telegram"
)

const (
	approvedText    = "🎉 Congratulations! Your application has been approved."
	rejectedText    = "❌ Sorry, your application has been rejected."
	requestMoreText = "📎 The admins would like you to send additional files for your application. Use 📝 Apply to add more."
	adminNotePrefix = "\n\n📝 Note from the admins: "
)

// ApplicationApproved tells the user their application was approved.
func (r *Relay) ApplicationApproved(ctx context.Context, userID int64, note string) error {
	text := approvedText
	if note != "" {
		text += adminNotePrefix + note
	}
	return r.SendToUser(ctx, userID, text, telegram.BackToMenuKeyboard())
}

// ApplicationRejected tells the user their application was rejected.
func (r *Relay) ApplicationRejected(ctx context.Context, userID int64, note string) error {
	text := rejectedText
	if note != "" {
		text += adminNotePrefix + note
	}
	return r.SendToUser(ctx, userID, text, telegram.BackToMenuKeyboard())
}

// MoreFilesRequested asks the user for additional files.
func (r *Relay) MoreFilesRequested(ctx context.Context, userID int64) error {
	return r.SendToUser(ctx, userID, requestMoreText, telegram.BackToMenuKeyboard())
}
