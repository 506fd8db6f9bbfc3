// ABOUTME: Bidirectional relay between private user chats and the admin group.
// ABOUTME: Formats admin posts, pins topic routing, and registers thread entries.

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/club-relay/internal/store"
	"github.com/2389/club-relay/internal/telegram"
	"github.com/2389/club-relay/internal/threadmap"
)

// GroupConfig locates the admin group and its topics.
type GroupConfig struct {
	GroupID            int64
	MessageTopicID     int64
	ApplicationTopicID int64
}

// Relay moves content between private chats and the admin group. Every
// admin-group post it creates is registered in the thread map before the
// call returns, so admin replies always have a routing entry to hit.
type Relay struct {
	sender  telegram.Sender
	store   store.Store
	threads *threadmap.Map
	group   GroupConfig
	logger  *slog.Logger
}

func New(sender telegram.Sender, s store.Store, threads *threadmap.Map, group GroupConfig, logger *slog.Logger) *Relay {
	return &Relay{
		sender:  sender,
		store:   s,
		threads: threads,
		group:   group,
		logger:  logger.With("component", "relay"),
	}
}

// userHeader renders the identifying block every admin-group post starts
// with: a clickable mention plus the raw numeric id.
func userHeader(user *store.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	uname := "(no username)"
	if user.Username != "" {
		uname = "@" + telegram.EscapeHTML(user.Username)
	}
	return fmt.Sprintf("👤 User: %s %s\n🆔 ID: %d",
		telegram.UserMention(user.UserID, name), uname, user.UserID)
}

// RelayUserMessage forwards one user message (text, file, or both) into
// the admin group's message topic and returns the group message id.
func (r *Relay) RelayUserMessage(ctx context.Context, user *store.User, text string, file *store.FileRef) (int64, error) {
	caption := userHeader(user)
	if text != "" {
		caption += "\n\n💬 Message: " + telegram.EscapeHTML(text)
	}
	if file != nil {
		caption += fmt.Sprintf("\n\n📎 File: %s\n📊 Size: %s\n🗂 Type: %s",
			telegram.EscapeHTML(file.FileName),
			telegram.FormatFileSize(file.FileSize),
			strings.ToUpper(string(file.Kind)))
	}

	var (
		groupMessageID int64
		err            error
	)
	if file != nil {
		groupMessageID, err = r.sender.SendMedia(ctx, telegram.SendMediaParams{
			ChatID:          r.group.GroupID,
			Kind:            file.Kind,
			FileID:          file.FileID,
			Caption:         caption,
			ParseMode:       telegram.ParseModeHTML,
			MessageThreadID: r.group.MessageTopicID,
		})
	} else {
		groupMessageID, err = r.sender.SendMessage(ctx, telegram.SendMessageParams{
			ChatID:          r.group.GroupID,
			Text:            caption,
			ParseMode:       telegram.ParseModeHTML,
			MessageThreadID: r.group.MessageTopicID,
		})
	}
	if err != nil {
		return 0, fmt.Errorf("relay message to admin group: %w", err)
	}

	if err := r.threads.RegisterMessage(ctx, groupMessageID, user.UserID); err != nil {
		return 0, err
	}

	r.logMessage(ctx, &store.MessageLog{
		UserID:         user.UserID,
		Direction:      store.DirectionToAdmin,
		Kind:           store.ThreadKindMessage,
		Content:        text,
		GroupMessageID: groupMessageID,
		TopicID:        r.group.MessageTopicID,
	}, file)

	r.logger.Info("user message relayed",
		"user_id", user.UserID,
		"group_message_id", groupMessageID,
		"has_file", file != nil)
	return groupMessageID, nil
}

// PostApplication publishes an application to the admin group: a summary
// post with the action keyboard, then each file as a reply to it. The
// summary carries the routing entry; file post failures are logged and
// skipped so one bad file id cannot block review.
func (r *Relay) PostApplication(ctx context.Context, user *store.User, app *store.Application) (int64, error) {
	var b strings.Builder
	b.WriteString("📋 NEW APPLICATION\n\n")
	b.WriteString(userHeader(user))
	fmt.Fprintf(&b, "\n📁 Files submitted: %d\n", len(app.Files))
	for i, f := range app.Files {
		fmt.Fprintf(&b, "\n%d. %s (%s)", i+1, telegram.EscapeHTML(f.FileName), telegram.FormatFileSize(f.FileSize))
	}

	summaryID, err := r.sender.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:          r.group.GroupID,
		Text:            b.String(),
		ParseMode:       telegram.ParseModeHTML,
		MessageThreadID: r.group.ApplicationTopicID,
		ReplyMarkup:     telegram.AdminActionsKeyboard(app.ID),
	})
	if err != nil {
		return 0, fmt.Errorf("post application summary: %w", err)
	}

	if err := r.threads.RegisterApplication(ctx, summaryID, user.UserID, app.ID); err != nil {
		return 0, err
	}

	r.logMessage(ctx, &store.MessageLog{
		UserID:         user.UserID,
		Direction:      store.DirectionToAdmin,
		Kind:           store.ThreadKindApplication,
		Content:        fmt.Sprintf("application %s", app.ID),
		GroupMessageID: summaryID,
		TopicID:        r.group.ApplicationTopicID,
	}, nil)

	for _, f := range app.Files {
		_, err := r.sender.SendMedia(ctx, telegram.SendMediaParams{
			ChatID:           r.group.GroupID,
			Kind:             f.Kind,
			FileID:           f.FileID,
			Caption:          telegram.EscapeHTML(f.FileName),
			MessageThreadID:  r.group.ApplicationTopicID,
			ReplyToMessageID: summaryID,
		})
		if err != nil {
			r.logger.Warn("application file post failed",
				"app_id", app.ID,
				"file_id", f.FileID,
				"error", err)
		}
	}

	r.logger.Info("application posted",
		"app_id", app.ID,
		"user_id", user.UserID,
		"group_message_id", summaryID,
		"files", len(app.Files))
	return summaryID, nil
}

// SendToUser delivers a text message to a user's private chat.
func (r *Relay) SendToUser(ctx context.Context, userID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	_, err := r.sender.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      userID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		return fmt.Errorf("send to user %d: %w", userID, err)
	}
	return nil
}

// RelayAdminReply forwards an admin-group reply to the resolved user and
// records it in the message log.
func (r *Relay) RelayAdminReply(ctx context.Context, userID, replyToGroupMessageID int64, text string, file *store.FileRef) error {
	body := "📨 Reply from admin:\n\n" + text

	var err error
	if file != nil {
		_, err = r.sender.SendMedia(ctx, telegram.SendMediaParams{
			ChatID:  userID,
			Kind:    file.Kind,
			FileID:  file.FileID,
			Caption: body,
		})
	} else {
		_, err = r.sender.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: userID,
			Text:   body,
		})
	}
	if err != nil {
		return fmt.Errorf("relay admin reply to user %d: %w", userID, err)
	}

	r.logMessage(ctx, &store.MessageLog{
		UserID:                userID,
		Direction:             store.DirectionToUser,
		Kind:                  store.ThreadKindMessage,
		Content:               text,
		ReplyToGroupMessageID: replyToGroupMessageID,
	}, file)

	r.logger.Info("admin reply relayed",
		"user_id", userID,
		"reply_to", replyToGroupMessageID)
	return nil
}

// logMessage records a relayed item. Logging is best-effort: a failed
// insert must not fail the relay that already happened.
func (r *Relay) logMessage(ctx context.Context, entry *store.MessageLog, file *store.FileRef) {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()
	if file != nil {
		entry.MediaKind = file.Kind
		entry.MediaFileID = file.FileID
		entry.FileName = file.FileName
		entry.FileSize = file.FileSize
	}
	if err := r.store.SaveMessageLog(ctx, entry); err != nil {
		r.logger.Warn("message log write failed",
			"user_id", entry.UserID,
			"error", err)
	}
}
