// ABOUTME: Router, the per-update orchestrator enforcing the state machine.
// ABOUTME: Dedupe first, then origin dispatch: private chat vs admin group.

package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/2389/club-relay/internal/dedupe"
	"github.com/2389/club-relay/internal/draft"
	"github.com/2389/club-relay/internal/registry"
	"github.com/2389/club-relay/internal/relay"
	"github.com/2389/club-relay/internal/store"
	"github.com/2389/club-relay/internal/telegram"
	"github.com/2389/club-relay/internal/threadmap"
)

// Options wires a Router. All fields are required.
type Options struct {
	Store        store.Store
	Guard        dedupe.Guard
	Drafts       *draft.Assembler
	Registry     *registry.Registry
	Relay        *relay.Relay
	Threads      *threadmap.Map
	Sender       telegram.Sender
	AdminGroupID int64
	Logger       *slog.Logger
}

// Router turns inbound updates into state transitions and outbound
// sends. Updates for one user are serialized through a per-user lock;
// admin-group traffic bypasses user state entirely and routes through
// the thread map.
type Router struct {
	store        store.Store
	guard        dedupe.Guard
	drafts       *draft.Assembler
	registry     *registry.Registry
	relay        *relay.Relay
	threads      *threadmap.Map
	sender       telegram.Sender
	adminGroupID int64
	logger       *slog.Logger
	locks        *userLocks
}

func New(opts Options) *Router {
	return &Router{
		store:        opts.Store,
		guard:        opts.Guard,
		drafts:       opts.Drafts,
		registry:     opts.Registry,
		relay:        opts.Relay,
		threads:      opts.Threads,
		sender:       opts.Sender,
		adminGroupID: opts.AdminGroupID,
		logger:       opts.Logger.With("component", "router"),
		locks:        newUserLocks(),
	}
}

// HandleUpdate processes one inbound update. The duplicate guard runs
// before any side effect so a redelivered update is dropped whole.
// Errors are internal: the webhook acknowledges regardless.
func (r *Router) HandleUpdate(ctx context.Context, u *telegram.Update) error {
	key := strconv.FormatInt(u.UpdateID, 10)
	dup, err := r.guard.Seen(ctx, key)
	if err != nil {
		// A broken guard must not take the bot down; redelivery within
		// the outage window may then be processed twice.
		r.logger.Warn("duplicate guard unavailable", "update_id", u.UpdateID, "error", err)
	} else if dup {
		r.logger.Debug("duplicate update dropped", "update_id", u.UpdateID)
		return nil
	}

	switch {
	case u.CallbackQuery != nil:
		return r.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		return r.handleMessage(ctx, u.Message)
	}
	// Edited messages and other update kinds carry no flow semantics
	return nil
}

func (r *Router) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg.Chat == nil {
		return nil
	}
	if msg.Chat.ID == r.adminGroupID {
		return r.handleAdminMessage(ctx, msg)
	}
	if msg.Chat.Type != "private" || msg.From == nil || msg.From.IsBot {
		return nil
	}

	unlock := r.locks.acquire(msg.From.ID)
	defer unlock()
	return r.handleUserMessage(ctx, msg)
}

func (r *Router) handleUserMessage(ctx context.Context, msg *telegram.Message) error {
	from := msg.From

	if strings.HasPrefix(msg.Text, "/start") {
		return r.handleStart(ctx, from)
	}

	user, err := r.store.GetUser(ctx, from.ID)
	if errors.Is(err, store.ErrNotFound) {
		return r.reply(ctx, from.ID, textPleaseStart, nil)
	}
	if err != nil {
		r.logger.Error("load user failed", "user_id", from.ID, "error", err)
		return r.reply(ctx, from.ID, textGenericError, nil)
	}

	switch user.State {
	case store.StateAwaitingAdminMessage:
		return r.handleAdminBoundMessage(ctx, user, msg)
	case store.StateCollectingApplication:
		return r.handleApplicationFile(ctx, user, msg)
	default:
		return r.reply(ctx, from.ID, textMenu, telegram.MainMenuKeyboard())
	}
}

func (r *Router) handleStart(ctx context.Context, from *telegram.User) error {
	user := &store.User{
		UserID:    from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
	if err := r.store.UpsertUser(ctx, user); err != nil {
		r.logger.Error("register user failed", "user_id", from.ID, "error", err)
		return r.reply(ctx, from.ID, textGenericError, nil)
	}
	r.logger.Info("user registered", "user_id", from.ID, "username", from.Username)
	return r.reply(ctx, from.ID, textWelcome, telegram.MainMenuKeyboard())
}

// handleAdminBoundMessage relays one message from a user in the
// awaiting state to the admin group and returns the user to idle.
func (r *Router) handleAdminBoundMessage(ctx context.Context, user *store.User, msg *telegram.Message) error {
	text := telegram.TextOf(msg)
	file, hasFile := telegram.FileOf(msg)
	if text == "" && !hasFile {
		return r.reply(ctx, user.UserID, textMessagePrompt, telegram.CancelKeyboard())
	}

	var fileRef *store.FileRef
	if hasFile {
		fileRef = &file
	}
	if _, err := r.relay.RelayUserMessage(ctx, user, text, fileRef); err != nil {
		r.logger.Error("relay to admin group failed", "user_id", user.UserID, "error", err)
		return r.reply(ctx, user.UserID, textGenericError, nil)
	}

	if err := r.store.SetUserState(ctx, user.UserID, store.StateIdle); err != nil {
		r.logger.Error("state reset failed", "user_id", user.UserID, "error", err)
	}
	return r.reply(ctx, user.UserID, textMessageSent, telegram.BackToMenuKeyboard())
}

// handleApplicationFile appends one file to the draft of a collecting
// user. Rejections leave both state and draft untouched.
func (r *Router) handleApplicationFile(ctx context.Context, user *store.User, msg *telegram.Message) error {
	file, ok := telegram.FileOf(msg)
	if !ok {
		return r.reply(ctx, user.UserID, textSendFile, telegram.SubmitKeyboard())
	}

	count, err := r.drafts.AddFile(ctx, user.UserID, file)
	if errors.Is(err, draft.ErrFileTooLarge) {
		rejection := fmt.Sprintf(textFileTooLarge, telegram.FormatFileSize(r.drafts.MaxFileSize()))
		return r.reply(ctx, user.UserID, rejection, telegram.SubmitKeyboard())
	}
	if err != nil {
		r.logger.Error("draft append failed", "user_id", user.UserID, "error", err)
		return r.reply(ctx, user.UserID, textGenericError, nil)
	}

	confirmation := fmt.Sprintf("📎 File %d received: %s", count, file.FileName)
	return r.reply(ctx, user.UserID, confirmation, telegram.SubmitKeyboard())
}

// handleAdminMessage routes admin-group traffic. Only replies to posts
// the relay authored matter; everything else is invisible here.
func (r *Router) handleAdminMessage(ctx context.Context, msg *telegram.Message) error {
	if msg.ReplyTo == nil || msg.From == nil || msg.From.IsBot {
		return nil
	}

	entry, err := r.threads.Resolve(ctx, msg.ReplyTo.MessageID)
	if errors.Is(err, threadmap.ErrUnmapped) {
		r.logger.Debug("untracked admin reply ignored", "reply_to", msg.ReplyTo.MessageID)
		return nil
	}
	if err != nil {
		r.logger.Error("thread resolve failed", "reply_to", msg.ReplyTo.MessageID, "error", err)
		return nil
	}

	text := telegram.TextOf(msg)
	file, hasFile := telegram.FileOf(msg)

	// Replies to an application summary may carry a review verdict as
	// plain text instead of a button press.
	if entry.Kind == store.ThreadKindApplication && !hasFile {
		if action, note, ok := parseVerdict(text); ok {
			result, settled := r.applyAdminAction(ctx, action, entry.ApplicationID, note)
			r.groupNotice(ctx, msg, result)
			// A settled verdict retires the summary keyboard, same as
			// the button path
			if settled && action != telegram.AdminActionRequestMore {
				if err := r.sender.ClearReplyMarkup(ctx, msg.Chat.ID, msg.ReplyTo.MessageID); err != nil {
					r.logger.Warn("keyboard cleanup failed", "error", err)
				}
			}
			return nil
		}
	}

	var fileRef *store.FileRef
	if hasFile {
		fileRef = &file
	}
	if err := r.relay.RelayAdminReply(ctx, entry.UserID, msg.ReplyTo.MessageID, text, fileRef); err != nil {
		r.logger.Error("admin reply relay failed", "user_id", entry.UserID, "error", err)
	}
	return nil
}

// parseVerdict interprets an admin reply as a lifecycle action: the
// first word decides, the remainder becomes the admin note.
func parseVerdict(text string) (action, note string, ok bool) {
	head, rest, _ := strings.Cut(strings.TrimSpace(text), " ")
	switch strings.ToLower(head) {
	case telegram.AdminActionApprove, telegram.AdminActionReject, telegram.AdminActionRequestMore:
		return strings.ToLower(head), strings.TrimSpace(rest), true
	}
	return "", "", false
}

// applyAdminAction runs one lifecycle action and returns the outcome
// text for the acting admin, shared by text verdicts and buttons.
func (r *Router) applyAdminAction(ctx context.Context, action, appID, note string) (string, bool) {
	var err error
	switch action {
	case telegram.AdminActionApprove:
		_, err = r.registry.Approve(ctx, appID, note)
	case telegram.AdminActionReject:
		_, err = r.registry.Reject(ctx, appID, note)
	case telegram.AdminActionRequestMore:
		_, err = r.registry.RequestMore(ctx, appID)
	default:
		return "", false
	}

	switch {
	case errors.Is(err, registry.ErrInvalidTransition):
		return "⚠️ This application has already been processed.", false
	case errors.Is(err, store.ErrNotFound):
		return "⚠️ Unknown application.", false
	case err != nil:
		r.logger.Error("admin action failed", "action", action, "app_id", appID, "error", err)
		return "⚠️ Action failed, please retry.", false
	}

	switch action {
	case telegram.AdminActionApprove:
		return "✅ Application approved.", true
	case telegram.AdminActionReject:
		return "❌ Application rejected.", true
	default:
		return "📎 More files requested.", true
	}
}

// groupNotice posts a short outcome reply in the admin group.
func (r *Router) groupNotice(ctx context.Context, inReplyTo *telegram.Message, text string) {
	_, err := r.sender.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:           inReplyTo.Chat.ID,
		Text:             text,
		MessageThreadID:  inReplyTo.MessageThreadID,
		ReplyToMessageID: inReplyTo.MessageID,
	})
	if err != nil {
		r.logger.Warn("group notice failed", "error", err)
	}
}

// reply sends a text to a private chat, logging failures.
func (r *Router) reply(ctx context.Context, userID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	if err := r.relay.SendToUser(ctx, userID, text, markup); err != nil {
		r.logger.Error("user reply failed", "user_id", userID, "error", err)
		return err
	}
	return nil
}
