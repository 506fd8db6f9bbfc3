// ABOUTME: Callback query handling for user menus and admin action buttons.
// ABOUTME: Every callback is acknowledged; admin actions clear the keyboard.

package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2389/club-relay/internal/registry"
	"github.com/2389/club-relay/internal/store"
	"github.com/2389/club-relay/internal/telegram"
)

func (r *Router) handleCallback(ctx context.Context, cq *telegram.CallbackQuery) error {
	if cq.From == nil {
		return nil
	}

	if strings.HasPrefix(cq.Data, "app:") {
		return r.handleAdminCallback(ctx, cq)
	}

	unlock := r.locks.acquire(cq.From.ID)
	defer unlock()
	return r.handleUserCallback(ctx, cq)
}

func (r *Router) handleUserCallback(ctx context.Context, cq *telegram.CallbackQuery) error {
	r.ack(ctx, cq.ID, "")

	userID := cq.From.ID
	user, err := r.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return r.reply(ctx, userID, textPleaseStart, nil)
	}
	if err != nil {
		r.logger.Error("load user failed", "user_id", userID, "error", err)
		return r.reply(ctx, userID, textGenericError, nil)
	}

	switch cq.Data {
	case telegram.CallbackMessageAdmin:
		return r.startAdminMessage(ctx, user)
	case telegram.CallbackApply:
		return r.startApplication(ctx, user)
	case telegram.CallbackSubmit:
		return r.submitApplication(ctx, user)
	case telegram.CallbackCancel, telegram.CallbackBackToMenu:
		// The draft is retained; cancel only leaves the flow
		if err := r.store.SetUserState(ctx, userID, store.StateIdle); err != nil {
			r.logger.Error("state reset failed", "user_id", userID, "error", err)
		}
		return r.reply(ctx, userID, textMenu, telegram.MainMenuKeyboard())
	default:
		r.logger.Debug("unknown callback ignored", "data", cq.Data)
		return nil
	}
}

func (r *Router) startAdminMessage(ctx context.Context, user *store.User) error {
	if err := r.store.SetUserState(ctx, user.UserID, store.StateAwaitingAdminMessage); err != nil {
		r.logger.Error("state change failed", "user_id", user.UserID, "error", err)
		return r.reply(ctx, user.UserID, textGenericError, nil)
	}
	return r.reply(ctx, user.UserID, textMessagePrompt, telegram.CancelKeyboard())
}

func (r *Router) startApplication(ctx context.Context, user *store.User) error {
	if user.ApplicationStatus == store.AppStatusPending {
		return r.reply(ctx, user.UserID, textAlreadyApplied, telegram.BackToMenuKeyboard())
	}

	if err := r.store.SetUserState(ctx, user.UserID, store.StateCollectingApplication); err != nil {
		r.logger.Error("state change failed", "user_id", user.UserID, "error", err)
		return r.reply(ctx, user.UserID, textGenericError, nil)
	}

	// A retained draft resumes where the user left off
	files, err := r.drafts.Files(ctx, user.UserID)
	if err != nil {
		r.logger.Warn("draft lookup failed", "user_id", user.UserID, "error", err)
	}
	if len(files) > 0 {
		resume := fmt.Sprintf("📂 You have %d file(s) in your draft. Send more or press Submit.", len(files))
		return r.reply(ctx, user.UserID, resume, telegram.SubmitKeyboard())
	}
	return r.reply(ctx, user.UserID, textApplyPrompt, telegram.CancelKeyboard())
}

func (r *Router) submitApplication(ctx context.Context, user *store.User) error {
	files, err := r.drafts.Files(ctx, user.UserID)
	if err != nil {
		r.logger.Error("draft lookup failed", "user_id", user.UserID, "error", err)
		return r.reply(ctx, user.UserID, textGenericError, nil)
	}

	app, err := r.registry.Submit(ctx, user.UserID, files)
	if errors.Is(err, registry.ErrEmptyApplication) {
		return r.reply(ctx, user.UserID, textNoFilesYet, telegram.CancelKeyboard())
	}
	if errors.Is(err, registry.ErrAlreadyPending) {
		return r.reply(ctx, user.UserID, textAlreadyApplied, telegram.BackToMenuKeyboard())
	}
	if err != nil {
		r.logger.Error("submit failed", "user_id", user.UserID, "error", err)
		return r.reply(ctx, user.UserID, textGenericError, nil)
	}

	if _, err := r.relay.PostApplication(ctx, user, app); err != nil {
		// The application exists; admins just did not see it yet. Log
		// loudly rather than confusing the user with a failure.
		r.logger.Error("application post failed", "app_id", app.ID, "error", err)
	}

	if err := r.drafts.Clear(ctx, user.UserID); err != nil {
		r.logger.Warn("draft clear failed", "user_id", user.UserID, "error", err)
	}
	if err := r.store.SetUserState(ctx, user.UserID, store.StateIdle); err != nil {
		r.logger.Error("state reset failed", "user_id", user.UserID, "error", err)
	}
	return r.reply(ctx, user.UserID, textSubmitted, telegram.BackToMenuKeyboard())
}

// handleAdminCallback processes an app:<action>:<id> button press on an
// application summary post.
func (r *Router) handleAdminCallback(ctx context.Context, cq *telegram.CallbackQuery) error {
	parts := strings.SplitN(cq.Data, ":", 3)
	if len(parts) != 3 || parts[2] == "" {
		r.ack(ctx, cq.ID, "")
		return nil
	}
	action, appID := parts[1], parts[2]

	result, ok := r.applyAdminAction(ctx, action, appID, "")
	r.ack(ctx, cq.ID, result)

	// A settled verdict retires the keyboard so the summary stops
	// inviting further presses
	if ok && action != telegram.AdminActionRequestMore && cq.Message != nil && cq.Message.Chat != nil {
		if err := r.sender.ClearReplyMarkup(ctx, cq.Message.Chat.ID, cq.Message.MessageID); err != nil {
			r.logger.Warn("keyboard cleanup failed", "error", err)
		}
	}
	return nil
}

// ack answers a callback query, best-effort.
func (r *Router) ack(ctx context.Context, callbackID, text string) {
	if err := r.sender.AnswerCallback(ctx, callbackID, text); err != nil {
		r.logger.Debug("callback ack failed", "error", err)
	}
}
