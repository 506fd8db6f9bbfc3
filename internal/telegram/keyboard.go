// ABOUTME: Inline keyboard builders for user menus and admin actions.
// ABOUTME: Callback data strings here are the router's dispatch vocabulary.

package telegram

import "fmt"

// Callback action tags recognized by the router.
const (
	CallbackMessageAdmin = "message_admin"
	CallbackApply        = "apply"
	CallbackSubmit       = "submit_application"
	CallbackCancel       = "cancel"
	CallbackBackToMenu   = "back_to_menu"
)

// Admin application action prefixes. Full data is "app:<action>:<app-id>".
const (
	AdminActionApprove     = "approve"
	AdminActionReject      = "reject"
	AdminActionRequestMore = "request_more"
)

func button(text, data string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, CallbackData: data}
}

// MainMenuKeyboard is shown in the private chat when the user is idle.
func MainMenuKeyboard() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{button("💬 Message Admin", CallbackMessageAdmin), button("📝 Apply", CallbackApply)},
	}}
}

// CancelKeyboard is shown while the user is composing a message to admins.
func CancelKeyboard() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{button("❌ Cancel", CallbackCancel)},
	}}
}

// SubmitKeyboard is shown while the user is collecting application files.
func SubmitKeyboard() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{button("✅ Submit Application", CallbackSubmit)},
		{button("❌ Cancel", CallbackCancel)},
	}}
}

// BackToMenuKeyboard follows terminal notifications in the private chat.
func BackToMenuKeyboard() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{button("🏠 Back to Menu", CallbackBackToMenu)},
	}}
}

// AdminActionsKeyboard is attached to application summary posts in the
// admin group so reviewers can act with one tap.
func AdminActionsKeyboard(appID string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{
			button("✅ Approve", fmt.Sprintf("app:%s:%s", AdminActionApprove, appID)),
			button("❌ Reject", fmt.Sprintf("app:%s:%s", AdminActionReject, appID)),
		},
		{button("📎 Request More", fmt.Sprintf("app:%s:%s", AdminActionRequestMore, appID))},
	}}
}
