// ABOUTME: User-facing message texts for the private chat flows.
// ABOUTME: Kept generic and non-leaking; detail goes to logs only.

package router

const (
	textWelcome = "👋 Welcome! What would you like to do?"
	textMenu    = "What would you like to do?"

	textPleaseStart = "Please send /start to register first."

	textMessagePrompt = "📝 You can now send your message to the admins. Text, photos, audio, documents and videos all work.\n\nSend your message now:"
	textMessageSent   = "✅ Your message has been sent to the admins!"

	textApplyPrompt    = "📝 Send the files for your application one by one, then press Submit."
	textSendFile       = "Please send a file for your application."
	textFileTooLarge   = "❌ That file is too large. The maximum size is %s."
	textNoFilesYet     = "You have not added any files yet. Send at least one file before submitting."
	textAlreadyApplied = "⏳ You have already submitted an application. Please wait for the review."
	textSubmitted      = "✅ Your application has been received and is under review.\n\nYou will be notified once the admins have looked at it."

	textGenericError = "⚠️ Something went wrong. Please try again in a moment."
)
