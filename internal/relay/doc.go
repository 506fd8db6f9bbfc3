// Package relay is the bridge between private user chats and the shared
// admin group. User messages land in the message topic with an identity
// header; submitted applications land in the application topic as a
// summary post with an action keyboard followed by the files as replies.
// Each outbound group post is registered in the thread map before the
// relay call returns.
package relay
