// Package telegram wraps the subset of the Telegram Bot API that
// club-relay speaks: inbound update types as delivered by the webhook,
// a JSON HTTP client for the send-side methods, inline keyboard
// builders, and HTML formatting helpers.
//
// Media sending is driven by a single dispatch table in media.go keyed
// by store.MediaKind, so every relay path handles all media kinds
// uniformly.
package telegram
