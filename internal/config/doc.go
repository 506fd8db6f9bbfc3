// Package config handles configuration loading for club-relay.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	telegram:
//	  token: "${CLUB_RELAY_BOT_TOKEN}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	limits:
//	  draft_ttl: "24h"
//	dedupe:
//	  ttl: "10m"
//
// # Configuration Sections
//
// Webhook listener:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  webhook_secret: "${CLUB_RELAY_WEBHOOK_SECRET}"
//	  public_url: "https://bot.example.com"
//
// Bot credentials:
//
//	telegram:
//	  token: "${CLUB_RELAY_BOT_TOKEN}"
//
// Admin group routing (group_id is required):
//
//	admin:
//	  group_id: -1001234567890
//	  message_topic_id: 2
//	  application_topic_id: 3
//
// Tailscale (optional Funnel exposure of the webhook):
//
//	tailscale:
//	  enabled: true
//	  hostname: "club-relay"
//	  auth_key: "${TS_AUTHKEY}"
//	  funnel: true
//
// Duplicate guard, in-process by default, shared when redis.addr is set:
//
//	dedupe:
//	  ttl: "10m"
//	  redis:
//	    addr: "localhost:6379"
package config
