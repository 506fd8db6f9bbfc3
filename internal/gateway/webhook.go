// ABOUTME: Webhook HTTP handlers for Telegram update delivery.
// ABOUTME: Verifies the secret token and always acknowledges with 200.

package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/2389/club-relay/internal/store"
	"github.com/2389/club-relay/internal/telegram"
)

// secretTokenHeader is echoed by Telegram when a secret was registered
// with setWebhook.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// handlerTimeout bounds update processing; Telegram retries a webhook
// that does not answer promptly.
const handlerTimeout = 25 * time.Second

// handleWebhook processes one Telegram update. Apart from a secret
// mismatch, the response is always 200: a non-2xx answer makes Telegram
// redeliver, and redelivery of a half-processed update is exactly what
// the duplicate guard exists to absorb, not something to invite.
func (g *Gateway) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if secret := g.config.Server.WebhookSecret; secret != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			g.logger.Warn("webhook secret mismatch", "remote", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		g.logger.Warn("webhook payload decode failed", "error", err)
		writeJSON(w, map[string]any{"ok": false})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := g.router.HandleUpdate(ctx, &update); err != nil {
		g.logger.Error("update handling failed", "update_id", update.UpdateID, "error", err)
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"ok": true, "bot": "club-relay", "status": "alive"})
}

func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	// Ready means the store answers
	if _, err := g.store.GetUser(r.Context(), 0); err != nil && !errors.Is(err, store.ErrNotFound) {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]any{"ok": false})
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
