package webhook

import (
	"crypto/subtle"
	"net/http"
)

const modeSubscribe = "subscribe"

// Handshake answers Strava's subscription validation request by echoing
// hub.challenge when hub.mode is subscribe and hub.verify_token matches.
func (h *Handler) Handshake(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != modeSubscribe || h.VerifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.VerifyToken)) != 1 {
		h.Logger.Warn("Webhook handshake rejected", "mode", mode)
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	h.Logger.Info("Webhook handshake accepted")
	writeJSON(w, http.StatusOK, map[string]string{"hub.challenge": challenge})
}
