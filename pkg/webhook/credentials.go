package webhook

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"

	"github.com/fitglue/strava-ingest/pkg/types"
)

const maxCredentialBytes = 64 << 10

// SyncCredentials stores the caller's Strava credential set and athlete mapping.
// The caller is identified by a Firebase ID token.
func (h *Handler) SyncCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	idToken, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	token, err := h.Auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		h.Logger.Warn("Rejected credential sync", "error", err)
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	userID := token.UID

	var creds types.Credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCredentialBytes)).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validate.Struct(&creds)
	if !v.Validate() {
		writeError(w, http.StatusBadRequest, v.Errors.One())
		return
	}

	logger := h.Logger.With("user_id", userID, "athlete_id", creds.AthleteID)

	if err := h.DB.SetCredentials(ctx, userID, &creds); err != nil {
		logger.Error("Failed to store credentials", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store credentials")
		return
	}
	if err := h.DB.SetAthleteUser(ctx, creds.AthleteID, userID); err != nil {
		logger.Error("Failed to store athlete mapping", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store athlete mapping")
		return
	}
	h.Identity.Remember(creds.AthleteID, userID)

	logger.Info("Strava credentials synced")
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    map[string]bool{"synced": true},
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
