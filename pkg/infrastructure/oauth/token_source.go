package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	shared "github.com/fitglue/strava-ingest/pkg"
	"github.com/fitglue/strava-ingest/pkg/types"
)

var (
	// ErrNotConnected means the user has no stored Strava credentials.
	ErrNotConnected = errors.New("strava not connected")
	// ErrClientNotConfigured means a refresh was needed but the application
	// client id or secret is missing. This is a deployment error.
	ErrClientNotConfigured = errors.New("strava oauth client not configured")
)

// Refresher exchanges a refresh token for a new credential set.
type Refresher interface {
	RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*types.Credentials, error)
}

// StoreTokenSource reads credentials from the store and refreshes them when expired.
// There is no lock: concurrent refreshes for one user are last-writer-wins,
// and every token they produce is valid upstream.
type StoreTokenSource struct {
	db           shared.Database
	refresher    Refresher
	clientID     string
	clientSecret string
	logger       *slog.Logger

	now func() time.Time
}

// NewStoreTokenSource reads and refreshes credentials through db and refresher.
func NewStoreTokenSource(db shared.Database, refresher Refresher, clientID, clientSecret string, logger *slog.Logger) *StoreTokenSource {
	return &StoreTokenSource{
		db:           db,
		refresher:    refresher,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger,
		now:          time.Now,
	}
}

// Token returns a usable credential set for the user, refreshing and persisting it first if expired.
func (s *StoreTokenSource) Token(ctx context.Context, userID string) (*types.Credentials, error) {
	creds, err := s.db.GetCredentials(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	if creds == nil || creds.AccessToken == "" {
		return nil, ErrNotConnected
	}

	if !creds.Expired(s.now()) {
		return creds, nil
	}

	return s.refresh(ctx, userID, creds)
}

func (s *StoreTokenSource) refresh(ctx context.Context, userID string, current *types.Credentials) (*types.Credentials, error) {
	if s.clientID == "" || s.clientSecret == "" {
		return nil, ErrClientNotConfigured
	}
	if current.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh token: %w", ErrNotConnected)
	}

	s.logger.Info("Refreshing expired strava token", "user_id", userID, "expired_at", current.ExpiresAt)

	refreshed, err := s.refresher.RefreshToken(ctx, s.clientID, s.clientSecret, current.RefreshToken)
	if err != nil {
		return nil, err
	}

	updated := &types.Credentials{
		AccessToken:  refreshed.AccessToken,
		RefreshToken: refreshed.RefreshToken,
		ExpiresAt:    refreshed.ExpiresAt,
		AthleteID:    current.AthleteID,
	}
	// Strava normally rotates the refresh token; keep the old one if it did not.
	if updated.RefreshToken == "" {
		updated.RefreshToken = current.RefreshToken
	}

	if err := s.db.SetCredentials(ctx, userID, updated); err != nil {
		return nil, fmt.Errorf("failed to persist new tokens: %w", err)
	}

	return updated, nil
}
