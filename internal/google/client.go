package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/harunnryd/koyomi/internal/config"
	koyomiErrors "github.com/harunnryd/koyomi/internal/errors"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
)

const (
	calendarBaseURL = "https://www.googleapis.com/calendar/v3"
	tasksBaseURL    = "https://tasks.googleapis.com/tasks/v1"
	userinfoURL     = "https://openidconnect.googleapis.com/v1/userinfo"
)

// Service implements CalendarAPI and TasksAPI against the Google REST
// endpoints using the connection's OAuth token.
type Service struct {
	oauth    *oauth2.Config
	loc      *time.Location
	timeout  time.Duration
	baseHTTP *http.Client
}

func NewService(cfg config.GoogleConfig) (*Service, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("Invalid timezone, falling back to UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}

	timeout, err := config.DurationOrDefault(cfg.RequestTimeout, config.DefaultGoogleRequestTimeout)
	if err != nil {
		return nil, err
	}

	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint:     oauthgoogle.Endpoint,
		},
		loc:      loc,
		timeout:  timeout,
		baseHTTP: &http.Client{Timeout: timeout},
	}, nil
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Configured reports whether OAuth client credentials are present.
func (s *Service) Configured() bool {
	return s.oauth.ClientID != "" && s.oauth.ClientSecret != ""
}

// client returns an authenticated HTTP client for conn, refreshing the
// access token in place when it has expired. Callers serialize access
// to the connection (per-session locking lives in the server layer).
func (s *Service) client(ctx context.Context, conn *Connection) (*http.Client, error) {
	if conn == nil || conn.Token == nil {
		return nil, koyomiErrors.NotConnected("no google connection")
	}

	source := s.oauth.TokenSource(ctx, conn.Token)
	token, err := source.Token()
	if err != nil {
		return nil, koyomiErrors.Upstream(fmt.Sprintf("token refresh failed: %v", err))
	}
	if token.AccessToken != conn.Token.AccessToken {
		slog.Debug("Google access token refreshed", "email", conn.Email, "expiry", token.Expiry)
		conn.Token = token
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	client.Timeout = s.timeout
	return client, nil
}

func (s *Service) doJSON(ctx context.Context, client *http.Client, method, url string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return koyomiErrors.Internal("encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return koyomiErrors.Internal("build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return koyomiErrors.Upstream(fmt.Sprintf("%s %s: %v", method, url, err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return koyomiErrors.Upstream(fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		slog.Warn("Google API request failed",
			"method", method,
			"url", url,
			"status", resp.StatusCode,
		)
		return koyomiErrors.Upstream(fmt.Sprintf("%s %s: %s", method, url, resp.Status))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return koyomiErrors.Upstream(fmt.Sprintf("decode response: %v", err))
	}
	return nil
}
