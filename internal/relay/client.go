// Package relay is the client-side bridge to the wave service: an HTTP
// client for the API, a websocket listener for the realtime channel, and
// the local state the two keep reconciled.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"echogo/backend/internal/errs"
	"echogo/backend/internal/identity"
	"echogo/backend/internal/models"
)

// Client talks to the wave service over HTTP. It bootstraps an anonymous
// session on first use and, when the server rejects the session as
// expired, transparently re-authenticates and replays the request once.
type Client struct {
	base  string
	httpc *http.Client
	log   *zap.Logger

	mu      sync.Mutex
	session string
	userID  string
}

func NewClient(base string, log *zap.Logger) *Client {
	return &Client{
		base:  base,
		httpc: &http.Client{Timeout: 15 * time.Second},
		log:   log,
	}
}

// UserID returns the anonymous account id, empty before the first
// session is established.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// SessionToken returns the current session JWT, empty before bootstrap.
func (c *Client) SessionToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// EnsureSession makes sure an anonymous session exists, creating one if
// needed.
func (c *Client) EnsureSession(ctx context.Context) error {
	c.mu.Lock()
	have := c.session != ""
	c.mu.Unlock()
	if have {
		return nil
	}
	return c.authenticate(ctx)
}

func (c *Client) authenticate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/session", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("create session: unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("create session: decode: %w", err)
	}
	c.mu.Lock()
	c.session = body.Token
	c.userID = body.UserID
	c.mu.Unlock()
	c.log.Info("anonymous session established", zap.String("user_id", body.UserID))
	return nil
}

// do runs one authenticated request. A 401 clears the session and the
// request is replayed exactly once against a fresh one, so an expired
// session never surfaces to the caller as a failure.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if err := c.EnsureSession(ctx); err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		status, body, err := c.roundTrip(ctx, method, path, in)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			if attempt > 0 {
				return fmt.Errorf("%w: session rejected after re-authentication", errs.ErrUnauthenticated)
			}
			c.mu.Lock()
			c.session = ""
			c.mu.Unlock()
			if err := c.authenticate(ctx); err != nil {
				return err
			}
			continue
		}
		if status != http.StatusOK {
			return apiError(status, body)
		}
		if out == nil {
			return nil
		}
		return json.Unmarshal(body, out)
	}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in interface{}) (int, []byte, error) {
	var rd io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return 0, nil, err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	req.Header.Set("Authorization", "Bearer "+c.session)
	c.mu.Unlock()

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// apiError turns a non-OK {status, reason} body back into the sentinel
// the server mapped it from.
func apiError(status int, body []byte) error {
	var payload struct {
		Reason string `json:"reason"`
	}
	_ = json.Unmarshal(body, &payload)
	switch payload.Reason {
	case "invalid_token":
		return errs.ErrInvalidToken
	case "undo_expired":
		return errs.ErrUndoExpired
	case "not_found":
		return errs.ErrNotFound
	case "conflict":
		return errs.ErrTxConflict
	case "unauthenticated":
		return errs.ErrUnauthenticated
	default:
		return fmt.Errorf("server returned status %d (%s)", status, payload.Reason)
	}
}

// IssueToken rotates the account's ephemeral token. Satisfies
// identity.TokenSource.
func (c *Client) IssueToken(ctx context.Context) (identity.Token, error) {
	var body struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := c.do(ctx, http.MethodPost, "/token", nil, &body); err != nil {
		return identity.Token{}, err
	}
	return identity.Token{Value: body.Token, ExpiresAt: body.ExpiresAt}, nil
}

type waveBody struct {
	TargetEphemeralToken string `json:"target_ephemeral_token"`
	Action               string `json:"action,omitempty"`
}

// SendWave waves at the target token and returns the server's outcome.
func (c *Client) SendWave(ctx context.Context, targetToken string) (models.WaveOutcome, error) {
	var out models.WaveOutcome
	err := c.do(ctx, http.MethodPost, "/wave", waveBody{TargetEphemeralToken: targetToken}, &out)
	return out, err
}

// UndoWave retracts an unconsumed wave toward the target token.
func (c *Client) UndoWave(ctx context.Context, targetToken string) error {
	return c.do(ctx, http.MethodPost, "/wave", waveBody{TargetEphemeralToken: targetToken, Action: "undo"}, nil)
}

// RemoveMatch deletes a match the account participates in.
func (c *Client) RemoveMatch(ctx context.Context, matchID string) error {
	return c.do(ctx, http.MethodDelete, "/matches/"+matchID, nil, nil)
}

// ListMatches fetches the account's current matches.
func (c *Client) ListMatches(ctx context.Context) ([]models.Match, error) {
	var body struct {
		Matches []models.Match `json:"matches"`
	}
	if err := c.do(ctx, http.MethodGet, "/matches", nil, &body); err != nil {
		return nil, err
	}
	return body.Matches, nil
}

// SetContactHandle publishes the opt-in handle revealed on match.
func (c *Client) SetContactHandle(ctx context.Context, handle string) error {
	in := map[string]string{"contact_handle": handle}
	return c.do(ctx, http.MethodPatch, "/profile", in, nil)
}

// RegisterPushToken stores a device push token for this account.
func (c *Client) RegisterPushToken(ctx context.Context, token, platform string) error {
	in := map[string]string{"token": token, "platform": platform}
	return c.do(ctx, http.MethodPost, "/push-token", in, nil)
}
