package relay_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"echogo/backend/internal/errs"
	"echogo/backend/internal/models"
	"echogo/backend/internal/relay"
)

// fakeServer is a minimal wave API: /session mints numbered sessions and
// the other routes check them, so tests can script expirations.
type fakeServer struct {
	*httptest.Server
	sessions   atomic.Int64
	rejectUpTo int64 // sessions numbered at or below this get 401
	waveCalls  atomic.Int64
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		n := fs.sessions.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{
			"token":   fmt.Sprintf("session-%d", n),
			"user_id": "user-1",
		})
	})
	mux.HandleFunc("/token", fs.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token":      "a1b2c3d4e5f60708",
			"expires_at": time.Now().Add(15 * time.Minute).Format(time.RFC3339Nano),
		})
	}))
	mux.HandleFunc("/wave", fs.authed(func(w http.ResponseWriter, r *http.Request) {
		fs.waveCalls.Add(1)
		var req struct {
			TargetEphemeralToken string `json:"target_ephemeral_token"`
			Action               string `json:"action"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch {
		case req.Action == "undo":
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "undo_expired"})
		case req.TargetEphemeralToken == "0102030405060708":
			writeJSON(w, http.StatusOK, models.WaveOutcome{Status: models.StatusPending})
		case req.TargetEphemeralToken == "eeeeeeeeeeeeeeee":
			writeJSON(w, http.StatusConflict, map[string]string{"status": "error", "reason": "conflict"})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid_token"})
		}
	}))
	mux.HandleFunc("/matches/", fs.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "reason": "not_found"})
	}))

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var n int64
		fmt.Sscanf(r.Header.Get("Authorization"), "Bearer session-%d", &n)
		if n == 0 || n <= fs.rejectUpTo {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "reason": "unauthenticated"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// TestClientBootstrapsSessionOnce verifies the first call establishes an
// anonymous session and later calls reuse it.
func TestClientBootstrapsSessionOnce(t *testing.T) {
	fs := newFakeServer(t)
	c := relay.NewClient(fs.URL, zap.NewNop())

	tok, err := c.IssueToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4e5f60708", tok.Value)
	assert.True(t, tok.ExpiresAt.After(time.Now()))
	assert.Equal(t, "user-1", c.UserID())

	_, err = c.IssueToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), fs.sessions.Load(), "session is reused across calls")
}

// TestClientReauthenticatesOnceOn401 verifies an expired session is
// replaced transparently and the original request replayed, with no
// error surfacing to the caller.
func TestClientReauthenticatesOnceOn401(t *testing.T) {
	// Arrange
	fs := newFakeServer(t)
	c := relay.NewClient(fs.URL, zap.NewNop())
	require.NoError(t, c.EnsureSession(context.Background()))

	// Expire everything issued so far.
	fs.rejectUpTo = fs.sessions.Load()

	// Act
	out, err := c.SendWave(context.Background(), "0102030405060708")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, out.Status)
	assert.Equal(t, int64(2), fs.sessions.Load(), "exactly one re-authentication")
}

// TestClientMapsErrorReasons verifies {status, reason} bodies come back
// as the matching sentinels.
func TestClientMapsErrorReasons(t *testing.T) {
	fs := newFakeServer(t)
	c := relay.NewClient(fs.URL, zap.NewNop())

	_, err := c.SendWave(context.Background(), "ffffffffffffffff")
	assert.ErrorIs(t, err, errs.ErrInvalidToken)

	err = c.UndoWave(context.Background(), "0102030405060708")
	assert.ErrorIs(t, err, errs.ErrUndoExpired)

	err = c.RemoveMatch(context.Background(), "no-such-match")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = c.SendWave(context.Background(), "eeeeeeeeeeeeeeee")
	assert.ErrorIs(t, err, errs.ErrTxConflict, "serialization conflicts are retryable")
}
