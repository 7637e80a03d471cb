package push

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	apnsHostSandbox    = "https://api.sandbox.push.apple.com"
	apnsHostProduction = "https://api.push.apple.com"

	// Apple rejects provider tokens older than an hour; refresh at 50 min.
	providerTokenLifetime = 50 * time.Minute
)

// APNS sends alerts through Apple's HTTP/2 push API, authenticated with an
// ES256 provider token minted from the team's signing key.
type APNS struct {
	keyID    string
	teamID   string
	key      *ecdsa.PrivateKey
	bundleID string
	host     string
	client   *http.Client
	log      *zap.Logger

	mu          sync.Mutex
	cachedToken string
	mintedAt    time.Time
}

// NewAPNS parses the PEM-encoded P-256 signing key and returns a ready
// sender. production selects the live APNs host over the sandbox.
func NewAPNS(keyID, teamID, privateKeyPEM, bundleID string, production bool, log *zap.Logger) (*APNS, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse APNs key: %w", err)
	}
	host := apnsHostSandbox
	if production {
		host = apnsHostProduction
	}
	return &APNS{
		keyID:    keyID,
		teamID:   teamID,
		key:      key,
		bundleID: bundleID,
		host:     host,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}, nil
}

type apnsPayload struct {
	APS struct {
		Alert struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		} `json:"alert"`
		Sound          string `json:"sound"`
		Badge          int    `json:"badge"`
		MutableContent int    `json:"mutable-content"`
	} `json:"aps"`
	Type          string `json:"type"`
	MatchID       string `json:"match_id"`
	MatchedUserID string `json:"matched_user_id"`
	ContactHandle string `json:"contact_handle,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func (a *APNS) SendMatch(ctx context.Context, deviceToken, platform string, n MatchNotification) error {
	if platform != "ios" {
		// FCM not wired yet; Android registrations are accepted and skipped.
		return nil
	}

	providerToken, err := a.providerToken()
	if err != nil {
		return err
	}

	var p apnsPayload
	p.APS.Alert.Title = "It's a match!"
	p.APS.Alert.Body = "Someone waved back at you. Open Echo to see your match."
	p.APS.Sound = "default"
	p.APS.Badge = 1
	p.APS.MutableContent = 1
	p.Type = "match"
	p.MatchID = n.MatchID
	p.MatchedUserID = n.MatchedUserID
	p.ContactHandle = n.ContactHandle
	p.CreatedAt = n.CreatedAt

	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/3/device/%s", a.host, deviceToken), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "bearer "+providerToken)
	req.Header.Set("apns-topic", a.bundleID)
	req.Header.Set("apns-push-type", "alert")
	req.Header.Set("apns-priority", "10")
	req.Header.Set("apns-expiration", "0")
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("apns status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// providerToken returns a cached ES256 JWT, re-minting it before Apple's
// one-hour ceiling.
func (a *APNS) providerToken() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cachedToken != "" && time.Since(a.mintedAt) < providerTokenLifetime {
		return a.cachedToken, nil
	}

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": a.teamID,
		"iat": now.Unix(),
	})
	tok.Header["kid"] = a.keyID

	signed, err := tok.SignedString(a.key)
	if err != nil {
		return "", err
	}
	a.cachedToken = signed
	a.mintedAt = now
	return signed, nil
}
