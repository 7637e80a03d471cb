// Package wave is the server-side wave/match engine. It orchestrates the
// atomic matching procedure in storage and performs the post-commit side
// effects: realtime fan-out and best-effort push delivery. Notification
// failures are logged, never propagated as request failures.
package wave

import (
	"context"
	"regexp"
	"time"

	"echogo/backend/internal/errs"
	"echogo/backend/internal/models"
	"echogo/backend/internal/push"
	"echogo/backend/internal/storage"

	"go.uber.org/zap"
)

// tokenPattern is the only accepted target form: 16 lowercase hex chars.
var tokenPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

const pushTimeout = 10 * time.Second

type Service struct {
	store  storage.Storage
	sender push.Sender
	log    *zap.Logger
}

func NewService(store storage.Storage, sender push.Sender, log *zap.Logger) *Service {
	return &Service{store: store, sender: sender, log: log}
}

// IssueToken rotates the account's ephemeral token: the profile row is
// ensured first so a fresh anonymous account can rotate immediately.
func (s *Service) IssueToken(ctx context.Context, userID string) (*models.EphemeralID, error) {
	if err := s.store.EnsureProfile(ctx, userID, true); err != nil {
		return nil, err
	}
	return s.store.IssueEphemeralID(ctx, userID)
}

// SendWave runs the matching procedure and dispatches side effects after
// the transaction has committed.
func (s *Service) SendWave(ctx context.Context, waverID, targetToken string) (*models.WaveOutcome, error) {
	if !tokenPattern.MatchString(targetToken) {
		return nil, errs.ErrInvalidToken
	}

	out, err := s.store.CheckAndCreateMatch(ctx, waverID, targetToken)
	if err != nil {
		return nil, err
	}

	switch out.Status {
	case models.StatusPending:
		s.notifyPending(ctx, waverID, out.TargetUserID)

	case models.StatusMatch:
		s.attachHandle(ctx, out)
		s.notifyMatch(ctx, waverID, out)

	case models.StatusAlreadyMatched:
		s.attachHandle(ctx, out)
	}
	return out, nil
}

// UndoWave deletes the caller's open wave and clears the target's
// "someone waved" indicator, best-effort.
func (s *Service) UndoWave(ctx context.Context, waverID, targetToken string) error {
	if !tokenPattern.MatchString(targetToken) {
		return errs.ErrInvalidToken
	}

	targetID, err := s.store.UndoWave(ctx, waverID, targetToken)
	if err != nil {
		return err
	}

	waverToken, terr := s.store.ActiveTokenForUser(ctx, waverID)
	if terr != nil {
		s.log.Warn("waver token lookup failed on undo", zap.Error(terr))
	}
	ev := models.Event{
		Name: models.EventWaveUndo,
		Wave: &models.WaveEvent{WaverToken: waverToken, SentAt: time.Now().UnixMilli()},
	}
	if err := s.store.PublishEvent(ctx, targetID, ev); err != nil {
		s.log.Warn("wave_undo broadcast failed", zap.Error(err))
	}
	return nil
}

// RemoveMatch deletes the match for both sides and tells the other
// participant so their local list converges.
func (s *Service) RemoveMatch(ctx context.Context, userID, matchID string) error {
	otherID, err := s.store.RemoveMatch(ctx, userID, matchID)
	if err != nil {
		return err
	}

	ev := models.Event{
		Name:    models.EventMatchRemoved,
		Removed: &models.RemoveEvent{MatchID: matchID},
	}
	if err := s.store.PublishEvent(ctx, otherID, ev); err != nil {
		s.log.Warn("match_removed broadcast failed", zap.Error(err))
	}
	return nil
}

// Sweep runs the periodic maintenance pass.
func (s *Service) Sweep(ctx context.Context) (storage.SweepResult, error) {
	return s.store.Sweep(ctx)
}

// notifyPending tells the target someone waved, identified only by the
// waver's current ephemeral token.
func (s *Service) notifyPending(ctx context.Context, waverID, targetID string) {
	if targetID == "" {
		return
	}
	waverToken, err := s.store.ActiveTokenForUser(ctx, waverID)
	if err != nil {
		s.log.Warn("waver token lookup failed", zap.Error(err))
	}
	ev := models.Event{
		Name: models.EventWave,
		Wave: &models.WaveEvent{WaverToken: waverToken, SentAt: time.Now().UnixMilli()},
	}
	if err := s.store.PublishEvent(ctx, targetID, ev); err != nil {
		s.log.Warn("wave broadcast failed", zap.String("target", targetID), zap.Error(err))
	}
}

// notifyMatch broadcasts the match to the non-initiating side (the waver
// already has it in the HTTP response) and pushes to whoever is not
// connected to the realtime channel.
func (s *Service) notifyMatch(ctx context.Context, waverID string, out *models.WaveOutcome) {
	createdAt := time.Now().UTC().Format(time.RFC3339)

	waverHandle := s.handleFor(ctx, waverID)
	ev := models.Event{
		Name: models.EventMatch,
		Match: &models.MatchEvent{
			MatchID:       out.MatchID,
			MatchedUserID: waverID,
			ContactHandle: waverHandle,
			CreatedAt:     createdAt,
		},
	}
	if err := s.store.PublishEvent(ctx, out.MatchedUserID, ev); err != nil {
		s.log.Warn("match broadcast failed", zap.String("target", out.MatchedUserID), zap.Error(err))
	}

	targets := []struct {
		userID string
		n      push.MatchNotification
	}{
		{waverID, push.MatchNotification{
			MatchID: out.MatchID, MatchedUserID: out.MatchedUserID,
			ContactHandle: out.ContactHandle, CreatedAt: createdAt,
		}},
		{out.MatchedUserID, push.MatchNotification{
			MatchID: out.MatchID, MatchedUserID: waverID,
			ContactHandle: waverHandle, CreatedAt: createdAt,
		}},
	}
	for _, t := range targets {
		online, err := s.store.IsOnline(ctx, t.userID)
		if err != nil {
			s.log.Warn("presence lookup failed", zap.Error(err))
		}
		if online {
			continue
		}
		go s.pushMatch(t.userID, t.n)
	}
}

// pushMatch delivers the match push to every device token the account
// registered. Runs detached from the request.
func (s *Service) pushMatch(userID string, n push.MatchNotification) {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	tokens, err := s.store.PushTokensForUser(ctx, userID)
	if err != nil {
		s.log.Warn("push token lookup failed", zap.String("user", userID), zap.Error(err))
		return
	}
	for _, t := range tokens {
		if err := s.sender.SendMatch(ctx, t.Token, t.Platform, n); err != nil {
			s.log.Warn("push delivery failed",
				zap.String("user", userID),
				zap.String("platform", t.Platform),
				zap.Error(err),
			)
		}
	}
}

// attachHandle fills the counterpart's opt-in contact handle on outcomes
// that reveal identity.
func (s *Service) attachHandle(ctx context.Context, out *models.WaveOutcome) {
	if out.MatchedUserID == "" {
		return
	}
	out.ContactHandle = s.handleFor(ctx, out.MatchedUserID)
}

func (s *Service) handleFor(ctx context.Context, userID string) string {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		s.log.Warn("profile lookup failed", zap.String("user", userID), zap.Error(err))
		return ""
	}
	return p.ContactHandle
}
