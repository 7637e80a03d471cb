package relay

import (
	"context"

	"go.uber.org/zap"

	"echogo/backend/internal/models"
)

// API is the slice of Client the relay drives. Split out so tests can
// substitute a fake server.
type API interface {
	SendWave(ctx context.Context, targetToken string) (models.WaveOutcome, error)
	UndoWave(ctx context.Context, targetToken string) error
	RemoveMatch(ctx context.Context, matchID string) error
}

// Relay coordinates wave traffic between the server and local State:
// optimistic markers on send, reconciliation on reply, and event-driven
// updates from the realtime channel.
type Relay struct {
	api   API
	state *State
	log   *zap.Logger
}

func New(api API, state *State, log *zap.Logger) *Relay {
	return &Relay{api: api, state: state, log: log}
}

// State exposes the local view for the UI layer.
func (r *Relay) State() *State {
	return r.state
}

// Wave sends a wave at the target token. A wave already pending toward
// the same target is suppressed locally rather than re-sent. The marker
// is placed optimistically and reconciled against the reply: kept on
// pending, cleared on everything else.
func (r *Relay) Wave(ctx context.Context, targetToken string) (models.WaveOutcome, error) {
	if r.state.HasPending(targetToken) {
		return models.WaveOutcome{Status: models.StatusPending}, nil
	}
	r.state.MarkPending(targetToken)

	out, err := r.api.SendWave(ctx, targetToken)
	if err != nil {
		r.state.ClearPending(targetToken)
		return models.WaveOutcome{}, err
	}

	switch out.Status {
	case models.StatusPending:
		// Marker stays until matched, undone, or rotated away.
	case models.StatusMatch, models.StatusAlreadyMatched:
		r.state.ClearPending(targetToken)
		r.state.UpsertMatch(models.MatchEvent{
			MatchID:       out.MatchID,
			MatchedUserID: out.MatchedUserID,
			ContactHandle: out.ContactHandle,
		})
	default:
		r.state.ClearPending(targetToken)
	}
	return out, nil
}

// Undo retracts a pending wave toward the target token.
func (r *Relay) Undo(ctx context.Context, targetToken string) error {
	if err := r.api.UndoWave(ctx, targetToken); err != nil {
		return err
	}
	r.state.ClearPending(targetToken)
	return nil
}

// RemoveMatch deletes a match on the server and locally.
func (r *Relay) RemoveMatch(ctx context.Context, matchID string) error {
	if err := r.api.RemoveMatch(ctx, matchID); err != nil {
		return err
	}
	r.state.RemoveMatch(matchID)
	return nil
}

// HandleEvent applies one realtime event to local state. Safe against
// duplicates: match upserts are keyed by id and removals of unknown ids
// are no-ops.
func (r *Relay) HandleEvent(ev models.Event) {
	switch ev.Name {
	case models.EventWave:
		if ev.Wave != nil {
			r.state.AddIncoming(ev.Wave.WaverToken)
		}
	case models.EventWaveUndo:
		if ev.Wave != nil {
			r.state.ClearIncoming(ev.Wave.WaverToken)
		}
	case models.EventMatch:
		if ev.Match != nil {
			r.state.UpsertMatch(*ev.Match)
		}
	case models.EventMatchRemoved:
		if ev.Removed != nil {
			r.state.RemoveMatch(ev.Removed.MatchID)
		}
	default:
		r.log.Debug("unknown realtime event", zap.String("event", ev.Name))
	}
}
