package models

// Wave outcome statuses returned by the wave/match engine. These travel
// verbatim in the HTTP response body and in realtime events.
const (
	StatusPending        = "pending"
	StatusMatch          = "match"
	StatusAlreadyMatched = "already_matched"
	StatusRateLimited    = "rate_limited"
	StatusRemoved        = "removed"
	StatusUndone         = "undone"
	StatusError          = "error"
)

// Realtime event names emitted on a per-account channel.
const (
	EventWave         = "wave"
	EventWaveUndo     = "wave_undo"
	EventMatch        = "match"
	EventMatchRemoved = "match_removed"
)

// WaveOutcome is the result of one run of the matching procedure.
type WaveOutcome struct {
	Status string `json:"status"`
	// MatchID is set on match / already_matched.
	MatchID string `json:"match_id,omitempty"`
	// MatchedUserID is the counterpart account on match / already_matched.
	MatchedUserID string `json:"matched_user_id,omitempty"`
	// TargetUserID is the resolved owner of the target token (pending path).
	TargetUserID string `json:"target_user_id,omitempty"`
	// ContactHandle is the counterpart's opt-in handle, if set.
	ContactHandle string `json:"contact_handle,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Event is the envelope published on an account's realtime channel.
type Event struct {
	// Name is one of the Event* constants.
	Name    string       `json:"event"`
	Wave    *WaveEvent   `json:"wave,omitempty"`
	Match   *MatchEvent  `json:"match,omitempty"`
	Removed *RemoveEvent `json:"removed,omitempty"`
}

// WaveEvent tells the target that someone waved (or undid a wave). The
// waver stays anonymous: only their current ephemeral token is carried so
// the target's UI can highlight the specific radar peer.
type WaveEvent struct {
	WaverToken string `json:"waver_token"`
	SentAt     int64  `json:"t"`
}

// MatchEvent carries full match details to the non-initiating side.
type MatchEvent struct {
	MatchID       string `json:"match_id"`
	MatchedUserID string `json:"matched_user_id"`
	ContactHandle string `json:"contact_handle,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// RemoveEvent tells a participant the match was removed by the other side.
type RemoveEvent struct {
	MatchID string `json:"match_id"`
}
