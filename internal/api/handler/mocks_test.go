package handler_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"echogo/backend/internal/models"
	"echogo/backend/internal/storage"
)

// apiStorage mocks the storage methods the HTTP surface reaches;
// anything a test does not script panics.
type apiStorage struct {
	mock.Mock
}

func (m *apiStorage) EnsureProfile(ctx context.Context, userID string, anonymous bool) error {
	args := m.Called(ctx, userID, anonymous)
	return args.Error(0)
}

func (m *apiStorage) SetContactHandle(ctx context.Context, userID, handle string) error {
	args := m.Called(ctx, userID, handle)
	return args.Error(0)
}

func (m *apiStorage) SavePushToken(ctx context.Context, userID, token, platform string) error {
	args := m.Called(ctx, userID, token, platform)
	return args.Error(0)
}

func (m *apiStorage) IssueEphemeralID(ctx context.Context, userID string) (*models.EphemeralID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EphemeralID), args.Error(1)
}

func (m *apiStorage) ActiveTokenForUser(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *apiStorage) CheckAndCreateMatch(ctx context.Context, waverID, targetToken string) (*models.WaveOutcome, error) {
	args := m.Called(ctx, waverID, targetToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaveOutcome), args.Error(1)
}

func (m *apiStorage) UndoWave(ctx context.Context, waverID, targetToken string) (string, error) {
	args := m.Called(ctx, waverID, targetToken)
	return args.String(0), args.Error(1)
}

func (m *apiStorage) RemoveMatch(ctx context.Context, userID, matchID string) (string, error) {
	args := m.Called(ctx, userID, matchID)
	return args.String(0), args.Error(1)
}

func (m *apiStorage) ListMatchesForUser(ctx context.Context, userID string) ([]models.Match, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Match), args.Error(1)
}

func (m *apiStorage) Sweep(ctx context.Context) (storage.SweepResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(storage.SweepResult), args.Error(1)
}

func (m *apiStorage) PublishEvent(ctx context.Context, userID string, ev models.Event) error {
	args := m.Called(ctx, userID, ev)
	return args.Error(0)
}

func (m *apiStorage) GetProfile(context.Context, string) (*models.Profile, error) {
	panic("unexpected GetProfile")
}
func (m *apiStorage) PushTokensForUser(context.Context, string) ([]models.PushToken, error) {
	panic("unexpected PushTokensForUser")
}
func (m *apiStorage) DeleteAccount(context.Context, string) error { panic("unexpected DeleteAccount") }
func (m *apiStorage) AllowWave(context.Context, string) (bool, error) {
	panic("unexpected AllowWave")
}
func (m *apiStorage) EventStream(context.Context) <-chan storage.UserEvent {
	panic("unexpected EventStream")
}
func (m *apiStorage) SetOnline(context.Context, string) error  { panic("unexpected SetOnline") }
func (m *apiStorage) SetOffline(context.Context, string) error { panic("unexpected SetOffline") }
func (m *apiStorage) IsOnline(context.Context, string) (bool, error) {
	panic("unexpected IsOnline")
}
