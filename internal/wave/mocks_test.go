package wave_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"echogo/backend/internal/models"
	"echogo/backend/internal/push"
	"echogo/backend/internal/storage"
)

// MockStorage is a testify mock of the full storage.Storage interface,
// letting tests script the matching procedure without a database.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) EnsureProfile(ctx context.Context, userID string, anonymous bool) error {
	args := m.Called(ctx, userID, anonymous)
	return args.Error(0)
}

func (m *MockStorage) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStorage) SetContactHandle(ctx context.Context, userID, handle string) error {
	args := m.Called(ctx, userID, handle)
	return args.Error(0)
}

func (m *MockStorage) SavePushToken(ctx context.Context, userID, token, platform string) error {
	args := m.Called(ctx, userID, token, platform)
	return args.Error(0)
}

func (m *MockStorage) PushTokensForUser(ctx context.Context, userID string) ([]models.PushToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PushToken), args.Error(1)
}

func (m *MockStorage) DeleteAccount(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStorage) IssueEphemeralID(ctx context.Context, userID string) (*models.EphemeralID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EphemeralID), args.Error(1)
}

func (m *MockStorage) ActiveTokenForUser(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) CheckAndCreateMatch(ctx context.Context, waverID, targetToken string) (*models.WaveOutcome, error) {
	args := m.Called(ctx, waverID, targetToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaveOutcome), args.Error(1)
}

func (m *MockStorage) UndoWave(ctx context.Context, waverID, targetToken string) (string, error) {
	args := m.Called(ctx, waverID, targetToken)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) RemoveMatch(ctx context.Context, userID, matchID string) (string, error) {
	args := m.Called(ctx, userID, matchID)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) ListMatchesForUser(ctx context.Context, userID string) ([]models.Match, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Match), args.Error(1)
}

func (m *MockStorage) Sweep(ctx context.Context) (storage.SweepResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(storage.SweepResult), args.Error(1)
}

func (m *MockStorage) AllowWave(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) PublishEvent(ctx context.Context, userID string, ev models.Event) error {
	args := m.Called(ctx, userID, ev)
	return args.Error(0)
}

func (m *MockStorage) EventStream(ctx context.Context) <-chan storage.UserEvent {
	args := m.Called(ctx)
	return args.Get(0).(<-chan storage.UserEvent)
}

func (m *MockStorage) SetOnline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStorage) SetOffline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStorage) IsOnline(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// MockSender records push deliveries.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendMatch(ctx context.Context, deviceToken, platform string, n push.MatchNotification) error {
	args := m.Called(ctx, deviceToken, platform, n)
	return args.Error(0)
}
