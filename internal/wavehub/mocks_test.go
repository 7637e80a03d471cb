package wavehub_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"echogo/backend/internal/models"
	"echogo/backend/internal/storage"
)

// hubStorage stubs the slice of storage.Storage the hub touches: the
// event stream and the presence set. Everything else panics if called.
type hubStorage struct {
	mock.Mock
	events chan storage.UserEvent
}

func newHubStorage() *hubStorage {
	return &hubStorage{events: make(chan storage.UserEvent, 16)}
}

func (m *hubStorage) EventStream(ctx context.Context) <-chan storage.UserEvent {
	return m.events
}

func (m *hubStorage) SetOnline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *hubStorage) SetOffline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *hubStorage) IsOnline(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *hubStorage) EnsureProfile(context.Context, string, bool) error { panic("unexpected") }
func (m *hubStorage) GetProfile(context.Context, string) (*models.Profile, error) {
	panic("unexpected")
}
func (m *hubStorage) SetContactHandle(context.Context, string, string) error { panic("unexpected") }
func (m *hubStorage) SavePushToken(context.Context, string, string, string) error {
	panic("unexpected")
}
func (m *hubStorage) PushTokensForUser(context.Context, string) ([]models.PushToken, error) {
	panic("unexpected")
}
func (m *hubStorage) DeleteAccount(context.Context, string) error { panic("unexpected") }
func (m *hubStorage) IssueEphemeralID(context.Context, string) (*models.EphemeralID, error) {
	panic("unexpected")
}
func (m *hubStorage) ActiveTokenForUser(context.Context, string) (string, error) {
	panic("unexpected")
}
func (m *hubStorage) CheckAndCreateMatch(context.Context, string, string) (*models.WaveOutcome, error) {
	panic("unexpected")
}
func (m *hubStorage) UndoWave(context.Context, string, string) (string, error) {
	panic("unexpected")
}
func (m *hubStorage) RemoveMatch(context.Context, string, string) (string, error) {
	panic("unexpected")
}
func (m *hubStorage) ListMatchesForUser(context.Context, string) ([]models.Match, error) {
	panic("unexpected")
}
func (m *hubStorage) Sweep(context.Context) (storage.SweepResult, error) { panic("unexpected") }
func (m *hubStorage) AllowWave(context.Context, string) (bool, error)    { panic("unexpected") }
func (m *hubStorage) PublishEvent(context.Context, string, models.Event) error {
	panic("unexpected")
}

// mockClient is an in-memory hub client with an inspectable send buffer.
type mockClient struct {
	userID string
	send   chan models.Event

	mu     sync.Mutex
	closed bool
	runs   int
}

func newMockClient(userID string, buffer int) *mockClient {
	return &mockClient{userID: userID, send: make(chan models.Event, buffer)}
}

func (c *mockClient) GetUserID() string { return c.userID }

func (c *mockClient) GetSendChannel() chan<- models.Event { return c.send }

func (c *mockClient) Run() {
	c.mu.Lock()
	c.runs++
	c.mu.Unlock()
}

func (c *mockClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *mockClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *mockClient) runCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}
