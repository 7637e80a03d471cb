package wavehub_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"echogo/backend/internal/models"
	"echogo/backend/internal/storage"
	"echogo/backend/internal/wavehub"
)

func startHub(t *testing.T, store *hubStorage) (*wavehub.Hub, context.CancelFunc) {
	t.Helper()
	hub := wavehub.New(store, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

// TestHubRoutesEventsToRegisteredClient verifies a fan-out event reaches
// exactly the addressed account's connection.
func TestHubRoutesEventsToRegisteredClient(t *testing.T) {
	// Arrange
	store := newHubStorage()
	store.On("SetOnline", mock.Anything, "user-a").Return(nil).Once()
	store.On("SetOnline", mock.Anything, "user-b").Return(nil).Once()
	hub, _ := startHub(t, store)

	a := newMockClient("user-a", 4)
	b := newMockClient("user-b", 4)
	hub.RegisterCh <- a
	hub.RegisterCh <- b

	// Act
	ev := models.Event{Name: models.EventWave, Wave: &models.WaveEvent{WaverToken: "a1b2c3d4e5f60708"}}
	store.events <- storage.UserEvent{UserID: "user-b", Event: ev}

	// Assert
	select {
	case got := <-b.send:
		assert.Equal(t, models.EventWave, got.Name)
	case <-time.After(time.Second):
		t.Fatal("event never reached the addressed client")
	}
	select {
	case <-a.send:
		t.Fatal("event leaked to the wrong account")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, a.runCount(), "registration starts the pumps")
	store.AssertExpectations(t)
}

// TestHubEventForUnknownAccountIsDropped verifies events for accounts
// without a local socket are discarded quietly.
func TestHubEventForUnknownAccountIsDropped(t *testing.T) {
	store := newHubStorage()
	startHub(t, store)

	store.events <- storage.UserEvent{UserID: "nobody", Event: models.Event{Name: models.EventWave}}
	// Nothing to assert beyond the absence of a panic; give the loop a
	// beat to consume it.
	time.Sleep(50 * time.Millisecond)
}

// TestHubReconnectReplacesSocket verifies a second registration for the
// same account closes the first connection and takes over routing.
func TestHubReconnectReplacesSocket(t *testing.T) {
	store := newHubStorage()
	store.On("SetOnline", mock.Anything, "user-a").Return(nil).Twice()
	hub, _ := startHub(t, store)

	first := newMockClient("user-a", 4)
	second := newMockClient("user-a", 4)
	hub.RegisterCh <- first
	hub.RegisterCh <- second

	assert.Eventually(t, func() bool { return first.isClosed() },
		time.Second, 10*time.Millisecond, "old socket is closed on reconnect")

	store.events <- storage.UserEvent{UserID: "user-a", Event: models.Event{Name: models.EventMatch}}
	select {
	case <-second.send:
	case <-time.After(time.Second):
		t.Fatal("replacement socket receives the traffic")
	}
}

// TestHubUnregisterClearsPresence verifies clean disconnects flip the
// account offline, and that a stale unregister from a replaced socket is
// ignored.
func TestHubUnregisterClearsPresence(t *testing.T) {
	store := newHubStorage()
	store.On("SetOnline", mock.Anything, "user-a").Return(nil).Twice()
	store.On("SetOffline", mock.Anything, "user-a").Return(nil).Once()
	hub, _ := startHub(t, store)

	first := newMockClient("user-a", 4)
	second := newMockClient("user-a", 4)
	hub.RegisterCh <- first
	hub.RegisterCh <- second

	// The replaced socket's read pump unregisters as it dies; the live
	// replacement must not be torn down by it.
	hub.UnregisterCh <- first
	store.events <- storage.UserEvent{UserID: "user-a", Event: models.Event{Name: models.EventMatch}}
	select {
	case <-second.send:
	case <-time.After(time.Second):
		t.Fatal("stale unregister must not remove the live socket")
	}

	hub.UnregisterCh <- second
	assert.Eventually(t, func() bool { return second.isClosed() },
		time.Second, 10*time.Millisecond)
	store.AssertExpectations(t)
}

// TestHubEvictsSlowClient verifies a client with a full send buffer is
// dropped rather than blocking the dispatcher.
func TestHubEvictsSlowClient(t *testing.T) {
	store := newHubStorage()
	store.On("SetOnline", mock.Anything, "user-a").Return(nil).Once()
	store.On("SetOffline", mock.Anything, "user-a").Return(nil).Once()
	hub, _ := startHub(t, store)

	// Buffer of one: the second event cannot be delivered.
	slow := newMockClient("user-a", 1)
	hub.RegisterCh <- slow

	store.events <- storage.UserEvent{UserID: "user-a", Event: models.Event{Name: models.EventWave}}
	store.events <- storage.UserEvent{UserID: "user-a", Event: models.Event{Name: models.EventWave}}

	assert.Eventually(t, func() bool { return slow.isClosed() },
		time.Second, 10*time.Millisecond, "wedged client is evicted")
	store.AssertExpectations(t)
}

// TestHubRefreshesPresenceWhileConnected verifies the hub keeps
// re-arming the TTL'd presence key for every held connection, so the
// key expires only when the connection (or the whole instance) is gone.
func TestHubRefreshesPresenceWhileConnected(t *testing.T) {
	restore := wavehub.SetPresenceRefreshInterval(20 * time.Millisecond)
	t.Cleanup(restore)

	var refreshes atomic.Int32
	store := newHubStorage()
	store.On("SetOnline", mock.Anything, "user-a").Return(nil).
		Run(func(mock.Arguments) { refreshes.Add(1) })
	hub, _ := startHub(t, store)

	c := newMockClient("user-a", 4)
	hub.RegisterCh <- c

	assert.Eventually(t, func() bool { return refreshes.Load() >= 3 },
		time.Second, 10*time.Millisecond, "presence key is re-armed past the initial registration")
}

// TestHubShutdownClosesClients verifies cancellation closes every held
// connection.
func TestHubShutdownClosesClients(t *testing.T) {
	store := newHubStorage()
	store.On("SetOnline", mock.Anything, "user-a").Return(nil).Once()
	hub, cancel := startHub(t, store)

	c := newMockClient("user-a", 4)
	hub.RegisterCh <- c

	cancel()
	assert.Eventually(t, func() bool { return c.isClosed() },
		time.Second, 10*time.Millisecond)
}
