package websocket

import (
	"testing"

	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(logger.NewNopLogger())
}

func TestRegistry_SubscribeUnsubscribe(t *testing.T) {
	r := newTestRegistry()
	r.Connect("alice", &fakeTransport{})
	r.Connect("bob", &fakeTransport{})

	added, err := r.Subscribe("alice", 1)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.Subscribe("alice", 1)
	require.NoError(t, err)
	assert.False(t, added, "second subscribe is a no-op")

	_, err = r.Subscribe("bob", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, r.SubscribersOf(1))
	assert.Equal(t, []uint{1}, r.SessionsOf("alice"))

	assert.True(t, r.Unsubscribe("alice", 1))
	assert.False(t, r.Unsubscribe("alice", 1))
	assert.Equal(t, []string{"bob"}, r.SubscribersOf(1))
	assert.Empty(t, r.SessionsOf("alice"))
}

func TestRegistry_SubscribeRequiresConnection(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Subscribe("ghost", 1)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Empty(t, r.SubscribersOf(1))
}

func TestRegistry_UnknownSessionIsEmpty(t *testing.T) {
	r := newTestRegistry()
	subscribers := r.SubscribersOf(42)
	assert.NotNil(t, subscribers)
	assert.Empty(t, subscribers)
}

func TestRegistry_DisconnectPurgesEverySession(t *testing.T) {
	r := newTestRegistry()
	transport := &fakeTransport{}
	r.Connect("alice", transport)
	r.Connect("bob", &fakeTransport{})
	for _, session := range []uint{1, 2, 3} {
		_, err := r.Subscribe("alice", session)
		require.NoError(t, err)
	}
	_, err := r.Subscribe("bob", 2)
	require.NoError(t, err)

	assert.True(t, r.Disconnect("alice"))
	assert.True(t, transport.isClosed())

	assert.Empty(t, r.SubscribersOf(1))
	assert.Equal(t, []string{"bob"}, r.SubscribersOf(2))
	assert.Empty(t, r.SessionsOf("alice"))

	stats := r.Stats()
	assert.Equal(t, 1, stats.Connections)
	assert.Equal(t, 1, stats.Sessions, "empty session entries are removed")
	assert.Equal(t, 1, stats.Subscriptions)

	assert.False(t, r.Disconnect("alice"))
}

func TestRegistry_ReconnectReplacesConnection(t *testing.T) {
	r := newTestRegistry()
	first := &fakeTransport{}
	old := r.Connect("alice", first)
	_, err := r.Subscribe("alice", 7)
	require.NoError(t, err)

	second := &fakeTransport{}
	current := r.Connect("alice", second)

	assert.NotEqual(t, old.ID, current.ID)
	assert.True(t, first.isClosed())
	assert.Equal(t, []string{"alice"}, r.SubscribersOf(7), "subscriptions survive reconnect")

	// the stale read pump exiting must not drop the new connection
	assert.False(t, r.DisconnectConnection(old))
	conn, ok := r.Connection("alice")
	require.True(t, ok)
	assert.Equal(t, current.ID, conn.ID)

	assert.True(t, r.DisconnectConnection(current))
	_, ok = r.Connection("alice")
	assert.False(t, ok)
}

func TestRegistry_SetTyping(t *testing.T) {
	r := newTestRegistry()
	conn := r.Connect("alice", &fakeTransport{})

	assert.False(t, conn.IsTyping())
	assert.True(t, r.SetTyping("alice", true))
	assert.True(t, conn.IsTyping())
	assert.False(t, r.SetTyping("nobody", true))
}

func TestRegistry_Close(t *testing.T) {
	r := newTestRegistry()
	a, b := &fakeTransport{}, &fakeTransport{}
	r.Connect("alice", a)
	r.Connect("bob", b)
	_, _ = r.Subscribe("alice", 1)

	r.Close()

	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
	assert.Equal(t, Stats{}, r.Stats())
}

func TestRegistry_DropSession(t *testing.T) {
	r := newTestRegistry()
	r.Connect("alice", &fakeTransport{})
	r.Connect("bob", &fakeTransport{})
	for _, sub := range []struct {
		identity string
		session  uint
	}{{"alice", 1}, {"alice", 2}, {"bob", 1}} {
		_, err := r.Subscribe(sub.identity, sub.session)
		require.NoError(t, err)
	}

	dropped := r.DropSession(1)
	assert.ElementsMatch(t, []string{"alice", "bob"}, dropped)
	assert.Empty(t, r.SubscribersOf(1))
	assert.Equal(t, []uint{2}, r.SessionsOf("alice"))
	assert.Empty(t, r.SessionsOf("bob"))

	_, ok := r.Connection("bob")
	assert.True(t, ok, "connections survive")
	assert.Nil(t, r.DropSession(1))
}
