package services

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct {
	mu       sync.Mutex
	messages []WSMessage
	closed   bool
	failing  bool
}

func (c *stubConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Type
	}
	return out
}

type stubWatch struct {
	mu       sync.Mutex
	disposed int
}

func (w *stubWatch) Dispose() {
	w.mu.Lock()
	w.disposed++
	w.mu.Unlock()
}

func (w *stubWatch) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disposed
}

func TestWSHub_RegisterReplacesConnection(t *testing.T) {
	t.Parallel()

	hub := NewWSHub()
	first := &stubConn{}
	old := hub.Register("a", first)
	w := &stubWatch{}
	require.True(t, old.AddWatch(old.ScopeEpoch(), "w1", w))

	second := &stubConn{}
	current := hub.Register("a", second)

	assert.True(t, first.closed)
	assert.Equal(t, 1, w.count())
	assert.True(t, hub.IsOnline("a"))

	hub.Unregister(old)
	assert.True(t, hub.IsOnline("a"), "a stale client does not evict the current one")

	hub.Unregister(current)
	assert.False(t, hub.IsOnline("a"))
	assert.True(t, second.closed)
}

func TestClient_Watches(t *testing.T) {
	t.Parallel()

	hub := NewWSHub()
	client := hub.Register("a", &stubConn{})

	w1, w2 := &stubWatch{}, &stubWatch{}
	client.AddWatch(client.ScopeEpoch(), "timeline", w1)
	client.AddWatch(client.ScopeEpoch(), "timeline", w2)
	assert.Equal(t, 1, w1.count(), "a replaced watch is disposed")
	assert.Equal(t, 1, client.WatchCount())

	assert.True(t, client.RemoveWatch("timeline"))
	assert.False(t, client.RemoveWatch("timeline"))
	assert.Equal(t, 1, w2.count())

	hub.Unregister(client)
	late := &stubWatch{}
	assert.False(t, client.AddWatch(client.ScopeEpoch(), "late", late))
	assert.Equal(t, 1, late.count(), "a closed client disposes new watches at once")
	assert.Equal(t, 0, client.WatchCount())
}

func TestWSHub_SendToUser(t *testing.T) {
	t.Parallel()

	hub := NewWSHub()
	assert.Error(t, hub.SendToUser("nobody", WSMessage{Type: "ping"}))

	conn := &stubConn{}
	hub.Register("a", conn)
	require.NoError(t, hub.SendToUser("a", WSMessage{Type: "snapshot", WatchID: "w", Version: 3}))
	require.Len(t, conn.messages, 1)
	assert.Equal(t, "w", conn.messages[0].WatchID)
	assert.Equal(t, uint64(3), conn.messages[0].Version)

	conn.failing = true
	assert.Error(t, hub.SendToUser("a", WSMessage{Type: "snapshot"}))
	assert.False(t, hub.IsOnline("a"), "a failed write drops the connection")
}

func TestWSHub_PairChangesResetWatches(t *testing.T) {
	t.Parallel()

	hub := NewWSHub()
	connA, connB := &stubConn{}, &stubConn{}
	a := hub.Register("a", connA)
	b := hub.Register("b", connB)
	wa, wb := &stubWatch{}, &stubWatch{}
	a.AddWatch(a.ScopeEpoch(), "x", wa)
	b.AddWatch(b.ScopeEpoch(), "y", wb)

	hub.NotifyPairLinked("a", "b")

	assert.Equal(t, 1, wa.count())
	assert.Equal(t, 1, wb.count())
	assert.Equal(t, []string{"pair_linked"}, connA.types())
	assert.Equal(t, []string{"pair_linked"}, connB.types())

	hub.NotifyPairUnlinked("a", "b")
	assert.Equal(t, []string{"pair_linked", "pair_unlinked"}, connA.types())
}

func TestClient_ScopeResetDropsWatchOpenedUnderOldEpoch(t *testing.T) {
	t.Parallel()

	hub := NewWSHub()
	conn := &stubConn{}
	client := hub.Register("a", conn)

	// a watch resolved before the pair changed and registered after it
	epoch := client.ScopeEpoch()
	hub.NotifyPairUnlinked("a", "b")
	assert.NotEqual(t, epoch, client.ScopeEpoch())

	sent, err := client.SendScoped(epoch, WSMessage{Type: "snapshot", WatchID: "stale"})
	require.NoError(t, err)
	assert.False(t, sent, "snapshots of the old scope are dropped")

	stale := &stubWatch{}
	assert.False(t, client.AddWatch(epoch, "stale", stale))
	assert.Equal(t, 1, stale.count())
	assert.Equal(t, 0, client.WatchCount())
	assert.Equal(t, []string{"pair_unlinked"}, conn.types())

	fresh := &stubWatch{}
	assert.True(t, client.AddWatch(client.ScopeEpoch(), "fresh", fresh))
	sent, err = client.SendScoped(client.ScopeEpoch(), WSMessage{Type: "snapshot", WatchID: "fresh"})
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 0, fresh.count())
	assert.Equal(t, 1, client.WatchCount())
}

func TestWSHub_PartnerStatusAndMissYou(t *testing.T) {
	t.Parallel()

	hub := NewWSHub()
	connA := &stubConn{}
	hub.Register("a", connA)

	assert.False(t, hub.MissYou("a", "b", 0), "offline partner")
	hub.NotifyPartnerStatus("a", "b", true)

	connB := &stubConn{}
	hub.Register("b", connB)
	hub.NotifyPartnerStatus("b", "a", true)
	require.Len(t, connA.messages, 1)
	assert.Equal(t, "partner_status", connA.messages[0].Type)
	require.NotNil(t, connA.messages[0].Online)
	assert.True(t, *connA.messages[0].Online)

	assert.True(t, hub.MissYou("a", "b", 42))
	require.Len(t, connB.messages, 1)
	assert.Equal(t, "miss_you", connB.messages[0].Type)
	assert.Equal(t, "a", connB.messages[0].InitiatorID)
	assert.Equal(t, int64(42), connB.messages[0].Timestamp)
}
