package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory(t *testing.T) {
	d := NewDirectory()
	a, b := newRecordingConn("a"), newRecordingConn("b")
	d.Register(a)
	d.Register(b)

	// binding an unknown connection is ignored
	d.Bind("ghost", "ROOM01", "p9", "")
	_, ok := d.Lookup("ghost")
	assert.False(t, ok)

	d.Bind("a", "ROOM01", "p1", "client-a")
	d.Bind("b", "ROOM01", "p2", "")

	s, ok := d.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, Session{Conn: a, RoomID: "ROOM01", PlayerID: "p1", ClientID: "client-a"}, s)
	assert.Len(t, d.InRoom("ROOM01"), 2)
	assert.Len(t, d.All(), 2)

	s, ok = d.PlayerSession("ROOM01", "p2")
	require.True(t, ok)
	assert.Equal(t, "b", s.Conn.ID())

	// re-registering keeps the binding
	d.Register(a)
	s, _ = d.Lookup("a")
	assert.Equal(t, "ROOM01", s.RoomID)

	d.Bind("a", "ROOM02", "p5", "")
	assert.Len(t, d.InRoom("ROOM01"), 1)
	_, ok = d.PlayerSession("ROOM01", "p1")
	assert.False(t, ok)

	d.Unbind("b")
	assert.Empty(t, d.InRoom("ROOM01"))
	s, ok = d.Lookup("b")
	require.True(t, ok)
	assert.Empty(t, s.RoomID)

	d.Unregister("a")
	_, ok = d.Lookup("a")
	assert.False(t, ok)
	assert.Empty(t, d.InRoom("ROOM02"))
	assert.Len(t, d.All(), 1)
}
