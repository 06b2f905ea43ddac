package broadcast

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/planetserver/game"
	"github.com/wfunc/planetserver/network"
	"github.com/wfunc/planetserver/room"
	"github.com/wfunc/planetserver/session"
)

// recordingConn captures enqueued frames; full simulates a stalled client.
type recordingConn struct {
	mutex sync.Mutex
	count int
	full  bool
}

func (c *recordingConn) Send(msgID uint16, data []byte) error { return nil }
func (c *recordingConn) Enqueue(msgID uint16, data []byte) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.full {
		return false
	}
	c.count++
	return true
}
func (c *recordingConn) Close() error                         { return nil }
func (c *recordingConn) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (c *recordingConn) SetHeartbeat(interval time.Duration)  {}
func (c *recordingConn) ReadPacket() (*network.Packet, error) { return nil, nil }

func (c *recordingConn) enqueued() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.count
}

func testManager() *room.Manager {
	opts := room.Options{
		MaxPlayers:    4,
		TickInterval:  time.Hour, // keep the room loop quiet during the test
		SweepTicks:    1,
		CommandBuffer: 16,
	}
	factory := func() *game.World {
		return game.NewWorld(game.Params{SpawnExtent: 20, SpawnHeight: 1}, nil, 1)
	}
	return room.NewRoomManager(opts, factory, nil)
}

func TestBroadcastToRoom(t *testing.T) {
	manager := testManager()
	b := NewRoomBroadcaster(manager)
	r := manager.CreateRoom("default", b)
	defer r.Close()

	c1 := &recordingConn{}
	c2 := &recordingConn{}
	r.Join(session.NewSession("s1", c1))
	r.Join(session.NewSession("s2", c2))

	if err := b.BroadcastToRoom(r.ID, network.MsgTypeWorldSnapshot, []byte(`{}`)); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}
	if c1.enqueued() != 1 || c2.enqueued() != 1 {
		t.Errorf("Expected one frame per session, got %d and %d", c1.enqueued(), c2.enqueued())
	}
}

func TestBroadcastToRoom_SlowSessionDoesNotAbortFanout(t *testing.T) {
	manager := testManager()
	b := NewRoomBroadcaster(manager)
	r := manager.CreateRoom("default", b)
	defer r.Close()

	stalled := &recordingConn{full: true}
	healthy := &recordingConn{}
	r.Join(session.NewSession("stalled", stalled))
	r.Join(session.NewSession("healthy", healthy))

	if err := b.BroadcastToRoom(r.ID, network.MsgTypeWorldSnapshot, []byte(`{}`)); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}
	if healthy.enqueued() != 1 {
		t.Error("Healthy session must still receive the broadcast")
	}
}

func TestBroadcastToRoom_UnknownRoom(t *testing.T) {
	b := NewRoomBroadcaster(testManager())
	if err := b.BroadcastToRoom("missing", 1, nil); err != ErrRoomNotFound {
		t.Fatalf("Expected ErrRoomNotFound, got %v", err)
	}
}
