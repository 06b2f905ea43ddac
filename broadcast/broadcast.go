// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/planetserver/logger"
	"github.com/wfunc/planetserver/room"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
}

// RoomBroadcaster 基于房间的广播器。发送走每会话的有界异步队列：
// 一个掉线或消费过慢的会话只会丢自己的消息，fan-out 继续。
type RoomBroadcaster struct {
	roomManager *room.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager: roomManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	r, exists := b.roomManager.GetRoom(roomID)
	if !exists {
		return ErrRoomNotFound
	}

	for _, s := range r.GetSessions() {
		if !s.Enqueue(msgID, data) {
			logger.Log.Debugf("broadcast: session %s queue full, message %d dropped", s.GetID(), msgID)
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	for _, r := range b.roomManager.Rooms() {
		if err := b.BroadcastToRoom(r.GetID(), msgID, data); err != nil && !errors.Is(err, ErrRoomNotFound) {
			return err
		}
	}
	return nil
}
