package room

import "time"

// Broadcaster defines the interface for broadcasting messages to a room.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
}

// Observer receives room activity counters. Implemented by the monitor;
// a nil Observer disables reporting.
type Observer interface {
	IntentReceived()
	IntentDropped()
	PlayerJoined()
	PlayerLeft()
	ProjectileCount(n int)
	ObserveBroadcast(duration time.Duration)
}
