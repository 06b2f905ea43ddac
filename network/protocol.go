package network

const (
	MsgTypeHeartbeat = 1

	MsgTypeJoinRoom  = 101
	MsgTypeLeaveRoom = 102

	MsgTypeMove            = 201
	MsgTypeLand            = 202
	MsgTypeTakeoff         = 203
	MsgTypeWalk            = 204
	MsgTypeJump            = 205
	MsgTypeSpawnProjectile = 206

	MsgTypeWorldSnapshot = 301

	MsgTypeRoomFull = 401
)
