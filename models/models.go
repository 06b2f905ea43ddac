// models/models.go
package models

import (
	"time"
)

// Vector3 世界坐标
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion 单位四元数，房间内玩家朝向的规范表示
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Euler XYZ 欧拉角（弧度）。仅在入站 move 消息里出现，入库前转为四元数
type Euler struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PlayerState 玩家复制状态
type PlayerState struct {
	ID              string     `json:"id"`
	Position        Vector3    `json:"position"`
	Rotation        Quaternion `json:"rotation"`
	Animation       string     `json:"animation"`
	PlanetID        string     `json:"planetId,omitempty"`
	SurfaceAngle    float64    `json:"surfaceAngle,omitempty"`
	VerticalState   string     `json:"verticalState"`
	VerticalElapsed float64    `json:"verticalElapsed,omitempty"`
}

// PlanetState 行星复制状态（创建后不变）
type PlanetState struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Position Vector3 `json:"position"`
	Radius   float64 `json:"radius"`
	Color    string  `json:"color"`
}

// ProjectileState 弹丸复制状态
type ProjectileState struct {
	ID        string  `json:"id"`
	OwnerID   string  `json:"ownerId"`
	Position  Vector3 `json:"position"`
	Direction Vector3 `json:"direction"`
	Color     string  `json:"color"`
	Timestamp int64   `json:"timestamp"`
}

// WorldSnapshot 每个 tick 广播的权威全量状态。
// 删除的实体显式列出，客户端不需要靠 diff 缺失来推断。
type WorldSnapshot struct {
	Tick               uint64            `json:"tick"`
	Players            []PlayerState     `json:"players"`
	Planets            []PlanetState     `json:"planets,omitempty"`
	Projectiles        []ProjectileState `json:"projectiles"`
	RemovedPlayers     []string          `json:"removedPlayers,omitempty"`
	RemovedProjectiles []string          `json:"removedProjectiles,omitempty"`
}

// --- 入站意图载荷 ---

// MoveInput free-flight position/orientation overwrite. Exactly one of
// Quaternion/Rotation is expected; quaternion wins when both are present.
type MoveInput struct {
	Position   Vector3     `json:"position"`
	Quaternion *Quaternion `json:"quaternion,omitempty"`
	Rotation   *Euler      `json:"rotation,omitempty"`
	Animation  string      `json:"animation,omitempty"`
}

type LandInput struct {
	PlanetID string  `json:"planetId"`
	Position Vector3 `json:"position"`
}

type WalkInput struct {
	Angle float64 `json:"angle"`
}

type ProjectileInput struct {
	Position  Vector3 `json:"position"`
	Direction Vector3 `json:"direction"`
	Color     string  `json:"color"`
}

// --- 房间加入 ---

type JoinRequest struct {
	RoomName string `json:"room_name"`
}

type JoinAccepted struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

// --- 持久化模型（遥测，不回灌权威状态） ---

// SessionVisit 一次会话在房间中的停留记录
type SessionVisit struct {
	SessionID   string    `json:"session_id"`
	RoomID      string    `json:"room_id"`
	JoinedAt    time.Time `json:"joined_at"`
	LeftAt      time.Time `json:"left_at"`
	Projectiles int       `json:"projectiles"`
}

// RoomRecord 房间生命周期记录
type RoomRecord struct {
	RoomID     string    `json:"room_id"`
	Name       string    `json:"name"`
	PeakPlayer int       `json:"peak_players"`
	CreatedAt  time.Time `json:"created_at"`
	ClosedAt   time.Time `json:"closed_at"`
}
