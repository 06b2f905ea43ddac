// game/world.go
package game

import (
	"math/rand"
	"time"

	"github.com/wfunc/planetserver/models"
)

// 玩家垂直状态机: grounded --Jump--> ascending --tick--> descending --tick--> grounded
const (
	VerticalGrounded   = "grounded"
	VerticalAscending  = "ascending"
	VerticalDescending = "descending"
)

const (
	AnimationIdle    = "idle"
	AnimationWalking = "walking"
)

// Params 世界参数，来自配置
type Params struct {
	ProjectileLifetime time.Duration
	ProjectileInterval time.Duration
	JumpDuration       time.Duration
	JumpHeight         float64
	SurfaceStandoff    float64
	TakeoffClearance   float64
	SpawnExtent        float64
	SpawnHeight        float64
}

// Player 权威玩家实体。只有持有 World 的房间 goroutine 写它。
type Player struct {
	ID        string
	Position  models.Vector3
	Rotation  models.Quaternion
	Animation string

	// PlanetID 非空表示吸附在该行星表面，空表示自由飞行
	PlanetID     string
	SurfaceAngle float64

	VerticalState   string
	VerticalElapsed float64 // 秒

	projectileSeq int
	lastSpawn     time.Time
}

// ProjectilesFired 玩家累计发射的弹丸数
func (p *Player) ProjectilesFired() int { return p.projectileSeq }

// Planet 可着陆球体，创建后只读
type Planet struct {
	ID       string
	Name     string
	Position models.Vector3
	Radius   float64
	Color    string
}

// Projectile 短生命周期实体。OwnerID 是弱引用，只用于级联删除和过滤。
type Projectile struct {
	ID        string
	OwnerID   string
	Position  models.Vector3
	Direction models.Vector3
	Color     string
	CreatedAt time.Time
}

// World 是一个房间的全部权威状态。内部不加锁：
// 所有写入都发生在房间自己的事件循环 goroutine 上。
type World struct {
	params Params

	players     map[string]*Player
	planets     map[string]*Planet
	projectiles map[string]*Projectile

	// 自上次快照以来被删除的实体 id，广播时显式下发
	removedPlayers     []string
	removedProjectiles []string

	rng *rand.Rand
}

func NewWorld(params Params, planets []Planet, seed int64) *World {
	w := &World{
		params:      params,
		players:     make(map[string]*Player),
		planets:     make(map[string]*Planet),
		projectiles: make(map[string]*Projectile),
		rng:         rand.New(rand.NewSource(seed)),
	}
	for i := range planets {
		p := planets[i]
		w.planets[p.ID] = &p
	}
	return w
}

// AddPlayer 在随机出生点创建玩家
func (w *World) AddPlayer(id string) *Player {
	extent := w.params.SpawnExtent
	p := &Player{
		ID: id,
		Position: models.Vector3{
			X: w.rng.Float64()*2*extent - extent,
			Y: w.params.SpawnHeight,
			Z: w.rng.Float64()*2*extent - extent,
		},
		Rotation:      models.Quaternion{W: 1},
		Animation:     AnimationIdle,
		VerticalState: VerticalGrounded,
	}
	w.players[id] = p
	return p
}

// RemovePlayer 删除玩家并级联删除其所有弹丸。重复调用是 no-op。
func (w *World) RemovePlayer(id string) bool {
	if _, exists := w.players[id]; !exists {
		return false
	}
	delete(w.players, id)
	w.removedPlayers = append(w.removedPlayers, id)

	for pid, proj := range w.projectiles {
		if proj.OwnerID == id {
			delete(w.projectiles, pid)
			w.removedProjectiles = append(w.removedProjectiles, pid)
		}
	}
	return true
}

func (w *World) GetPlayer(id string) (*Player, bool) {
	p, exists := w.players[id]
	return p, exists
}

func (w *World) GetPlanet(id string) (*Planet, bool) {
	p, exists := w.planets[id]
	return p, exists
}

func (w *World) GetProjectile(id string) (*Projectile, bool) {
	p, exists := w.projectiles[id]
	return p, exists
}

func (w *World) PlayerCount() int     { return len(w.players) }
func (w *World) ProjectileCount() int { return len(w.projectiles) }

// Snapshot 生成当前 tick 的全量复制状态并清空删除列表
func (w *World) Snapshot(tick uint64) *models.WorldSnapshot {
	snap := &models.WorldSnapshot{
		Tick:               tick,
		Players:            make([]models.PlayerState, 0, len(w.players)),
		Projectiles:        make([]models.ProjectileState, 0, len(w.projectiles)),
		RemovedPlayers:     w.removedPlayers,
		RemovedProjectiles: w.removedProjectiles,
	}
	w.removedPlayers = nil
	w.removedProjectiles = nil

	for _, p := range w.players {
		snap.Players = append(snap.Players, models.PlayerState{
			ID:              p.ID,
			Position:        p.Position,
			Rotation:        p.Rotation,
			Animation:       p.Animation,
			PlanetID:        p.PlanetID,
			SurfaceAngle:    p.SurfaceAngle,
			VerticalState:   p.VerticalState,
			VerticalElapsed: p.VerticalElapsed,
		})
	}
	for _, pl := range w.planets {
		snap.Planets = append(snap.Planets, models.PlanetState{
			ID:       pl.ID,
			Name:     pl.Name,
			Position: pl.Position,
			Radius:   pl.Radius,
			Color:    pl.Color,
		})
	}
	for _, proj := range w.projectiles {
		snap.Projectiles = append(snap.Projectiles, models.ProjectileState{
			ID:        proj.ID,
			OwnerID:   proj.OwnerID,
			Position:  proj.Position,
			Direction: proj.Direction,
			Color:     proj.Color,
			Timestamp: proj.CreatedAt.UnixMilli(),
		})
	}
	return snap
}
