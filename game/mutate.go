// game/mutate.go
package game

import (
	"fmt"
	"math"
	"time"

	"github.com/wfunc/planetserver/models"
)

// 变更引擎：权威状态的唯一写入方。所有操作在持有 World 的房间
// goroutine 上同步执行；playerId 解析不到活玩家时一律 no-op，
// 吃掉 leave 与在途意图之间的竞态。

// Move 自由飞行时客户端直接覆写位置与朝向（运动学信任客户端，
// 反作弊校验是明确的 non-goal）。吸附在行星上时忽略。
func (w *World) Move(playerID string, in models.MoveInput) {
	p, exists := w.players[playerID]
	if !exists || p.PlanetID != "" {
		return
	}

	p.Position = in.Position
	switch {
	case in.Quaternion != nil:
		p.Rotation = *in.Quaternion
	case in.Rotation != nil:
		p.Rotation = quatFromEuler(*in.Rotation)
	}
	if in.Animation != "" {
		p.Animation = in.Animation
	}
}

// Land 吸附到行星表面。初始表面角取玩家相对球心偏移在赤道面上的
// atan2(dz, dx)；位置钳到 radius+standoff 的球面上。planetId 解析
// 不到时忽略（悬挂引用按 no-op 处理）。
func (w *World) Land(playerID string, in models.LandInput) {
	p, exists := w.players[playerID]
	if !exists {
		return
	}
	planet, exists := w.planets[in.PlanetID]
	if !exists {
		return
	}

	offset := vecSub(in.Position, planet.Position)
	angle := math.Atan2(offset.Z, offset.X)

	p.PlanetID = planet.ID
	p.SurfaceAngle = angle
	p.VerticalState = VerticalGrounded
	p.VerticalElapsed = 0
	p.Position, p.Rotation = surfacePlacement(planet.Position, planet.Radius, w.params.SurfaceStandoff, angle, 0)
	p.Animation = AnimationIdle
}

// Takeoff 离开行星：沿外法线位移固定 clearance 后回到自由飞行。
// 法线退化（玩家在球心上）时拒绝起飞而不是产出 NaN。
func (w *World) Takeoff(playerID string) {
	p, exists := w.players[playerID]
	if !exists || p.PlanetID == "" {
		return
	}
	planet, exists := w.planets[p.PlanetID]
	if !exists {
		// 行星表不可变，这里只可能是配置错误；安全起见直接松开
		p.PlanetID = ""
		return
	}

	normal, ok := vecNormalize(vecSub(p.Position, planet.Position))
	if !ok {
		return
	}

	p.Position = vecAdd(p.Position, vecScale(normal, w.params.TakeoffClearance))
	p.PlanetID = ""
	p.SurfaceAngle = 0
	p.VerticalState = VerticalGrounded
	p.VerticalElapsed = 0
	p.Animation = AnimationIdle
}

// Walk 沿行星赤道走到指定角度。(angle, planet) 的纯函数：位置与
// 朝向由 surfacePlacement 确定性给出。跳跃中行走保留当前弧高。
func (w *World) Walk(playerID string, in models.WalkInput) {
	p, exists := w.players[playerID]
	if !exists || p.PlanetID == "" {
		return
	}
	planet, exists := w.planets[p.PlanetID]
	if !exists {
		return
	}

	p.SurfaceAngle = in.Angle
	p.Position, p.Rotation = surfacePlacement(planet.Position, planet.Radius, w.params.SurfaceStandoff, in.Angle, w.jumpLift(p))
	p.Animation = AnimationWalking
}

// Jump 启动半正弦跳跃弧。已在跳跃中时忽略；推进与落地归
// Sweep，变更引擎只负责起跳。
func (w *World) Jump(playerID string) {
	p, exists := w.players[playerID]
	if !exists || p.PlanetID == "" {
		return
	}
	if p.VerticalState != VerticalGrounded {
		return
	}
	p.VerticalState = VerticalAscending
	p.VerticalElapsed = 0
}

// SpawnProjectile 创建玩家拥有的弹丸。方向归一化失败（零向量）时
// 丢弃；服务端最小发射间隔挡掉绕过客户端冷却的刷屏。
func (w *World) SpawnProjectile(playerID string, in models.ProjectileInput, now time.Time) *Projectile {
	p, exists := w.players[playerID]
	if !exists {
		return nil
	}

	dir, ok := vecNormalize(in.Direction)
	if !ok {
		return nil
	}
	if w.params.ProjectileInterval > 0 && !p.lastSpawn.IsZero() && now.Sub(p.lastSpawn) < w.params.ProjectileInterval {
		return nil
	}

	id := fmt.Sprintf("%s_%d", playerID, p.projectileSeq)
	p.projectileSeq++
	p.lastSpawn = now

	proj := &Projectile{
		ID:        id,
		OwnerID:   playerID,
		Position:  in.Position,
		Direction: dir,
		Color:     in.Color,
		CreatedAt: now,
	}
	w.projectiles[id] = proj
	return proj
}

// jumpLift 当前跳跃弧高度，grounded 时为 0
func (w *World) jumpLift(p *Player) float64 {
	if p.VerticalState == VerticalGrounded {
		return 0
	}
	duration := w.params.JumpDuration.Seconds()
	if duration <= 0 {
		return 0
	}
	frac := p.VerticalElapsed / duration
	if frac >= 1 {
		return 0
	}
	return w.params.JumpHeight * math.Sin(frac*math.Pi)
}
