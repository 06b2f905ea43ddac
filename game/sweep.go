// game/sweep.go
package game

import (
	"time"

	"github.com/wfunc/planetserver/logger"
)

// SweepProjectiles 清除超过生命周期的弹丸，O(n) 单遍。
// 返回被删除的数量。过期实体最多活到下一次 sweep，不做读时惰性删除。
func (w *World) SweepProjectiles(now time.Time) int {
	removed := 0
	for id, proj := range w.projectiles {
		if now.Sub(proj.CreatedAt) > w.params.ProjectileLifetime {
			delete(w.projectiles, id)
			w.removedProjectiles = append(w.removedProjectiles, id)
			removed++
		}
	}
	return removed
}

// AdvanceMotion 推进所有玩家的垂直状态机一个 tick。
// 单个玩家的异常不中断本轮其余玩家的推进。
func (w *World) AdvanceMotion(dt time.Duration) {
	for _, p := range w.players {
		w.advancePlayer(p, dt)
	}
}

func (w *World) advancePlayer(p *Player, dt time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("motion advance panic for player %s: %v", p.ID, r)
		}
	}()

	if p.VerticalState == VerticalGrounded {
		return
	}

	// 玩家在行星间竞态中失去吸附：直接取消跳跃
	planet, exists := w.planets[p.PlanetID]
	if !exists {
		p.VerticalState = VerticalGrounded
		p.VerticalElapsed = 0
		return
	}

	p.VerticalElapsed += dt.Seconds()
	duration := w.params.JumpDuration.Seconds()

	if p.VerticalElapsed >= duration || duration <= 0 {
		// 落地：精确回到 radius+standoff，不留残余漂移
		p.VerticalState = VerticalGrounded
		p.VerticalElapsed = 0
		p.Position, p.Rotation = surfacePlacement(planet.Position, planet.Radius, w.params.SurfaceStandoff, p.SurfaceAngle, 0)
		return
	}

	if p.VerticalElapsed >= duration/2 {
		p.VerticalState = VerticalDescending
	}
	p.Position, p.Rotation = surfacePlacement(planet.Position, planet.Radius, w.params.SurfaceStandoff, p.SurfaceAngle, w.jumpLift(p))
}
