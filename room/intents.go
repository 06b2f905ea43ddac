// room/intents.go
package room

import (
	"encoding/json"

	"github.com/wfunc/planetserver/logger"
	"github.com/wfunc/planetserver/models"
	"github.com/wfunc/planetserver/network"
)

// 意图路由：按消息 ID 查表解码并转发给变更引擎。路由本身不改状态；
// 未知类型与坏载荷在这里丢弃并告警（fail-soft，客户端不是可信边界，
// 不允许它弄崩房间），模式不合法的意图由引擎静默忽略。

type intentHandler func(r *Room, cmd intentCmd) error

var intentHandlers = map[uint16]intentHandler{
	network.MsgTypeMove:            handleMove,
	network.MsgTypeLand:            handleLand,
	network.MsgTypeTakeoff:         handleTakeoff,
	network.MsgTypeWalk:            handleWalk,
	network.MsgTypeJump:            handleJump,
	network.MsgTypeSpawnProjectile: handleSpawnProjectile,
}

func (r *Room) dispatchIntent(cmd intentCmd) {
	handler, known := intentHandlers[cmd.msgID]
	if !known {
		logger.Log.Warnf("room %s: unknown intent %d from %s", r.ID, cmd.msgID, cmd.sessionID)
		if r.observer != nil {
			r.observer.IntentDropped()
		}
		return
	}
	if r.observer != nil {
		r.observer.IntentReceived()
	}
	if err := handler(r, cmd); err != nil {
		logger.Log.Warnf("room %s: malformed intent %d from %s: %v", r.ID, cmd.msgID, cmd.sessionID, err)
		if r.observer != nil {
			r.observer.IntentDropped()
		}
	}
}

func handleMove(r *Room, cmd intentCmd) error {
	var in models.MoveInput
	if err := json.Unmarshal(cmd.data, &in); err != nil {
		return err
	}
	r.world.Move(cmd.sessionID, in)
	return nil
}

func handleLand(r *Room, cmd intentCmd) error {
	var in models.LandInput
	if err := json.Unmarshal(cmd.data, &in); err != nil {
		return err
	}
	r.world.Land(cmd.sessionID, in)
	return nil
}

func handleTakeoff(r *Room, cmd intentCmd) error {
	r.world.Takeoff(cmd.sessionID)
	return nil
}

func handleWalk(r *Room, cmd intentCmd) error {
	var in models.WalkInput
	if err := json.Unmarshal(cmd.data, &in); err != nil {
		return err
	}
	r.world.Walk(cmd.sessionID, in)
	return nil
}

func handleJump(r *Room, cmd intentCmd) error {
	r.world.Jump(cmd.sessionID)
	return nil
}

func handleSpawnProjectile(r *Room, cmd intentCmd) error {
	var in models.ProjectileInput
	if err := json.Unmarshal(cmd.data, &in); err != nil {
		return err
	}
	r.world.SpawnProjectile(cmd.sessionID, in, cmd.received)
	return nil
}
