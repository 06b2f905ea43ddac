// room/room.go
package room

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/planetserver/game"
	"github.com/wfunc/planetserver/logger"
	"github.com/wfunc/planetserver/network"
	"github.com/wfunc/planetserver/session"
)

// ErrRoomFull 房间满员，加入在创建玩家之前被拒绝
var ErrRoomFull = errors.New("room full")

// ErrRoomClosed 房间已关闭
var ErrRoomClosed = errors.New("room closed")

// Options 房间运行参数
type Options struct {
	MaxPlayers    int
	TickInterval  time.Duration
	SweepTicks    int
	CommandBuffer int
}

// 单执行体模型：每个房间一个 goroutine 拥有 World，加入、离开、
// 意图、tick 全部经同一个命令通道/select 串行化。World 内部因此
// 不需要任何锁，观察者永远看不到半更新的玩家。
type joinCmd struct {
	sess  *session.Session
	reply chan joinResult
}

type joinResult struct {
	player *game.Player
	err    error
}

type leaveCmd struct {
	sessionID string
	reply     chan leaveResult
}

type leaveResult struct {
	present     bool
	projectiles int
}

type intentCmd struct {
	sessionID string
	msgID     uint16
	data      []byte
	received  time.Time
}

// Room 是游戏房间的核心结构
type Room struct {
	ID         string
	Name       string
	MaxPlayers int
	CreatedAt  time.Time

	world       *game.World
	opts        Options
	broadcaster Broadcaster
	observer    Observer

	commands  chan interface{}
	closeChan chan struct{}
	closeOnce sync.Once

	// 会话表由房间 goroutine 写、广播器读
	sessions     map[string]*session.Session
	sessionMutex sync.RWMutex

	tick       uint64
	lastActive time.Time
	peakMutex  sync.RWMutex
	peak       int
}

// NewRoom 创建房间并启动其事件循环
func NewRoom(id, name string, opts Options, world *game.World, broadcaster Broadcaster, observer Observer) *Room {
	r := &Room{
		ID:          id,
		Name:        name,
		MaxPlayers:  opts.MaxPlayers,
		CreatedAt:   time.Now(),
		world:       world,
		opts:        opts,
		broadcaster: broadcaster,
		observer:    observer,
		commands:    make(chan interface{}, opts.CommandBuffer),
		closeChan:   make(chan struct{}),
		sessions:    make(map[string]*session.Session),
		lastActive:  time.Now(),
	}
	go r.loop()
	return r
}

func (r *Room) GetID() string { return r.ID }

// Join 在房间执行体上创建玩家，满员时在创建之前返回 ErrRoomFull
func (r *Room) Join(sess *session.Session) (*game.Player, error) {
	cmd := joinCmd{sess: sess, reply: make(chan joinResult, 1)}
	select {
	case r.commands <- cmd:
	case <-r.closeChan:
		return nil, ErrRoomClosed
	}
	select {
	case res := <-cmd.reply:
		return res.player, res.err
	case <-r.closeChan:
		return nil, ErrRoomClosed
	}
}

// Leave 移除玩家并级联删除其弹丸。重复调用为 no-op。
// 返回玩家本次停留共发射的弹丸数，供遥测记录。
func (r *Room) Leave(sessionID string) (projectiles int, present bool) {
	cmd := leaveCmd{sessionID: sessionID, reply: make(chan leaveResult, 1)}
	select {
	case r.commands <- cmd:
	case <-r.closeChan:
		return 0, false
	}
	select {
	case res := <-cmd.reply:
		return res.projectiles, res.present
	case <-r.closeChan:
		return 0, false
	}
}

// Submit 投递一条意图。非阻塞：命令通道拥塞时丢弃，保证 tick 准时。
func (r *Room) Submit(sessionID string, msgID uint16, data []byte) {
	select {
	case r.commands <- intentCmd{sessionID: sessionID, msgID: msgID, data: data, received: time.Now()}:
	default:
		if r.observer != nil {
			r.observer.IntentDropped()
		}
		logger.Log.Warnf("room %s: command queue full, intent %d from %s dropped", r.ID, msgID, sessionID)
	}
}

// GetSessions returns a slice of all sessions in the room (thread-safe).
func (r *Room) GetSessions() []*session.Session {
	r.sessionMutex.RLock()
	defer r.sessionMutex.RUnlock()

	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (r *Room) SessionCount() int {
	r.sessionMutex.RLock()
	defer r.sessionMutex.RUnlock()
	return len(r.sessions)
}

// PeakPlayers 房间生命周期内的最高同时在线数
func (r *Room) PeakPlayers() int {
	r.peakMutex.RLock()
	defer r.peakMutex.RUnlock()
	return r.peak
}

// IdleSince 最近一次有人在房间里的时刻
func (r *Room) IdleSince() time.Time {
	r.sessionMutex.RLock()
	defer r.sessionMutex.RUnlock()
	return r.lastActive
}

// Close 关闭房间，停止事件循环
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.closeChan) })
}

// loop 是房间唯一的写入方：命令与 tick 在同一个 select 里串行处理
func (r *Room) loop() {
	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-r.commands:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.onTick()
		case <-r.closeChan:
			return
		}
	}
}

func (r *Room) handleCommand(cmd interface{}) {
	switch c := cmd.(type) {
	case joinCmd:
		r.handleJoin(c)
	case leaveCmd:
		r.handleLeave(c)
	case intentCmd:
		r.dispatchIntent(c)
	default:
		logger.Log.Errorf("room %s: unexpected command type %T", r.ID, cmd)
	}
}

func (r *Room) handleJoin(cmd joinCmd) {
	r.sessionMutex.Lock()
	if len(r.sessions) >= r.MaxPlayers {
		r.sessionMutex.Unlock()
		cmd.reply <- joinResult{err: ErrRoomFull}
		return
	}
	r.sessions[cmd.sess.ID] = cmd.sess
	count := len(r.sessions)
	r.lastActive = time.Now()
	r.sessionMutex.Unlock()

	r.peakMutex.Lock()
	if count > r.peak {
		r.peak = count
	}
	r.peakMutex.Unlock()

	player := r.world.AddPlayer(cmd.sess.ID)
	if r.observer != nil {
		r.observer.PlayerJoined()
	}
	logger.Log.Infof("room %s: player %s joined (%d/%d)", r.ID, cmd.sess.ID, count, r.MaxPlayers)
	cmd.reply <- joinResult{player: player}
}

func (r *Room) handleLeave(cmd leaveCmd) {
	r.sessionMutex.Lock()
	_, present := r.sessions[cmd.sessionID]
	delete(r.sessions, cmd.sessionID)
	r.lastActive = time.Now()
	r.sessionMutex.Unlock()

	if !present {
		cmd.reply <- leaveResult{}
		return
	}
	fired := 0
	if p, ok := r.world.GetPlayer(cmd.sessionID); ok {
		fired = p.ProjectilesFired()
	}
	r.world.RemovePlayer(cmd.sessionID)
	cmd.reply <- leaveResult{present: true, projectiles: fired}
	if r.observer != nil {
		r.observer.PlayerLeft()
	}
	logger.Log.Infof("room %s: player %s left", r.ID, cmd.sessionID)
}

// onTick 推进世界并广播。广播走每会话的有界异步队列，
// 慢客户端不会阻塞这里。
func (r *Room) onTick() {
	r.tick++
	now := time.Now()

	r.world.AdvanceMotion(r.opts.TickInterval)
	if r.opts.SweepTicks > 0 && r.tick%uint64(r.opts.SweepTicks) == 0 {
		r.world.SweepProjectiles(now)
	}
	if r.observer != nil {
		r.observer.ProjectileCount(r.world.ProjectileCount())
	}

	snap := r.world.Snapshot(r.tick)
	if len(snap.Players) == 0 && len(snap.RemovedPlayers) == 0 {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		logger.Log.Errorf("room %s: snapshot marshal failed: %v", r.ID, err)
		return
	}
	start := time.Now()
	if err := r.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeWorldSnapshot, data); err != nil {
		logger.Log.Warnf("room %s: broadcast failed: %v", r.ID, err)
	}
	if r.observer != nil {
		r.observer.ObserveBroadcast(time.Since(start))
	}
}

// --- 房间管理器 ---

// WorldFactory 为新房间构造权威世界
type WorldFactory func() *game.World

// Manager 管理所有房间
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex

	opts     Options
	factory  WorldFactory
	observer Observer
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager(opts Options, factory WorldFactory, observer Observer) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		opts:     opts,
		factory:  factory,
		observer: observer,
	}
}

// CreateRoom 创建一个新房间并添加到管理器
func (m *Manager) CreateRoom(name string, broadcaster Broadcaster) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.createLocked(name, broadcaster)
}

func (m *Manager) createLocked(name string, broadcaster Broadcaster) *Room {
	id := uuid.New().String()
	room := NewRoom(id, name, m.opts, m.factory(), broadcaster, m.observer)
	m.rooms[id] = room
	return room
}

// JoinOrCreate 按房间名复用有空位的房间，否则新建一个
func (m *Manager) JoinOrCreate(name string, broadcaster Broadcaster) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, room := range m.rooms {
		if room.Name == name && room.SessionCount() < room.MaxPlayers {
			return room
		}
	}
	return m.createLocked(name, broadcaster)
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[id]; exists {
		room.Close()
		delete(m.rooms, id)
	}
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// Rooms 返回当前所有房间的快照
func (m *Manager) Rooms() []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// ReapIdle 关闭空置超过 timeout 的房间，返回关闭的房间
func (m *Manager) ReapIdle(timeout time.Duration) []*Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var reaped []*Room
	now := time.Now()
	for id, room := range m.rooms {
		if room.SessionCount() == 0 && now.Sub(room.IdleSince()) > timeout {
			room.Close()
			delete(m.rooms, id)
			reaped = append(reaped, room)
		}
	}
	return reaped
}
