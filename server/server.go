package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/planetserver/broadcast"
	"github.com/wfunc/planetserver/config"
	"github.com/wfunc/planetserver/game"
	"github.com/wfunc/planetserver/logger"
	"github.com/wfunc/planetserver/models"
	"github.com/wfunc/planetserver/monitor"
	"github.com/wfunc/planetserver/network"
	"github.com/wfunc/planetserver/persistence"
	"github.com/wfunc/planetserver/room"
	gameserver_rpc "github.com/wfunc/planetserver/rpc"
	"github.com/wfunc/planetserver/services"
	"github.com/wfunc/planetserver/session"
	"github.com/wfunc/planetserver/timer"
)

const heartbeatInterval = 30 * time.Second

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	recordService  *services.RecordService
	broadcaster    broadcast.Broadcaster
	rpcServer      *gameserver_rpc.Server
	monitor        *monitor.Monitor
	timerManager   *timer.Manager
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	mon := monitor.NewMonitor("planetserver")

	s := &GameServer{
		cfg:            cfg,
		sessionManager: session.NewManager(),
		recordService:  services.NewRecordService(db),
		monitor:        mon,
		timerManager:   timer.NewManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	opts := room.Options{
		MaxPlayers:    cfg.Room.MaxPlayers,
		TickInterval:  cfg.Room.TickInterval,
		SweepTicks:    cfg.Room.SweepTicks,
		CommandBuffer: cfg.Room.CommandBuffer,
	}
	s.roomManager = room.NewRoomManager(opts, s.worldFactory(), mon)
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager)

	rpcServer, err := gameserver_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	adminService := gameserver_rpc.NewAdminService(s.roomManager, s.recordService)
	rpc.Register(adminService)

	// 服务器级定时任务：空闲房间回收、遥测批量落库、房间数指标
	s.timerManager.AddTimer(time.Minute, time.Minute, s.reapIdleRooms)
	s.timerManager.AddTimer(30*time.Second, 30*time.Second, s.recordService.Flush)
	s.timerManager.AddTimer(10*time.Second, 10*time.Second, func() {
		mon.SetActiveRooms(s.roomManager.Count())
	})

	return s
}

// worldFactory 用配置构造新房间的权威世界
func (s *GameServer) worldFactory() room.WorldFactory {
	w := s.cfg.World
	params := game.Params{
		ProjectileLifetime: w.ProjectileLifetime,
		ProjectileInterval: w.ProjectileInterval,
		JumpDuration:       w.JumpDuration,
		JumpHeight:         w.JumpHeight,
		SurfaceStandoff:    w.SurfaceStandoff,
		TakeoffClearance:   w.TakeoffClearance,
		SpawnExtent:        w.SpawnExtent,
		SpawnHeight:        w.SpawnHeight,
	}
	planets := make([]game.Planet, 0, len(w.Planets))
	for _, p := range w.Planets {
		planets = append(planets, game.Planet{
			ID:       p.ID,
			Name:     p.Name,
			Position: models.Vector3{X: p.X, Y: p.Y, Z: p.Z},
			Radius:   p.Radius,
			Color:    p.Color,
		})
	}
	return func() *game.World {
		return game.NewWorld(params, planets, time.Now().UnixNano())
	}
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MetricsAddress)

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timerManager.Stop()
	s.rpcServer.Stop()
	s.recordService.Flush()
}

// reapIdleRooms 关闭空置房间并落生命周期记录
func (s *GameServer) reapIdleRooms() {
	for _, r := range s.roomManager.ReapIdle(s.cfg.Room.IdleTimeout) {
		logger.Log.Infof("Reaped idle room %s (%s)", r.ID, r.Name)
		s.recordService.RecordRoomClosed(models.RoomRecord{
			RoomID:     r.ID,
			Name:       r.Name,
			PeakPlayer: r.PeakPlayers(),
			CreatedAt:  r.CreatedAt,
			ClosedAt:   time.Now(),
		})
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.leaveRoom(sess)
		s.sessionManager.Remove(sess.GetID())
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch {
	case packet.MsgID == network.MsgTypeHeartbeat:
		sess.Touch()
	case packet.MsgID == network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case packet.MsgID == network.MsgTypeLeaveRoom:
		s.leaveRoom(sess)
	case packet.MsgID >= network.MsgTypeMove && packet.MsgID <= network.MsgTypeSpawnProjectile:
		s.forwardIntent(sess, packet)
	default:
		logger.Log.Warnf("Unknown message type %d from session %s", packet.MsgID, sess.GetID())
	}
}

// handleJoinRoom join-or-create：按名字复用有空位的房间，否则新建。
// 满员竞态下对本会话回 RoomFull，玩家未被创建。
func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	if sess.GetRoom() != "" {
		return
	}

	var req models.JoinRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		logger.Log.Warnf("Session %s sent malformed join request: %v", sess.GetID(), err)
		return
	}
	if req.RoomName == "" {
		req.RoomName = "default"
	}

	r := s.roomManager.JoinOrCreate(req.RoomName, s.broadcaster)
	if _, err := r.Join(sess); err != nil {
		if errors.Is(err, room.ErrRoomFull) {
			data, _ := json.Marshal(map[string]string{"error": "room full"})
			sess.Send(network.MsgTypeRoomFull, data)
			return
		}
		logger.Log.Errorf("Session %s failed to join room %s: %v", sess.GetID(), r.ID, err)
		return
	}

	sess.SetRoom(r.ID)
	logger.Log.Infof("Session %s joined room %s (%s)", sess.GetID(), r.ID, req.RoomName)

	resp, _ := json.Marshal(models.JoinAccepted{RoomID: r.ID, PlayerID: sess.GetID()})
	sess.Send(network.MsgTypeJoinRoom, resp)
}

// leaveRoom 幂等：重复调用或从未加入都是 no-op
func (s *GameServer) leaveRoom(sess *session.Session) {
	roomID := sess.GetRoom()
	if roomID == "" {
		return
	}
	sess.SetRoom("")

	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		return
	}

	joined := time.Now()
	if t := sess.RoomJoinedAt(); !t.IsZero() {
		joined = t
	}
	if fired, present := r.Leave(sess.GetID()); present {
		s.recordService.RecordVisit(models.SessionVisit{
			SessionID:   sess.GetID(),
			RoomID:      roomID,
			JoinedAt:    joined,
			LeftAt:      time.Now(),
			Projectiles: fired,
		})
	}
}

func (s *GameServer) forwardIntent(sess *session.Session, packet *network.Packet) {
	roomID := sess.GetRoom()
	if roomID == "" {
		logger.Log.Warnf("Session %s sent intent %d but is not in a room", sess.GetID(), packet.MsgID)
		return
	}

	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		logger.Log.Errorf("Room %s not found for session %s", roomID, sess.GetID())
		sess.SetRoom("")
		return
	}

	r.Submit(sess.GetID(), packet.MsgID, packet.Data)
}
