package rpc

import (
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/planetserver/logger"
	"github.com/wfunc/planetserver/room"
	"github.com/wfunc/planetserver/services"
)

// Server manages the RPC listener for the admin endpoint.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes room and player introspection over net/rpc.
type AdminService struct {
	roomManager   *room.Manager
	recordService *services.RecordService
}

// NewAdminService creates a new AdminService.
func NewAdminService(rm *room.Manager, rs *services.RecordService) *AdminService {
	return &AdminService{roomManager: rm, recordService: rs}
}

type RoomInfo struct {
	ID        string
	Name      string
	Players   int
	Max       int
	CreatedAt time.Time
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []RoomInfo
}

// ListRooms returns every active room with its occupancy.
func (a *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	for _, r := range a.roomManager.Rooms() {
		reply.Rooms = append(reply.Rooms, RoomInfo{
			ID:        r.ID,
			Name:      r.Name,
			Players:   r.SessionCount(),
			Max:       r.MaxPlayers,
			CreatedAt: r.CreatedAt,
		})
	}
	return nil
}

type GetPlayerStatsArgs struct {
	SessionID string
}

type GetPlayerStatsReply struct {
	Stats map[string]interface{}
}

// GetPlayerStats returns aggregated visit statistics for a session.
func (a *AdminService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	stats, err := a.recordService.GetPlayerStats(args.SessionID)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}
