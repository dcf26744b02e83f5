package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/wordserver/logger"
	"github.com/wfunc/wordserver/models"
	"github.com/wfunc/wordserver/persistence"
	"github.com/wfunc/wordserver/room"
)

// Server manages the RPC listener.
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

// StatsService exposes read-only queries over net/rpc: cumulative player
// stats and the live room listing.
type StatsService struct {
	db       persistence.Database
	registry *room.Registry
}

func NewStatsService(db persistence.Database, registry *room.Registry) *StatsService {
	return &StatsService{db: db, registry: registry}
}

type GetPlayerStatsArgs struct {
	UserID string
}

type GetPlayerStatsReply struct {
	Stats *models.PlayerStats
}

func (ss *StatsService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	stats, err := ss.db.GetPlayerStats(args.UserID)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []models.RoomSummary
}

func (ss *StatsService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = ss.registry.ActiveRooms()
	return nil
}
