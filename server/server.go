package server

import (
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/wordserver/broadcast"
	"github.com/wfunc/wordserver/config"
	"github.com/wfunc/wordserver/logger"
	"github.com/wfunc/wordserver/monitor"
	"github.com/wfunc/wordserver/network"
	"github.com/wfunc/wordserver/persistence"
	"github.com/wfunc/wordserver/room"
	"github.com/wfunc/wordserver/services"
	"github.com/wfunc/wordserver/session"
	"github.com/wfunc/wordserver/timer"
	"github.com/wfunc/wordserver/words"

	wordserver_rpc "github.com/wfunc/wordserver/rpc"
)

const (
	heartbeatInterval = 30 * time.Second
	idleTimeout       = 2 * time.Minute
)

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	registry       *room.Registry
	sessionManager *session.Manager
	broadcaster    *broadcast.RoomBroadcaster
	gameService    *services.GameService
	monitor        *monitor.Monitor
	scheduler      *timer.Scheduler
	rpcServer      *wordserver_rpc.Server
	metricsAddr    string
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	s := &GameServer{
		addr:           cfg.Server.HTTPAddress,
		registry:       room.NewRegistry(),
		sessionManager: session.NewManager(),
		monitor:        monitor.NewMonitor("wordserver"),
		scheduler:      timer.NewScheduler(),
		metricsAddr:    cfg.Server.MetricsAddress,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.registry, s.sessionManager)
	s.registry.SetBroadcaster(s.broadcaster)

	wordProvider := words.NewProvider(
		cfg.Words.RandomWordAPIURL,
		cfg.Words.DictionaryAPIURL,
		cfg.Words.WordLength,
	)
	s.gameService = services.NewGameService(
		s.registry, wordProvider, db, s.broadcaster, s.monitor,
		cfg.Game.MaxIncorrectGuesses,
	)

	rpcServer, err := wordserver_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(wordserver_rpc.NewStatsService(db, s.registry))

	// Keep the gauges fresh and sweep connections that went silent.
	s.scheduler.Schedule(5*time.Second, 5*time.Second, s.refreshGauges)
	s.scheduler.Schedule(heartbeatInterval, heartbeatInterval, s.sweepIdleSessions)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	if s.metricsAddr != "" {
		s.monitor.StartServer(s.metricsAddr)
	}

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.scheduler.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authentication proper sits in front of this server; the handshake
	// only carries the already-verified identity.
	userID := r.URL.Query().Get("user_id")
	username := r.URL.Query().Get("username")
	if userID == "" || username == "" {
		http.Error(w, "user_id and username are required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn, userID, username)
}

func (s *GameServer) handleConnection(conn *websocket.Conn, userID, username string) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)

	logger.Log.Infof("User connected: %s (%s), session ID: %s", username, userID, sess.GetID())

	defer func() {
		s.handleDisconnect(sess)
		s.sessionManager.Remove(sess.GetID())
		wsConn.Close()
		logger.Log.Infof("User disconnected: %s (%s), session ID: %s", username, userID, sess.GetID())
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
			sess.Touch()
			s.handlePacket(sess, userID, username, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, userID, username string, packet *network.Packet) {
	start := time.Now()
	defer func() {
		s.monitor.ObserveMessageLatency(time.Since(start))
	}()

	switch packet.Event {
	case network.EventRoomCreate:
		s.handleRoomCreate(sess, userID, username, packet)
	case network.EventRoomJoin:
		s.handleRoomJoin(sess, userID, username, packet)
	case network.EventRoomConnect:
		s.handleRoomConnect(sess, userID, username, packet)
	case network.EventRoomLeave:
		s.handleRoomLeave(sess, userID)
	case network.EventGameStart:
		s.handleGameStart(sess, userID)
	case network.EventGameGuess:
		s.handleGameGuess(sess, userID, username, packet)
	case network.EventGameGetState:
		s.handleGameGetState(sess, userID)
	default:
		logger.Log.Infof("Unknown event %q from session %s", packet.Event, sess.GetID())
	}
}

// handleDisconnect clears the connection side of the binding and tells the
// room. The player entry stays: disconnecting is not leaving.
func (s *GameServer) handleDisconnect(sess *session.Session) {
	binding, wasBound := s.sessionManager.Unbind(sess.GetID())
	if !wasBound {
		return
	}

	s.registry.ClearConnection(binding.RoomID, binding.UserID)
	s.broadcastRoster(binding.RoomID, network.EventPlayerDisconnected, binding.Username)
}

func (s *GameServer) refreshGauges() {
	s.monitor.SetOnlinePlayers(s.sessionManager.Count())
	s.monitor.SetActiveRooms(s.registry.Count())
}

func (s *GameServer) sweepIdleSessions() {
	cutoff := time.Now().Add(-idleTimeout)
	for _, sess := range s.sessionManager.IdleSessions(cutoff) {
		logger.Log.Infof("Closing idle session %s", sess.GetID())
		sess.Close()
	}
}
