// server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/wfunc/wordserver/logger"
	"github.com/wfunc/wordserver/network"
	"github.com/wfunc/wordserver/room"
	"github.com/wfunc/wordserver/session"
)

type createRoomRequest struct {
	MaxPlayers int `json:"maxPlayers"`
}

type roomIDRequest struct {
	RoomID string `json:"roomId"`
}

type guessRequest struct {
	Letter string `json:"letter"`
}

func (s *GameServer) handleRoomCreate(sess *session.Session, userID, username string, packet *network.Packet) {
	var req createRoomRequest
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(sess, "invalid payload")
			return
		}
	}
	if req.MaxPlayers == 0 {
		req.MaxPlayers = 6
	}

	roomID := newRoomID()
	r, err := s.registry.CreateRoom(roomID, userID, username, req.MaxPlayers)
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}

	s.sendJSON(sess, network.EventRoomCreated, struct {
		RoomID     string            `json:"roomId"`
		Host       string            `json:"host"`
		MaxPlayers int               `json:"maxPlayers"`
		Players    []room.PlayerInfo `json:"players"`
	}{
		RoomID:     roomID,
		Host:       username,
		MaxPlayers: r.MaxPlayers,
		Players:    r.GetPlayers(),
	})
}

func (s *GameServer) handleRoomJoin(sess *session.Session, userID, username string, packet *network.Packet) {
	var req roomIDRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.RoomID == "" {
		s.sendError(sess, "invalid payload")
		return
	}

	if err := s.registry.AddPlayer(req.RoomID, userID, username); err != nil {
		s.sendError(sess, err.Error())
		return
	}

	logger.Log.Infof("%s joined room %s", username, req.RoomID)

	s.sendJSON(sess, network.EventRoomJoined, struct {
		RoomID  string            `json:"roomId"`
		Players []room.PlayerInfo `json:"players"`
	}{
		RoomID:  req.RoomID,
		Players: s.registry.RoomPlayers(req.RoomID),
	})
}

func (s *GameServer) handleRoomConnect(sess *session.Session, userID, username string, packet *network.Packet) {
	var req roomIDRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.RoomID == "" {
		s.sendError(sess, "invalid payload")
		return
	}

	userRoom, inRoom := s.registry.UserRoom(userID)
	if !inRoom || userRoom != req.RoomID {
		s.sendError(sess, "You are not in this room")
		return
	}

	s.sessionManager.Bind(sess.GetID(), userID, username, req.RoomID)
	s.registry.LinkConnection(req.RoomID, userID, sess.GetID())

	logger.Log.Infof("Session %s (%s) connected to room %s", sess.GetID(), username, req.RoomID)

	s.broadcastRoster(req.RoomID, network.EventPlayerConnected, username)
}

func (s *GameServer) handleRoomLeave(sess *session.Session, userID string) {
	roomID, inRoom := s.registry.UserRoom(userID)
	if !inRoom {
		return
	}

	s.sessionManager.Unbind(sess.GetID())
	s.registry.RemovePlayer(roomID, userID)
}

func (s *GameServer) handleGameStart(sess *session.Session, userID string) {
	roomID, inRoom := s.registry.UserRoom(userID)
	if !inRoom {
		s.sendError(sess, "You are not in a room")
		return
	}

	if err := s.gameService.StartGame(context.Background(), roomID, userID); err != nil {
		logger.Log.Errorf("Game start error in room %s: %v", roomID, err)
		s.sendError(sess, err.Error())
	}
}

func (s *GameServer) handleGameGuess(sess *session.Session, userID, username string, packet *network.Packet) {
	var req guessRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "invalid payload")
		return
	}

	roomID, inRoom := s.registry.UserRoom(userID)
	if !inRoom {
		s.sendError(sess, "You are not in a room")
		return
	}

	if err := s.gameService.MakeGuess(roomID, userID, username, req.Letter); err != nil {
		s.sendError(sess, err.Error())
	}
}

func (s *GameServer) handleGameGetState(sess *session.Session, userID string) {
	roomID, inRoom := s.registry.UserRoom(userID)
	if !inRoom {
		s.sendError(sess, "You are not in a room")
		return
	}

	projection, err := s.gameService.GetState(roomID, userID)
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}

	s.sendJSON(sess, network.EventGameState, projection)
}

func (s *GameServer) broadcastRoster(roomID, event, username string) {
	payload, _ := json.Marshal(struct {
		Username string            `json:"username"`
		Players  []room.PlayerInfo `json:"players"`
	}{
		Username: username,
		Players:  s.registry.RoomPlayers(roomID),
	})
	s.broadcaster.BroadcastToRoom(roomID, event, payload)
}

func (s *GameServer) sendJSON(sess *session.Session, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Failed to marshal %s payload: %v", event, err)
		return
	}
	sess.Send(event, data)
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	data, _ := json.Marshal(struct {
		Message string `json:"message"`
	}{Message: message})
	sess.Send(network.EventError, data)
}

// newRoomID makes a short join code, the first uuid group uppercased.
func newRoomID() string {
	return strings.ToUpper(strings.Split(uuid.New().String(), "-")[0])
}
