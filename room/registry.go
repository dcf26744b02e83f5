// room/registry.go
package room

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/wfunc/wordserver/logger"
	"github.com/wfunc/wordserver/models"
	"github.com/wfunc/wordserver/network"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrAlreadyInRoom   = errors.New("already in a room, leave current room first")
	ErrInvalidCapacity = errors.New("max players must be between 2 and 10")
)

// Registry is the single source of truth for who is playing where. It owns
// the room table and the user -> room reverse index; nothing outside this
// package mutates a room's roster.
type Registry struct {
	rooms       map[string]*Room
	userRooms   map[string]string
	broadcaster Broadcaster
	mutex       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		userRooms: make(map[string]string),
	}
}

// SetBroadcaster wires the fan-out primitive. Done once at startup; the
// broadcaster itself is built on top of this registry.
func (reg *Registry) SetBroadcaster(b Broadcaster) {
	reg.broadcaster = b
}

// CreateRoom creates a room with the host as its only player. A user can
// occupy at most one room globally.
func (reg *Registry) CreateRoom(roomID, hostID, hostUsername string, maxPlayers int) (*Room, error) {
	if maxPlayers < 2 || maxPlayers > 10 {
		return nil, ErrInvalidCapacity
	}

	reg.mutex.Lock()
	defer reg.mutex.Unlock()

	if _, inRoom := reg.userRooms[hostID]; inRoom {
		return nil, ErrAlreadyInRoom
	}

	room := newRoom(roomID, hostID, hostUsername, maxPlayers)
	reg.rooms[roomID] = room
	reg.userRooms[hostID] = roomID

	logger.Log.Infof("Room %s created by %s", roomID, hostUsername)
	return room, nil
}

// AddPlayer appends a player to the roster and broadcasts the updated
// roster. A duplicate join by the same user is a logged no-op.
func (reg *Registry) AddPlayer(roomID, userID, username string) error {
	reg.mutex.Lock()
	room, exists := reg.rooms[roomID]
	if !exists {
		reg.mutex.Unlock()
		return ErrRoomNotFound
	}
	if existing, inRoom := reg.userRooms[userID]; inRoom && existing != roomID {
		reg.mutex.Unlock()
		return ErrAlreadyInRoom
	}

	room.mutex.Lock()
	if len(room.Players) >= room.MaxPlayers {
		room.mutex.Unlock()
		reg.mutex.Unlock()
		return ErrRoomFull
	}

	for _, p := range room.Players {
		if p.ID == userID {
			room.mutex.Unlock()
			reg.mutex.Unlock()
			logger.Log.Warnf("Player %s attempted duplicate join to room %s", username, roomID)
			return nil
		}
	}

	room.Players = append(room.Players, &Player{ID: userID, Username: username})
	reg.userRooms[userID] = roomID
	players := room.playerInfos()
	room.mutex.Unlock()
	reg.mutex.Unlock()

	reg.broadcastRoster(roomID, network.EventPlayerJoined, username, players)
	return nil
}

// RemovePlayer drops a player from the roster. The last player's departure
// destroys the room synchronously; a departing host hands the role to the
// first remaining player in join order.
func (reg *Registry) RemovePlayer(roomID, userID string) {
	reg.mutex.Lock()
	room, exists := reg.rooms[roomID]
	if !exists {
		reg.mutex.Unlock()
		return
	}

	room.mutex.Lock()
	index := -1
	for i, p := range room.Players {
		if p.ID == userID {
			index = i
			break
		}
	}
	if index == -1 {
		room.mutex.Unlock()
		reg.mutex.Unlock()
		return
	}

	removed := room.Players[index]
	room.Players = append(room.Players[:index], room.Players[index+1:]...)
	delete(reg.userRooms, userID)

	if len(room.Players) == 0 {
		delete(reg.rooms, roomID)
		room.mutex.Unlock()
		reg.mutex.Unlock()
		logger.Log.Infof("Room %s destroyed (no players)", roomID)
		return
	}

	var newHost string
	if removed.IsHost {
		room.Players[0].IsHost = true
		room.HostID = room.Players[0].ID
		newHost = room.Players[0].Username
	}
	players := room.playerInfos()
	room.mutex.Unlock()
	reg.mutex.Unlock()

	if newHost != "" {
		payload, _ := json.Marshal(struct {
			NewHost string `json:"newHost"`
		}{NewHost: newHost})
		reg.broadcast(roomID, network.EventHostTransferred, payload)
	}

	reg.broadcastRoster(roomID, network.EventPlayerLeft, removed.Username, players)
}

func (reg *Registry) IsUserInRoom(userID string) bool {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	_, inRoom := reg.userRooms[userID]
	return inRoom
}

// UserRoom returns the room id the user currently occupies, if any.
func (reg *Registry) UserRoom(userID string) (string, bool) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	roomID, inRoom := reg.userRooms[userID]
	return roomID, inRoom
}

func (reg *Registry) GetRoom(roomID string) (*Room, bool) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	room, exists := reg.rooms[roomID]
	return room, exists
}

// RoomPlayers returns the roster projection, empty when the room is gone.
func (reg *Registry) RoomPlayers(roomID string) []PlayerInfo {
	room, exists := reg.GetRoom(roomID)
	if !exists {
		return []PlayerInfo{}
	}
	return room.GetPlayers()
}

// LinkConnection records a live connection on the player entry. The
// session side of the binding is kept by session.Manager; both sides move
// together.
func (reg *Registry) LinkConnection(roomID, userID, connectionID string) {
	room, exists := reg.GetRoom(roomID)
	if !exists {
		return
	}

	room.mutex.Lock()
	defer room.mutex.Unlock()
	for _, p := range room.Players {
		if p.ID == userID {
			p.ConnectionID = connectionID
			return
		}
	}
}

// ClearConnection marks the player as not live-connected. The player stays
// in the room; disconnection is not leaving.
func (reg *Registry) ClearConnection(roomID, userID string) {
	room, exists := reg.GetRoom(roomID)
	if !exists {
		return
	}

	room.mutex.Lock()
	defer room.mutex.Unlock()
	for _, p := range room.Players {
		if p.ID == userID {
			p.ConnectionID = ""
			return
		}
	}
}

// ConnectionIDs lists the live connection ids of a room, for fan-out.
func (reg *Registry) ConnectionIDs(roomID string) []string {
	room, exists := reg.GetRoom(roomID)
	if !exists {
		return nil
	}

	room.mutex.RLock()
	defer room.mutex.RUnlock()
	ids := make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		if p.ConnectionID != "" {
			ids = append(ids, p.ConnectionID)
		}
	}
	return ids
}

// ActiveRooms returns a summary of every live room.
func (reg *Registry) ActiveRooms() []models.RoomSummary {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()

	summaries := make([]models.RoomSummary, 0, len(reg.rooms))
	for roomID, room := range reg.rooms {
		room.mutex.RLock()
		summaries = append(summaries, models.RoomSummary{
			RoomID:      roomID,
			PlayerCount: len(room.Players),
			Host:        room.usernameOf(room.HostID),
		})
		room.mutex.RUnlock()
	}
	return summaries
}

// Count returns the number of active rooms. Feeds the rooms gauge.
func (reg *Registry) Count() int {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	return len(reg.rooms)
}

func (reg *Registry) broadcastRoster(roomID, event, username string, players []PlayerInfo) {
	payload, _ := json.Marshal(struct {
		Username string       `json:"username"`
		Players  []PlayerInfo `json:"players"`
	}{Username: username, Players: players})
	reg.broadcast(roomID, event, payload)
}

func (reg *Registry) broadcast(roomID, event string, data []byte) {
	if reg.broadcaster == nil {
		return
	}
	if err := reg.broadcaster.BroadcastToRoom(roomID, event, data); err != nil {
		logger.Log.Errorf("Broadcast to room %s failed: %v", roomID, err)
	}
}
