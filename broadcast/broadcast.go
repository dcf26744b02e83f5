// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/wordserver/room"
	"github.com/wfunc/wordserver/session"
)

// Broadcaster is the fan-out primitive: deliver an event to every live
// connection in a room, or to one user's connections.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, data []byte) error
	BroadcastToRoomExcept(roomID, exceptUserID, event string, data []byte) error
	SendToUser(userID, event string, data []byte) error
}

// RoomBroadcaster resolves a room's roster to live sessions and writes to
// each. A failed write skips that connection; the reader side notices the
// dead socket and handles the disconnect.
type RoomBroadcaster struct {
	registry       *room.Registry
	sessionManager *session.Manager
}

func NewRoomBroadcaster(registry *room.Registry, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		registry:       registry,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID, event string, data []byte) error {
	connectionIDs := b.registry.ConnectionIDs(roomID)
	if connectionIDs == nil {
		return room.ErrRoomNotFound
	}

	for _, connID := range connectionIDs {
		sess, exists := b.sessionManager.Get(connID)
		if !exists {
			continue
		}
		if err := sess.Send(event, data); err != nil {
			continue
		}
	}

	return nil
}

// BroadcastToRoomExcept delivers to every live connection in the room
// except those bound to exceptUserID. Used when one recipient gets a
// differently shaped view of the same event.
func (b *RoomBroadcaster) BroadcastToRoomExcept(roomID, exceptUserID, event string, data []byte) error {
	connectionIDs := b.registry.ConnectionIDs(roomID)
	if connectionIDs == nil {
		return room.ErrRoomNotFound
	}

	for _, connID := range connectionIDs {
		sess, exists := b.sessionManager.Get(connID)
		if !exists {
			continue
		}
		if sess.Binding().UserID == exceptUserID {
			continue
		}
		if err := sess.Send(event, data); err != nil {
			continue
		}
	}

	return nil
}

func (b *RoomBroadcaster) SendToUser(userID, event string, data []byte) error {
	for _, sess := range b.sessionManager.GetByUserID(userID) {
		if err := sess.Send(event, data); err != nil {
			continue
		}
	}
	return nil
}
