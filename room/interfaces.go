package room

// Broadcaster defines the interface for delivering events to a room.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, data []byte) error
}
