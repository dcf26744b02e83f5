package network

// Client -> server events.
const (
	EventRoomCreate   = "room:create"
	EventRoomJoin     = "room:join"
	EventRoomConnect  = "room:connect"
	EventRoomLeave    = "room:leave"
	EventGameStart    = "game:start"
	EventGameGuess    = "game:guess"
	EventGameGetState = "game:get-state"
)

// Server -> client events.
const (
	EventRoomCreated        = "room:created"
	EventRoomJoined         = "room:joined"
	EventPlayerJoined       = "player:joined"
	EventPlayerLeft         = "player:left"
	EventPlayerConnected    = "player:connected"
	EventPlayerDisconnected = "player:disconnected"
	EventHostTransferred    = "host:transferred"
	EventGameStarted        = "game:started"
	EventGameGuessResult    = "game:guess-result"
	EventGameEnded          = "game:ended"
	EventGameState          = "game:state"
	EventError              = "error"
)
