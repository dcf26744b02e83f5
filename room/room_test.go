package room

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/wfunc/wordserver/game"
	"github.com/wfunc/wordserver/logger"
	"github.com/wfunc/wordserver/network"
)

func TestMain(m *testing.M) {
	logger.InitDevelopment()
	os.Exit(m.Run())
}

// MockBroadcaster records every broadcast so tests can assert on them.
type MockBroadcaster struct {
	events []broadcastCall
}

type broadcastCall struct {
	roomID string
	event  string
	data   []byte
}

func (m *MockBroadcaster) BroadcastToRoom(roomID, event string, data []byte) error {
	m.events = append(m.events, broadcastCall{roomID: roomID, event: event, data: data})
	return nil
}

func (m *MockBroadcaster) lastEvent() string {
	if len(m.events) == 0 {
		return ""
	}
	return m.events[len(m.events)-1].event
}

func newTestRegistry() (*Registry, *MockBroadcaster) {
	registry := NewRegistry()
	mock := &MockBroadcaster{}
	registry.SetBroadcaster(mock)
	return registry, mock
}

func TestRegistry_CreateAndGetRoom(t *testing.T) {
	registry, _ := newTestRegistry()

	room, err := registry.CreateRoom("ROOM1", "host1", "alice", 4)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.ID != "ROOM1" {
		t.Errorf("Expected room ID ROOM1, got %s", room.ID)
	}

	retrieved, exists := registry.GetRoom("ROOM1")
	if !exists {
		t.Fatal("GetRoom should find the created room")
	}
	if retrieved != room {
		t.Error("GetRoom should return the same room instance")
	}

	players := room.GetPlayers()
	if len(players) != 1 || !players[0].IsHost || players[0].Username != "alice" {
		t.Errorf("Expected the host as sole player, got %+v", players)
	}
}

func TestRegistry_CreateRoom_InvalidCapacity(t *testing.T) {
	registry, _ := newTestRegistry()

	if _, err := registry.CreateRoom("ROOM1", "host1", "alice", 1); err != ErrInvalidCapacity {
		t.Errorf("Expected ErrInvalidCapacity for capacity 1, got %v", err)
	}
	if _, err := registry.CreateRoom("ROOM1", "host1", "alice", 11); err != ErrInvalidCapacity {
		t.Errorf("Expected ErrInvalidCapacity for capacity 11, got %v", err)
	}
}

func TestRegistry_UserInAtMostOneRoom(t *testing.T) {
	registry, _ := newTestRegistry()

	if _, err := registry.CreateRoom("ROOM1", "u1", "alice", 4); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if _, err := registry.CreateRoom("ROOM2", "u1", "alice", 4); err != ErrAlreadyInRoom {
		t.Errorf("Expected ErrAlreadyInRoom creating a second room, got %v", err)
	}

	if _, err := registry.CreateRoom("ROOM2", "u2", "bob", 4); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if err := registry.AddPlayer("ROOM2", "u1", "alice"); err != ErrAlreadyInRoom {
		t.Errorf("Expected ErrAlreadyInRoom joining while in another room, got %v", err)
	}

	roomID, inRoom := registry.UserRoom("u1")
	if !inRoom || roomID != "ROOM1" {
		t.Errorf("Expected u1 to remain in ROOM1, got %q (in room: %v)", roomID, inRoom)
	}
}

func TestRegistry_AddPlayer(t *testing.T) {
	registry, mock := newTestRegistry()
	registry.CreateRoom("ROOM1", "u1", "alice", 4)

	if err := registry.AddPlayer("ROOM1", "u2", "bob"); err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}

	players := registry.RoomPlayers("ROOM1")
	if len(players) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(players))
	}
	if players[1].Username != "bob" || players[1].IsHost {
		t.Errorf("Expected bob appended as non-host, got %+v", players[1])
	}
	if mock.lastEvent() != network.EventPlayerJoined {
		t.Errorf("Expected player:joined broadcast, got %q", mock.lastEvent())
	}
}

func TestRegistry_AddPlayer_RoomNotFound(t *testing.T) {
	registry, _ := newTestRegistry()

	if err := registry.AddPlayer("MISSING", "u1", "alice"); err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestRegistry_AddPlayer_Full(t *testing.T) {
	registry, _ := newTestRegistry()
	registry.CreateRoom("ROOM1", "u1", "alice", 2)
	registry.AddPlayer("ROOM1", "u2", "bob")

	if err := registry.AddPlayer("ROOM1", "u3", "carol"); err != ErrRoomFull {
		t.Errorf("Expected ErrRoomFull, got %v", err)
	}
	if len(registry.RoomPlayers("ROOM1")) != 2 {
		t.Error("Full room should not have grown")
	}
}

func TestRegistry_AddPlayer_DuplicateJoinIsNoOp(t *testing.T) {
	registry, mock := newTestRegistry()
	registry.CreateRoom("ROOM1", "u1", "alice", 4)
	registry.AddPlayer("ROOM1", "u2", "bob")

	broadcastsBefore := len(mock.events)
	if err := registry.AddPlayer("ROOM1", "u2", "bob"); err != nil {
		t.Fatalf("Duplicate join should not error, got %v", err)
	}
	if len(registry.RoomPlayers("ROOM1")) != 2 {
		t.Error("Duplicate join should not duplicate the roster entry")
	}
	if len(mock.events) != broadcastsBefore {
		t.Error("Duplicate join should not broadcast")
	}
}

func TestRegistry_RemovePlayer_HostPromotion(t *testing.T) {
	registry, mock := newTestRegistry()
	registry.CreateRoom("ROOM1", "u1", "alice", 4)
	registry.AddPlayer("ROOM1", "u2", "bob")
	registry.AddPlayer("ROOM1", "u3", "carol")

	registry.RemovePlayer("ROOM1", "u1")

	players := registry.RoomPlayers("ROOM1")
	if len(players) != 2 {
		t.Fatalf("Expected 2 players after host left, got %d", len(players))
	}
	// Promotion follows original join order, not an arbitrary pick.
	if players[0].ID != "u2" || !players[0].IsHost {
		t.Errorf("Expected u2 promoted to host, got %+v", players[0])
	}
	if players[1].IsHost {
		t.Error("Exactly one player may be host")
	}

	room, _ := registry.GetRoom("ROOM1")
	if room.GetHostID() != "u2" {
		t.Errorf("Expected room host u2, got %s", room.GetHostID())
	}

	var sawTransfer, sawLeft bool
	for _, call := range mock.events {
		switch call.event {
		case network.EventHostTransferred:
			sawTransfer = true
			var payload struct {
				NewHost string `json:"newHost"`
			}
			json.Unmarshal(call.data, &payload)
			if payload.NewHost != "bob" {
				t.Errorf("Expected host transferred to bob, got %q", payload.NewHost)
			}
		case network.EventPlayerLeft:
			sawLeft = true
		}
	}
	if !sawTransfer || !sawLeft {
		t.Errorf("Expected host:transferred and player:left broadcasts, got transfer=%v left=%v", sawTransfer, sawLeft)
	}
}

func TestRegistry_RemovePlayer_LastPlayerDestroysRoom(t *testing.T) {
	registry, _ := newTestRegistry()
	registry.CreateRoom("ROOM1", "u1", "alice", 4)

	registry.RemovePlayer("ROOM1", "u1")

	if _, exists := registry.GetRoom("ROOM1"); exists {
		t.Error("Expected room to be destroyed when the last player leaves")
	}
	if len(registry.RoomPlayers("ROOM1")) != 0 {
		t.Error("Expected empty roster for a destroyed room")
	}
	if registry.IsUserInRoom("u1") {
		t.Error("Expected the reverse index entry to be cleared")
	}
	if registry.Count() != 0 {
		t.Errorf("Expected zero active rooms, got %d", registry.Count())
	}
}

func TestRegistry_RemovePlayer_AbsentUserIsNoOp(t *testing.T) {
	registry, mock := newTestRegistry()
	registry.CreateRoom("ROOM1", "u1", "alice", 4)

	broadcastsBefore := len(mock.events)
	registry.RemovePlayer("ROOM1", "ghost")

	if len(registry.RoomPlayers("ROOM1")) != 1 {
		t.Error("Removing an absent user must not change the roster")
	}
	if len(mock.events) != broadcastsBefore {
		t.Error("Removing an absent user must not broadcast")
	}
}

func TestRegistry_LinkAndClearConnection(t *testing.T) {
	registry, _ := newTestRegistry()
	registry.CreateRoom("ROOM1", "u1", "alice", 4)

	players := registry.RoomPlayers("ROOM1")
	if players[0].Connected {
		t.Error("New roster entry should not be marked connected")
	}

	registry.LinkConnection("ROOM1", "u1", "conn1")
	if !registry.RoomPlayers("ROOM1")[0].Connected {
		t.Error("Expected player to be marked connected after linking")
	}
	ids := registry.ConnectionIDs("ROOM1")
	if len(ids) != 1 || ids[0] != "conn1" {
		t.Errorf("Expected connection ids [conn1], got %v", ids)
	}

	registry.ClearConnection("ROOM1", "u1")
	if registry.RoomPlayers("ROOM1")[0].Connected {
		t.Error("Expected player to be marked disconnected after clearing")
	}
	if registry.IsUserInRoom("u1") != true {
		t.Error("Clearing a connection must not remove the player from the room")
	}
}

func TestRoom_StartGame_RevalidatesAfterSuspension(t *testing.T) {
	registry, _ := newTestRegistry()
	room, _ := registry.CreateRoom("ROOM1", "u1", "alice", 4)
	registry.AddPlayer("ROOM1", "u2", "bob")

	if err := room.CanStart(); err != nil {
		t.Fatalf("CanStart should pass with two players: %v", err)
	}

	// The roster can shrink between the pre-check and the word arriving.
	registry.RemovePlayer("ROOM1", "u2")
	if _, err := room.StartGame("LETTER", 6); err != game.ErrInsufficientPlayers {
		t.Errorf("Expected ErrInsufficientPlayers after roster shrank, got %v", err)
	}
}

func TestRoom_StartGame_RejectsConcurrentRound(t *testing.T) {
	registry, _ := newTestRegistry()
	room, _ := registry.CreateRoom("ROOM1", "u1", "alice", 4)
	registry.AddPlayer("ROOM1", "u2", "bob")

	result, err := room.StartGame("LETTER", 6)
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	if result.WordMasterID != "u1" {
		t.Errorf("Expected first word master u1, got %s", result.WordMasterID)
	}
	if result.Masked.HiddenWord != "_ _ _ _ _ _" {
		t.Errorf("Expected fully masked word, got %q", result.Masked.HiddenWord)
	}
	if result.Revealed.HiddenWord != "LETTER" {
		t.Errorf("Expected revealed word for the master, got %q", result.Revealed.HiddenWord)
	}

	if _, err := room.StartGame("OTHER", 6); err != game.ErrGameInProgress {
		t.Errorf("Expected ErrGameInProgress, got %v", err)
	}
}

func TestRoom_Guess_NoActiveGame(t *testing.T) {
	registry, _ := newTestRegistry()
	room, _ := registry.CreateRoom("ROOM1", "u1", "alice", 4)
	registry.AddPlayer("ROOM1", "u2", "bob")

	if _, err := room.Guess("u2", "E"); err != game.ErrNoActiveGame {
		t.Errorf("Expected ErrNoActiveGame, got %v", err)
	}
}

func TestRoom_Guess_EndSettlesRecord(t *testing.T) {
	registry, _ := newTestRegistry()
	room, _ := registry.CreateRoom("ROOM1", "u1", "alice", 4)
	registry.AddPlayer("ROOM1", "u2", "bob")

	if _, err := room.StartGame("GO", 6); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	if _, err := room.Guess("u2", "G"); err != nil {
		t.Fatalf("Guess failed: %v", err)
	}
	outcome, err := room.Guess("u2", "O")
	if err != nil {
		t.Fatalf("Guess failed: %v", err)
	}
	if !outcome.Ended || outcome.Reason != game.ReasonGuessed {
		t.Fatalf("Expected a guessed win, got ended=%v reason=%q", outcome.Ended, outcome.Reason)
	}
	if outcome.WinnerID != "u2" || outcome.WinnerName != "bob" {
		t.Errorf("Expected winner bob (u2), got %s (%s)", outcome.WinnerName, outcome.WinnerID)
	}
	if outcome.Word != "GO" {
		t.Errorf("Expected the word revealed at game end, got %q", outcome.Word)
	}
	if outcome.Record == nil {
		t.Fatal("Expected a settled game record on the winning guess")
	}
	if outcome.Record.RoomID != "ROOM1" || outcome.Record.Winner != "u2" || outcome.Record.TotalGuesses != 2 {
		t.Errorf("Unexpected record: %+v", outcome.Record)
	}
	if outcome.Record.Scores["u2"] != 22 {
		t.Errorf("Expected winner score 22 with no misses, got %d", outcome.Record.Scores["u2"])
	}
}

func TestRoom_GameState_RevealDependsOnRole(t *testing.T) {
	registry, _ := newTestRegistry()
	room, _ := registry.CreateRoom("ROOM1", "u1", "alice", 4)
	registry.AddPlayer("ROOM1", "u2", "bob")
	room.StartGame("GO", 6)

	masterView, err := room.GameState("u1")
	if err != nil {
		t.Fatalf("GameState failed: %v", err)
	}
	if masterView.HiddenWord != "GO" {
		t.Errorf("Word master should see the word, got %q", masterView.HiddenWord)
	}

	guesserView, _ := room.GameState("u2")
	if guesserView.HiddenWord != "_ _" {
		t.Errorf("Guesser should see the mask, got %q", guesserView.HiddenWord)
	}
}

func TestRegistry_ActiveRooms(t *testing.T) {
	registry, _ := newTestRegistry()
	registry.CreateRoom("ROOM1", "u1", "alice", 4)
	registry.CreateRoom("ROOM2", "u2", "bob", 4)
	registry.AddPlayer("ROOM2", "u3", "carol")

	summaries := registry.ActiveRooms()
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 room summaries, got %d", len(summaries))
	}

	byID := make(map[string]int)
	for _, summary := range summaries {
		byID[summary.RoomID] = summary.PlayerCount
	}
	if byID["ROOM1"] != 1 || byID["ROOM2"] != 2 {
		t.Errorf("Unexpected player counts: %v", byID)
	}
}
