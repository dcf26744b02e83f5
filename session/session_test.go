package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/wordserver/network"
)

// MockConnection records sent packets for assertions.
type MockConnection struct {
	sent   []sentPacket
	closed bool
}

type sentPacket struct {
	event string
	data  []byte
}

func (m *MockConnection) Send(event string, data []byte) error {
	m.sent = append(m.sent, sentPacket{event: event, data: data})
	return nil
}

func (m *MockConnection) Close() error {
	m.closed = true
	return nil
}

func (m *MockConnection) RemoteAddr() net.Addr                 { return nil }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestManager_AddGetRemove(t *testing.T) {
	manager := NewManager()
	sess := NewSession("s1", &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", manager.Count())
	}

	got, exists := manager.Get("s1")
	if !exists || got != sess {
		t.Error("Get should return the added session")
	}

	manager.Remove("s1")
	if _, exists := manager.Get("s1"); exists {
		t.Error("Get should miss after Remove")
	}
	if manager.Count() != 0 {
		t.Errorf("Expected 0 sessions, got %d", manager.Count())
	}
}

func TestManager_BindOverwritesPriorBinding(t *testing.T) {
	manager := NewManager()
	manager.Add(NewSession("s1", &MockConnection{}))

	if _, ok := manager.Bind("s1", "u1", "alice", "ROOM1"); !ok {
		t.Fatal("Bind should succeed for a known session")
	}
	if _, ok := manager.Bind("s1", "u1", "alice", "ROOM2"); !ok {
		t.Fatal("Rebind should succeed")
	}

	sess, _ := manager.Get("s1")
	binding := sess.Binding()
	if binding.RoomID != "ROOM2" {
		t.Errorf("Expected binding overwritten to ROOM2, got %q", binding.RoomID)
	}

	if _, ok := manager.Bind("missing", "u1", "alice", "ROOM1"); ok {
		t.Error("Bind should fail for an unknown session")
	}
}

func TestManager_UnbindReturnsPriorBinding(t *testing.T) {
	manager := NewManager()
	manager.Add(NewSession("s1", &MockConnection{}))
	manager.Bind("s1", "u1", "alice", "ROOM1")

	prior, ok := manager.Unbind("s1")
	if !ok {
		t.Fatal("Unbind of a bound session should report the prior binding")
	}
	if prior.UserID != "u1" || prior.Username != "alice" || prior.RoomID != "ROOM1" {
		t.Errorf("Unexpected prior binding: %+v", prior)
	}

	sess, _ := manager.Get("s1")
	if binding := sess.Binding(); binding.RoomID != "" || binding.UserID != "" {
		t.Errorf("Expected binding cleared, got %+v", binding)
	}

	if _, ok := manager.Unbind("s1"); ok {
		t.Error("Second Unbind should report no prior binding")
	}
	if _, ok := manager.Unbind("missing"); ok {
		t.Error("Unbind of an unknown session should report false")
	}
}

func TestManager_GetByUserID(t *testing.T) {
	manager := NewManager()
	manager.Add(NewSession("s1", &MockConnection{}))
	manager.Add(NewSession("s2", &MockConnection{}))
	manager.Add(NewSession("s3", &MockConnection{}))
	manager.Bind("s1", "u1", "alice", "ROOM1")
	manager.Bind("s2", "u2", "bob", "ROOM1")

	sessions := manager.GetByUserID("u1")
	if len(sessions) != 1 || sessions[0].ID != "s1" {
		t.Errorf("Expected only s1 for u1, got %d sessions", len(sessions))
	}
	if got := manager.GetByUserID("unknown"); len(got) != 0 {
		t.Errorf("Expected no sessions for an unknown user, got %d", len(got))
	}
}

func TestManager_IdleSessions(t *testing.T) {
	manager := NewManager()
	stale := NewSession("stale", &MockConnection{})
	stale.LastActive = time.Now().Add(-5 * time.Minute)
	fresh := NewSession("fresh", &MockConnection{})
	manager.Add(stale)
	manager.Add(fresh)

	idle := manager.IdleSessions(time.Now().Add(-2 * time.Minute))
	if len(idle) != 1 || idle[0].ID != "stale" {
		t.Fatalf("Expected only the stale session, got %d", len(idle))
	}

	// Activity moves the idle horizon forward.
	stale.Touch()
	if got := manager.IdleSessions(time.Now().Add(-2 * time.Minute)); len(got) != 0 {
		t.Errorf("Expected no idle sessions after Touch, got %d", len(got))
	}
}

func TestSession_SendTouchesActivity(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("s1", conn)
	sess.LastActive = time.Now().Add(-time.Minute)
	before := sess.IdleSince()

	if err := sess.Send("room:created", []byte(`{}`)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0].event != "room:created" {
		t.Errorf("Expected one room:created packet, got %+v", conn.sent)
	}
	if !sess.IdleSince().After(before) {
		t.Error("Send should refresh LastActive")
	}
}
