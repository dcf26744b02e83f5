package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type packet struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// send formats and sends an event to the WebSocket server.
func send(c *websocket.Conn, event string, payload interface{}) error {
	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = encoded
	}

	encoded, err := json.Marshal(packet{Event: event, Data: data})
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, encoded)
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	userID := flag.String("user", "", "user id")
	username := flag.String("name", "", "username")
	roomID := flag.String("room", "", "room to join (empty creates one)")
	flag.Parse()

	if *userID == "" || *username == "" {
		log.Fatal("-user and -name are required")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{
		Scheme:   "ws",
		Host:     *addr,
		Path:     "/ws",
		RawQuery: url.Values{"user_id": {*userID}, "username": {*username}}.Encode(),
	}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			var p packet
			if err := json.Unmarshal(message, &p); err != nil {
				log.Printf("Received invalid packet: %s", message)
				continue
			}
			log.Printf("<- RECV (%s): %s", p.Event, string(p.Data))

			// Bind the connection to the room as soon as we are in one.
			if p.Event == "room:created" || p.Event == "room:joined" {
				var resp struct {
					RoomID string `json:"roomId"`
				}
				if err := json.Unmarshal(p.Data, &resp); err == nil {
					send(c, "room:connect", map[string]string{"roomId": resp.RoomID})
				}
			}
		}
	}()

	if *roomID == "" {
		log.Println("Sending room:create...")
		if err := send(c, "room:create", nil); err != nil {
			log.Println("Write error:", err)
			return
		}
	} else {
		log.Printf("Sending room:join for %s...", *roomID)
		if err := send(c, "room:join", map[string]string{"roomId": *roomID}); err != nil {
			log.Println("Write error:", err)
			return
		}
	}

	log.Println("Commands: 'start', 'state', 'leave', or a single letter to guess.")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			text = strings.TrimSpace(text)

			switch {
			case text == "":
			case text == "start":
				send(c, "game:start", nil)
			case text == "state":
				send(c, "game:get-state", nil)
			case text == "leave":
				send(c, "room:leave", nil)
			case len(text) == 1:
				send(c, "game:guess", map[string]string{"letter": text})
			default:
				log.Printf("Unknown command %q", text)
			}
		}
	}
}
