// Demo bot: joins a room, flies around, lands on Earth, walks the
// equator, jumps and fires a projectile, printing every snapshot tick.
package main

import (
	"encoding/binary"
	"encoding/json"
	"log"
	"math"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeJoinRoom        = 101
	MsgTypeMove            = 201
	MsgTypeLand            = 202
	MsgTypeWalk            = 204
	MsgTypeJump            = 205
	MsgTypeSpawnProjectile = 206
	MsgTypeWorldSnapshot   = 301
	MsgTypeRoomFull        = 401
)

type vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, payload interface{}) error {
	var data []byte
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return err
		}
	}
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
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
				log.Printf("Read error: %v", err)
				return
			}
			if len(message) < 4 {
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			switch msgID {
			case MsgTypeJoinRoom:
				log.Printf("Joined: %s", message[4:])
			case MsgTypeRoomFull:
				log.Printf("Room full, giving up")
				return
			case MsgTypeWorldSnapshot:
				var snap struct {
					Tick    uint64 `json:"tick"`
					Players []struct {
						ID string `json:"id"`
					} `json:"players"`
					Projectiles []json.RawMessage `json:"projectiles"`
				}
				if err := json.Unmarshal(message[4:], &snap); err == nil {
					log.Printf("tick %d: %d players, %d projectiles",
						snap.Tick, len(snap.Players), len(snap.Projectiles))
				}
			}
		}
	}()

	if err := send(c, MsgTypeJoinRoom, map[string]string{"room_name": "default"}); err != nil {
		log.Fatalf("Join failed: %v", err)
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	step := 0
	angle := 0.0

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			step++
			switch {
			case step < 20:
				// Drift toward Earth
				send(c, MsgTypeMove, map[string]interface{}{
					"position": vec3{X: 8 - float64(step)*0.1, Y: 1, Z: rand.Float64()},
					"rotation": vec3{},
				})
			case step == 20:
				send(c, MsgTypeLand, map[string]interface{}{
					"planetId": "planet1",
					"position": vec3{X: 5.5, Y: 0, Z: 0},
				})
			case step == 30:
				send(c, MsgTypeJump, nil)
			case step == 40:
				send(c, MsgTypeSpawnProjectile, map[string]interface{}{
					"position":  vec3{X: 5.5, Y: 1, Z: 0},
					"direction": vec3{X: 1, Y: 0, Z: 0},
					"color":     "#00ff88",
				})
			default:
				angle += 0.05
				if angle > 2*math.Pi {
					angle -= 2 * math.Pi
				}
				send(c, MsgTypeWalk, map[string]float64{"angle": angle})
			}
		case <-interrupt:
			log.Println("Interrupted, closing connection")
			c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}
