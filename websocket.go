package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/game"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for now to avoid CORS issues during dev
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a middleman between the websocket connection and its session.
type Client struct {
	conn *websocket.Conn
	// send is closed by the session when it ends.
	send chan []byte
	// inbox is closed by readPump when the connection goes away.
	inbox chan []byte
	// done is closed by the session when it stops reading inbox.
	done chan struct{}

	playerID string
	nickname string
}

func newClient(conn *websocket.Conn, playerID, nickname string) *Client {
	return &Client{
		conn:     conn,
		send:     make(chan []byte, 256),
		inbox:    make(chan []byte, 64),
		done:     make(chan struct{}),
		playerID: playerID,
		nickname: nickname,
	}
}

// readPump pumps messages from the websocket connection to the session.
func (c *Client) readPump() {
	defer func() {
		close(c.inbox)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] error: %v", err)
			}
			break
		}
		select {
		case c.inbox <- message:
		case <-c.done:
			return
		}
	}
}

// writePump pumps messages from the session to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The session closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// serveWs handles /ws?token=&mode=&room= requests. Solo sessions need no
// room.
func serveWs(srv *Server, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		log.Println("[WS] ERROR: No token provided for WebSocket connection")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "authentication required"))
		conn.Close()
		return
	}
	claims, err := verifyJWT(tokenString)
	if err != nil {
		log.Printf("[WS] ERROR: Invalid JWT token: %v", err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "invalid token"))
		conn.Close()
		return
	}

	mode := game.Mode(r.URL.Query().Get("mode"))
	roomID := r.URL.Query().Get("room")
	if !mode.Valid() || (mode != game.ModeSolo && roomID == "") {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "mode or room missing"))
		conn.Close()
		return
	}

	client := newClient(conn, claims.PlayerID, claims.Nickname)
	log.Printf("[WS] %s (%s) connected for %s %s", client.nickname, client.playerID, mode, roomID)

	session := newSession(srv, client, mode, roomID)

	// The session outlives the request; its context ends when the client
	// disconnects.
	go client.writePump()
	go client.readPump()
	go session.run(context.Background())
}
