package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/postcardmijo/food/internal/inventory"
	"github.com/postcardmijo/food/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// feedConn streams one hall's inventory snapshots to a websocket client
type feedConn struct {
	conn *websocket.Conn
	hub  *inventory.Hub
	sub  *inventory.Subscription
}

// InventoryFeed sends the hall snapshot on connect and after every change
func (s *Server) InventoryFeed(c *gin.Context) {
	if !s.inventoryEnabled(c) {
		return
	}
	hall := c.Param("hall")

	hub := s.deps.Inventory.Hub()
	sub, initial, err := s.deps.Inventory.Watch(c.Request.Context(), hall)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.Unsubscribe(sub)
		log.Printf("api: websocket upgrade failed: %v", err)
		return
	}

	fc := &feedConn{conn: conn, hub: hub, sub: sub}

	go fc.writePump(initial)
	go fc.readPump()
}

// readPump drains client frames so pongs and close frames are handled
func (f *feedConn) readPump() {
	defer func() {
		f.hub.Unsubscribe(f.sub)
		f.conn.Close()
	}()

	f.conn.SetReadLimit(512)
	f.conn.SetReadDeadline(time.Now().Add(pongWait))
	f.conn.SetPongHandler(func(string) error {
		f.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := f.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("api: websocket error: %v", err)
			}
			return
		}
	}
}

func (f *feedConn) writePump(initial []models.InventoryItem) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		f.conn.Close()
	}()

	if err := f.write(initial); err != nil {
		return
	}

	for {
		select {
		case items, ok := <-f.sub.C:
			if !ok {
				f.conn.SetWriteDeadline(time.Now().Add(writeWait))
				f.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := f.write(items); err != nil {
				return
			}
		case <-ticker.C:
			f.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *feedConn) write(items []models.InventoryItem) error {
	f.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return f.conn.WriteJSON(items)
}
