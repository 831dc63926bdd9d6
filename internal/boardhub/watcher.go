package boardhub

import (
	"time"

	"github.com/gorilla/websocket"
)

type Watcher struct {
	hub     *Hub
	conn    *websocket.Conn
	Receive chan []byte
}

func newWatcher(hub *Hub, conn *websocket.Conn) *Watcher {
	return &Watcher{
		hub:     hub,
		conn:    conn,
		Receive: make(chan []byte, 4),
	}
}

// ReadEvents drains the connection so close frames and pongs are processed;
// watchers never send application messages.
func (w *Watcher) ReadEvents() {
	defer func() {
		w.hub.leaveWatcher <- w
		w.conn.Close()
	}()

	w.conn.SetReadLimit(maxMessageSize)
	w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (w *Watcher) WriteEvents() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		w.conn.Close()
	}()

	for {
		select {
		case message, ok := <-w.Receive:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				w.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			writer, err := w.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			writer.Write(message)

			// Add queued refreshes to the current websocket message.
			n := len(w.Receive)
			for i := 0; i < n; i++ {
				writer.Write(newline)
				writer.Write(<-w.Receive)
			}

			if err := writer.Close(); err != nil {
				return
			}
		case <-ticker.C:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
