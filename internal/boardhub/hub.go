package boardhub

import (
	"encoding/json"

	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/leaderboard"
	"github.com/gorilla/websocket"
)

// Refresh is one broadcast leaderboard recomputation. Watchers key boards by
// the originating request parameters and drop messages for parameters they
// have navigated away from.
type Refresh struct {
	Mode    catalog.Mode        `json:"mode"`
	StatKey string              `json:"stat_key"`
	Year    int                 `json:"year"`
	Role    leaderboard.Role    `json:"role,omitempty"`
	Entries []leaderboard.Entry `json:"entries"`
}

// Hub fans refreshed leaderboards out to websocket watchers for one mode.
type Hub struct {
	mode catalog.Mode

	watchers map[*Watcher]bool

	Refreshes    chan Refresh
	joinWatcher  chan *Watcher
	leaveWatcher chan *Watcher
}

func New(mode catalog.Mode) *Hub {
	return &Hub{
		mode:         mode,
		watchers:     make(map[*Watcher]bool),
		Refreshes:    make(chan Refresh, 8),
		joinWatcher:  make(chan *Watcher),
		leaveWatcher: make(chan *Watcher),
	}
}

func (h *Hub) JoinWatcher(conn *websocket.Conn) {
	watcher := newWatcher(h, conn)
	h.joinWatcher <- watcher
	go watcher.ReadEvents()
	go watcher.WriteEvents()
}

func (h *Hub) Run() {
	for {
		select {
		case watcher := <-h.joinWatcher:
			h.watchers[watcher] = true
		case watcher := <-h.leaveWatcher:
			if _, ok := h.watchers[watcher]; ok {
				delete(h.watchers, watcher)
				close(watcher.Receive)
			}
		case refresh := <-h.Refreshes:
			msg, err := json.Marshal(refresh)
			if err != nil {
				continue
			}
			h.toAllWatchers(msg)
		}
	}
}

func (h *Hub) toAllWatchers(msg []byte) {
	for watcher := range h.watchers {
		select {
		case watcher.Receive <- msg:
		default:
			close(watcher.Receive)
			delete(h.watchers, watcher)
		}
	}
}
