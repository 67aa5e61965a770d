package signal

import (
	"encoding/json"
	"time"

	"parley/internal/core/domain"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// outbound is a queued write: either a data frame or a liveness ping.
type outbound struct {
	ping bool
	msg  Message
}

// client is the transport side of one connection: the socket, its write queue
// and the identity attached at upgrade time. Presence state lives in the
// registry, not here; missedBeats is touched only by the hub loop.
type client struct {
	id    domain.UserID
	email string
	conn  *websocket.Conn
	send  chan outbound

	missedBeats int
}

func newClient(id domain.UserID, email string, conn *websocket.Conn, sendBuffer int) *client {
	return &client{
		id:    id,
		email: email,
		conn:  conn,
		send:  make(chan outbound, sendBuffer),
	}
}

// readPump feeds inbound frames into the hub's event loop until the socket
// dies, then hands the connection to the disconnect path. Runs on the upgrade
// handler's goroutine.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.events <- event{kind: eventUnregister, c: c}
		c.conn.Close()
	}()

	c.conn.SetPongHandler(func(string) error {
		h.events <- event{kind: eventPong, c: c}
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Infow("read error", "user_id", c.id, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			// A malformed frame is rejected with an error frame; the
			// connection and everyone else stay up.
			h.events <- event{kind: eventMalformed, c: c}
			continue
		}
		h.events <- event{kind: eventFrame, c: c, msg: msg}
	}
}

// writePump is the sole writer on the socket. It drains the send queue and
// exits when the hub closes it.
func (c *client) writePump() {
	defer c.conn.Close()

	for out := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		var err error
		if out.ping {
			err = c.conn.WriteMessage(websocket.PingMessage, nil)
		} else {
			err = c.conn.WriteJSON(out.msg)
		}
		if err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
